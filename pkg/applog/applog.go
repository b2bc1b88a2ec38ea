// Luminary: A streamlined CLI tool for searching and downloading manga.
// Copyright (C) 2025 Luca M. Schmidt (LuMiSxh)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package applog provides the daemon's structured logger. It keeps the
// teacher's Logger interface shape (Debug/Info/Warn/Error + SetLevel) so
// every worker and service is written against a small seam, but the
// implementation is backed by go.uber.org/zap instead of a hand-rolled
// log.Logger wrapper.
package applog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the teacher's Level enum so call sites (SetLevel) read the
// same regardless of backend.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is the logging capability every worker and service depends on.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level Level)
	// With returns a child logger that tags every entry with a field, used
	// by workers to scope logs to e.g. a source_id or chapter_id.
	With(key string, value interface{}) Logger
}

// zapLogger implements Logger on top of zap.SugaredLogger.
type zapLogger struct {
	atom  zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// New builds a Logger writing JSON to stderr and, if logFile is non-empty,
// also appending plain-text entries to that file — analogous to the
// teacher's dual console+file output, but through zapcore.NewTee.
func New(logFile string) Logger {
	atom := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stderr), atom),
	}

	if logFile != "" {
		if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(f), atom))
		}
	}

	core := zapcore.NewTee(cores...)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &zapLogger{atom: atom, sugar: base.Sugar()}
}

func (l *zapLogger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func (l *zapLogger) SetLevel(level Level) {
	l.atom.SetLevel(level.zapLevel())
}

func (l *zapLogger) With(key string, value interface{}) Logger {
	return &zapLogger{atom: l.atom, sugar: l.sugar.With(key, value)}
}

// Noop returns a Logger that discards everything, for tests.
func Noop() Logger {
	return &zapLogger{atom: zap.NewAtomicLevelAt(zapcore.FatalLevel + 1), sugar: zap.NewNop().Sugar()}
}
