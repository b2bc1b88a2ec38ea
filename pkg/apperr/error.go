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

// Package apperr implements the error taxonomy from the error handling
// design: every SourceError/repository/service failure is tracked into a
// *Error carrying a stable Kind plus a free-form detail string, adapted
// from the teacher's fluent error-tracking builder.
package apperr

import (
	"errors"
	"fmt"
)

var (
	As     = errors.As
	Is     = errors.Is
	Unwrap = errors.Unwrap
)

// Error is a tracked failure with a stable Kind, grouped so the HTTP and
// GraphQL layers never need to inspect error strings.
type Error struct {
	kind   Kind
	detail string
	op     string
	cause  error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.detail != "":
		msg = fmt.Sprintf("%s: %s", e.kind, e.detail)
	case e.cause != nil:
		msg = fmt.Sprintf("%s: %s", e.kind, e.cause)
	default:
		msg = string(e.kind)
	}
	if e.op != "" {
		return e.op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's stable taxonomy kind.
func (e *Error) Kind() Kind { return e.kind }

// Builder provides the fluent `Track(err).AsX().Error()` chain used
// throughout the core, mirroring the teacher's ErrorBuilder shape.
type Builder struct {
	err *Error
}

// Track wraps any error for annotation. A nil input yields a nil builder so
// chains on a nil error are safe no-ops, matching the teacher's idiom.
func Track(err error) *Builder {
	if err == nil {
		return nil
	}
	var existing *Error
	if As(err, &existing) {
		cp := *existing
		return &Builder{err: &cp}
	}
	return &Builder{err: &Error{kind: KindUnknown, cause: err}}
}

// New starts a fresh tracked error from a message.
func New(message string) *Builder {
	return Track(errors.New(message))
}

// Newf starts a fresh tracked error from a formatted message.
func Newf(format string, args ...interface{}) *Builder {
	return Track(fmt.Errorf(format, args...))
}

func (b *Builder) Of(kind Kind) *Builder {
	if b == nil {
		return nil
	}
	b.err.kind = kind
	return b
}

func (b *Builder) WithDetail(detail string) *Builder {
	if b == nil {
		return nil
	}
	b.err.detail = detail
	return b
}

func (b *Builder) WithDetailf(format string, args ...interface{}) *Builder {
	return b.WithDetail(fmt.Sprintf(format, args...))
}

func (b *Builder) WithOp(op string) *Builder {
	if b == nil {
		return nil
	}
	b.err.op = op
	return b
}

// Category helpers, one per Kind, matching the teacher's AsNetwork/AsAuth
// shorthand convention.
func (b *Builder) AsNotFound() *Builder            { return b.Of(KindNotFound) }
func (b *Builder) AsUnauthorized() *Builder        { return b.Of(KindUnauthorized) }
func (b *Builder) AsForbidden() *Builder           { return b.Of(KindForbidden) }
func (b *Builder) AsBadInput() *Builder            { return b.Of(KindBadInput) }
func (b *Builder) AsIncompatibleVersion() *Builder { return b.Of(KindIncompatibleVersion) }
func (b *Builder) AsTimeout() *Builder             { return b.Of(KindTimeout) }
func (b *Builder) AsAdapterFailure() *Builder      { return b.Of(KindAdapterFailure) }
func (b *Builder) AsIO() *Builder                  { return b.Of(KindIO) }
func (b *Builder) AsConflict() *Builder            { return b.Of(KindConflict) }

// Error finalizes the builder into an error value (a nil builder yields nil,
// so `apperr.Track(err).AsIO().Error()` is safe to call with a nil err).
func (b *Builder) Error() error {
	if b == nil {
		return nil
	}
	return b.err
}

// KindOf extracts the Kind of err, or KindUnknown if err isn't a tracked
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// IsKind reports whether err is tracked with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
