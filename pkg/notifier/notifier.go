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

// Package notifier defines the per-user notification capability the
// Update and Download workers call out to. Telegram/Pushover/Gotify/tracker
// backends are external collaborators that implement Notifier; this
// package only ships the no-op and fan-out implementations the core itself
// needs.
package notifier

import (
	"context"

	"tanoshi/pkg/applog"
)

// EventKind tags what happened.
type EventKind int

const (
	EventNewChapter EventKind = iota
	EventDownloadComplete
	EventDownloadFailed
)

// Event is the small payload delivered to a user.
type Event struct {
	Kind      EventKind
	MangaID   int64
	ChapterID int64
	Title     string
	Detail    string // e.g. failure reason for EventDownloadFailed
}

// Notifier delivers one event to one user. Implementations for real
// backends (Telegram, Pushover, Gotify, trackers) live outside this
// package; it only ships the backend-agnostic fan-out below.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event Event) error
}

// noop discards every event, the default when no backend is configured.
type noop struct{}

func (noop) Notify(ctx context.Context, userID int64, event Event) error { return nil }

// Noop returns a Notifier that does nothing.
func Noop() Notifier { return noop{} }

// Multi fans an event out to every configured backend. A backend failure is
// logged and does not fail the call or block the other backends — per-user
// notification delivery is best-effort.
type Multi struct {
	backends []Notifier
	log      applog.Logger
}

// NewMulti builds a fan-out Notifier over backends.
func NewMulti(log applog.Logger, backends ...Notifier) *Multi {
	if log == nil {
		log = applog.Noop()
	}
	return &Multi{backends: backends, log: log}
}

func (m *Multi) Notify(ctx context.Context, userID int64, event Event) error {
	for _, b := range m.backends {
		if err := b.Notify(ctx, userID, event); err != nil {
			m.log.Warn("notifier backend failed for user %d: %v", userID, err)
		}
	}
	return nil
}
