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

// Package updateworker implements the periodic library-update scheduler:
// for every manga any user follows, it fetches the source's current
// chapter list, persists new chapters, and broadcasts/notifies on the
// delta. Uses an update-scan loop shape (similar to engine/engine.go
// ticking over configured sources) generalized from a single process run
// to a long-lived ticker with an imperative command channel layered on
// top, per the concurrency model's single-task-per-worker design.
package updateworker

import (
	"context"
	"time"

	"tanoshi/pkg/applog"
	"tanoshi/pkg/core"
	"tanoshi/pkg/notifier"
	"tanoshi/pkg/repo"
)

// MinInterval is the floor enforced on the refresh interval in release
// builds; nothing below it is honored even if configured.
const MinInterval = time.Hour

// SourceHost is the subset of pkg/sourcehost.Host the update worker needs.
type SourceHost interface {
	Chapters(ctx context.Context, sourceID int64, path string) ([]core.Chapter, error)
}

// DownloadEnqueuer lets the update worker hand new chapters to the
// download worker without importing it directly (it in turn imports
// nothing from here, avoiding a cycle).
type DownloadEnqueuer interface {
	EnqueueChapter(ctx context.Context, chapterID int64) error
}

type cmdKind int

const (
	cmdRefreshAll cmdKind = iota
	cmdRefreshManga
)

type command struct {
	kind    cmdKind
	mangaID int64
}

// Options configures a Worker.
type Options struct {
	Interval             time.Duration
	Mangas               repo.MangaRepo
	Chapters             repo.ChapterRepo
	Library              repo.LibraryRepo
	Host                 SourceHost
	Notifier             notifier.Notifier
	Downloads            DownloadEnqueuer // nil disables auto-download entirely
	AutoDownloadChapters bool             // global config flag, never per-user
	Logger               applog.Logger
}

// Worker is the update scheduler. Run it via Run in its own goroutine.
type Worker struct {
	opts Options
	log  applog.Logger

	commands chan command
	bus      *broadcaster
}

// New builds a Worker.
func New(opts Options) *Worker {
	if opts.Interval < MinInterval {
		opts.Interval = MinInterval
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = applog.Noop()
	}
	return &Worker{
		opts:     opts,
		log:      opts.Logger,
		commands: make(chan command, 16),
		bus:      newBroadcaster(),
	}
}

// Subscribe returns a channel of ChapterUpdate broadcasts. Delivery is
// non-blocking and best-effort: a slow subscriber misses updates rather
// than stalling the worker. Call the returned cancel when done.
func (w *Worker) Subscribe() (<-chan core.ChapterUpdate, func()) {
	return w.bus.subscribe()
}

// RefreshAll requests an out-of-band full pass.
func (w *Worker) RefreshAll(ctx context.Context) {
	select {
	case w.commands <- command{kind: cmdRefreshAll}:
	case <-ctx.Done():
	}
}

// RefreshManga requests an out-of-band refresh of a single manga.
func (w *Worker) RefreshManga(ctx context.Context, mangaID int64) {
	select {
	case w.commands <- command{kind: cmdRefreshManga, mangaID: mangaID}:
	case <-ctx.Done():
	}
}

// Run is the scheduler loop: a ticker fires every Interval, re-scheduled
// relative to when the previous tick *started* (timer drift is absorbed,
// missed ticks are skipped, never queued up) and imperative commands
// arriving on the command channel run the same pass logic on demand.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.refreshAll(ctx)
		case cmd := <-w.commands:
			switch cmd.kind {
			case cmdRefreshAll:
				w.refreshAll(ctx)
			case cmdRefreshManga:
				w.refreshOne(ctx, cmd.mangaID)
			}
		}
	}
}

func (w *Worker) refreshAll(ctx context.Context) {
	ids, err := w.opts.Library.ListMangaIDs(ctx)
	if err != nil {
		w.log.Error("update worker: failed to list library manga: %v", err)
		return
	}
	for _, id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.refreshOne(ctx, id)
	}
}

func (w *Worker) refreshOne(ctx context.Context, mangaID int64) {
	manga, err := w.opts.Mangas.Get(ctx, mangaID)
	if err != nil {
		w.log.Warn("update worker: manga %d: %v", mangaID, err)
		return
	}

	preMax, _, err := w.opts.Chapters.MaxUploaded(ctx, mangaID)
	if err != nil {
		w.log.Error("update worker: manga %d: failed reading prior max uploaded: %v", mangaID, err)
		return
	}

	fetched, err := w.opts.Host.Chapters(ctx, manga.SourceID, manga.Path)
	if err != nil {
		w.log.Warn("update worker: manga %d: chapter fetch failed: %v", mangaID, err)
		return
	}

	var fresh []core.Chapter
	for _, c := range fetched {
		c.MangaID = mangaID
		c.SourceID = manga.SourceID
		id, err := w.opts.Chapters.Upsert(ctx, c)
		if err != nil {
			// A persistence failure aborts this manga's cycle entirely: no
			// notifications for any chapter fetched this pass.
			w.log.Error("update worker: manga %d: failed to persist chapter %s: %v", mangaID, c.Path, err)
			return
		}
		c.ID = id
		if c.Uploaded.After(preMax) {
			fresh = append(fresh, c)
		}
	}

	for _, c := range fresh {
		w.announce(ctx, mangaID, c)
	}
}

func (w *Worker) announce(ctx context.Context, mangaID int64, c core.Chapter) {
	update := core.ChapterUpdate{MangaID: mangaID, ChapterID: c.ID, Title: c.Title, Uploaded: c.Uploaded}
	w.bus.publish(update)

	followers, err := w.opts.Library.ListUsersFollowing(ctx, mangaID)
	if err != nil {
		w.log.Error("update worker: manga %d: failed to list followers: %v", mangaID, err)
		return
	}
	for _, userID := range followers {
		if err := w.opts.Notifier.Notify(ctx, userID, notifier.Event{
			Kind:      notifier.EventNewChapter,
			MangaID:   mangaID,
			ChapterID: c.ID,
			Title:     c.Title,
		}); err != nil {
			w.log.Warn("update worker: notify user %d failed: %v", userID, err)
		}
	}

	if w.opts.AutoDownloadChapters && w.opts.Downloads != nil {
		if err := w.opts.Downloads.EnqueueChapter(ctx, c.ID); err != nil {
			w.log.Warn("update worker: auto-download enqueue for chapter %d failed: %v", c.ID, err)
		}
	}
}

