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

// Package downloadworker consumes the persisted download queue and
// materializes chapter archives on disk, honoring a filesystem pause
// sentinel and a priority order. The fetch-then-write loop is the same
// shape as a single-run CLI download, generalized into a long-lived worker
// with a persisted, re-entrant queue and pause/retry semantics layered on
// top.
package downloadworker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/applog"
	"tanoshi/pkg/core"
	"tanoshi/pkg/notifier"
	"tanoshi/pkg/repo"
	"tanoshi/pkg/source"
)

// SourceHost is the subset of pkg/sourcehost.Host the download worker needs.
type SourceHost interface {
	Pages(ctx context.Context, sourceID int64, path string) ([]source.Page, error)
	GetSourceInfo(ctx context.Context, sourceID int64) (core.SourceInfo, error)
	ImageBytes(ctx context.Context, sourceID int64, url string) ([]byte, string, error)
}

// MangaInfo is the minimal manga lookup the worker needs to build archive
// paths, split out of repo.MangaRepo so tests can stub it trivially.
type MangaInfo interface {
	Get(ctx context.Context, id int64) (core.Manga, error)
}

type cmdKind int

const (
	cmdDownload cmdKind = iota
	cmdInsertIntoQueue
	cmdCancel
)

type command struct {
	kind      cmdKind
	chapterID int64
}

// Options configures a Worker.
type Options struct {
	DownloadRoot string
	Mangas       MangaInfo
	Chapters     repo.ChapterRepo
	Downloads    repo.DownloadRepo
	Library      repo.LibraryRepo
	Host         SourceHost
	Notifier     notifier.Notifier
	Logger       applog.Logger
}

// Worker materializes chapter archives from the persisted download queue.
type Worker struct {
	opts Options
	log  applog.Logger
	gate *pauseGate

	pending  *pendingArchives
	commands chan command
}

// New builds a Worker. Call Run in its own goroutine.
func New(opts Options) *Worker {
	if opts.Notifier == nil {
		opts.Notifier = notifier.Noop()
	}
	if opts.Logger == nil {
		opts.Logger = applog.Noop()
	}
	return &Worker{
		opts:     opts,
		log:      opts.Logger,
		gate:     newPauseGate(opts.DownloadRoot, opts.Logger),
		pending:  newPendingArchives(),
		commands: make(chan command, 64),
	}
}

// EnqueueChapter implements updateworker.DownloadEnqueuer: it asks the
// worker to pull the given chapter's pages and enqueue its download rows.
func (w *Worker) EnqueueChapter(ctx context.Context, chapterID int64) error {
	select {
	case w.commands <- command{kind: cmdInsertIntoQueue, chapterID: chapterID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel removes a chapter's queue rows and discards any partial archive.
func (w *Worker) Cancel(ctx context.Context, chapterID int64) error {
	select {
	case w.commands <- command{kind: cmdCancel, chapterID: chapterID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kick signals the worker to check the queue now rather than waiting for
// its next poll, used after Resume.
func (w *Worker) Kick(ctx context.Context) {
	select {
	case w.commands <- command{kind: cmdDownload}:
	default:
	}
}

// Resume removes the pause sentinel and kicks processing.
func (w *Worker) Resume(ctx context.Context) error {
	err := os.Remove(filepath.Join(w.opts.DownloadRoot, ".pause"))
	if err != nil && !os.IsNotExist(err) {
		return apperr.Track(err).AsIO().Error()
	}
	w.Kick(ctx)
	return nil
}

// Pause writes the pause sentinel; the worker gates on it before popping
// the next queue entry.
func (w *Worker) Pause() error {
	f, err := os.Create(filepath.Join(w.opts.DownloadRoot, ".pause"))
	if err != nil {
		return apperr.Track(err).AsIO().Error()
	}
	return f.Close()
}

const pollInterval = 2 * time.Second

// Run drains the persisted queue until ctx is cancelled. Between items it
// honors the pause gate; an empty queue is re-checked every pollInterval.
func (w *Worker) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go w.gate.run(done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-w.commands:
			w.handleCommand(ctx, cmd, done)
		case <-ticker.C:
			w.drainOnce(ctx, done)
		}
	}
}

func (w *Worker) handleCommand(ctx context.Context, cmd command, done <-chan struct{}) {
	switch cmd.kind {
	case cmdDownload:
		w.drainOnce(ctx, done)
	case cmdInsertIntoQueue:
		w.insertIntoQueue(ctx, cmd.chapterID)
	case cmdCancel:
		w.cancelChapter(ctx, cmd.chapterID)
	}
}

// drainOnce processes queue entries until the queue is empty or ctx ends.
// done unblocks an in-progress pause wait early so shutdown never hangs
// behind a paused queue.
func (w *Worker) drainOnce(ctx context.Context, done <-chan struct{}) {
	for {
		if ctx.Err() != nil {
			return
		}
		if w.gate.paused() {
			w.gate.waitUntilResumed(done)
			select {
			case <-done:
				return
			default:
			}
			continue
		}

		entry, ok, err := w.opts.Downloads.Next(ctx)
		if err != nil {
			w.log.Error("download worker: queue read failed: %v", err)
			return
		}
		// Terminal entries sort last, so once one is next nothing retryable
		// is left in the queue.
		if !ok || entry.Priority == core.TerminalPriority {
			return
		}

		w.processEntry(ctx, entry)
	}
}

// insertIntoQueue fetches a chapter's pages and expands them into per-page
// queue rows (chapter-processing step 1-2): a chapter with a
// DownloadedPath already set is skipped and any stray queue rows purged.
func (w *Worker) insertIntoQueue(ctx context.Context, chapterID int64) {
	chapter, err := w.opts.Chapters.Get(ctx, chapterID)
	if err != nil {
		w.log.Warn("download worker: chapter %d: %v", chapterID, err)
		return
	}
	if chapter.DownloadedPath != "" {
		_ = w.opts.Downloads.RemoveChapter(ctx, chapterID)
		return
	}

	pages, err := w.opts.Host.Pages(ctx, chapter.SourceID, chapter.Path)
	if err != nil {
		w.log.Warn("download worker: chapter %d: pages fetch failed: %v", chapterID, err)
		return
	}

	entries := make([]core.DownloadQueueEntry, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, core.DownloadQueueEntry{
			ChapterID: chapterID,
			PageRank:  p.Rank,
			SourceID:  chapter.SourceID,
			MangaID:   chapter.MangaID,
			URL:       p.URL,
			Priority:  0,
		})
	}
	if err := w.opts.Downloads.Enqueue(ctx, entries); err != nil {
		w.log.Error("download worker: chapter %d: enqueue failed: %v", chapterID, err)
		return
	}
	w.pending.expect(chapterID, len(entries))
}

func (w *Worker) cancelChapter(ctx context.Context, chapterID int64) {
	if writer, ok := w.pending.get(chapterID); ok {
		writer.abort()
	}
	w.pending.delete(chapterID)
	if err := w.opts.Downloads.RemoveChapter(ctx, chapterID); err != nil {
		w.log.Error("download worker: cancel chapter %d: %v", chapterID, err)
	}
}

// processEntry handles exactly one queued page: chapter-processing steps 3
// and 4 (step 2, expanding the page list, already happened in
// insertIntoQueue before rows land in the queue).
func (w *Worker) processEntry(ctx context.Context, entry core.DownloadQueueEntry) {
	chapter, err := w.opts.Chapters.Get(ctx, entry.ChapterID)
	if err != nil {
		w.log.Warn("download worker: chapter %d vanished: %v", entry.ChapterID, err)
		_ = w.opts.Downloads.RemoveChapter(ctx, entry.ChapterID)
		return
	}
	if chapter.DownloadedPath != "" {
		_ = w.opts.Downloads.RemoveChapter(ctx, entry.ChapterID)
		return
	}
	manga, err := w.opts.Mangas.Get(ctx, chapter.MangaID)
	if err != nil {
		w.log.Error("download worker: chapter %d: manga lookup failed: %v", entry.ChapterID, err)
		return
	}

	sourceInfo, err := w.opts.Host.GetSourceInfo(ctx, manga.SourceID)
	sourceName := fmt.Sprintf("source-%d", manga.SourceID)
	if err == nil {
		sourceName = sourceInfo.Name
	}

	data, _, err := w.opts.Host.ImageBytes(ctx, entry.SourceID, entry.URL)
	if err != nil {
		w.onPageFailure(ctx, entry, err)
		return
	}

	w.writeAndAdvance(ctx, manga, chapter, entry, sourceName, data)
}

func (w *Worker) onPageFailure(ctx context.Context, entry core.DownloadQueueEntry, fetchErr error) {
	if apperr.IsKind(fetchErr, apperr.KindNotFound) {
		w.log.Error("download worker: chapter %d page %d: permanent failure: %v", entry.ChapterID, entry.PageRank, fetchErr)
		_ = w.opts.Downloads.MarkTerminal(ctx, entry.ChapterID, entry.PageRank)
		w.notifyFollowers(ctx, entry.MangaID, entry.ChapterID, fetchErr)
		return
	}

	attempts, err := w.opts.Downloads.IncrementAttempts(ctx, entry.ChapterID, entry.PageRank)
	if err != nil {
		w.log.Error("download worker: chapter %d page %d: attempt tracking failed: %v", entry.ChapterID, entry.PageRank, err)
		return
	}
	w.log.Warn("download worker: chapter %d page %d: attempt %d failed: %v", entry.ChapterID, entry.PageRank, attempts, fetchErr)
	if attempts >= maxPageRetries {
		_ = w.opts.Downloads.MarkTerminal(ctx, entry.ChapterID, entry.PageRank)
		w.notifyFollowers(ctx, entry.MangaID, entry.ChapterID, fetchErr)
	}
}

func (w *Worker) notifyFollowers(ctx context.Context, mangaID, chapterID int64, cause error) {
	followers, err := w.opts.Library.ListUsersFollowing(ctx, mangaID)
	if err != nil {
		return
	}
	for _, userID := range followers {
		_ = w.opts.Notifier.Notify(ctx, userID, notifier.Event{
			Kind:      notifier.EventDownloadFailed,
			MangaID:   mangaID,
			ChapterID: chapterID,
			Detail:    cause.Error(),
		})
	}
}

// writeAndAdvance appends one page into the chapter's working archive,
// promoting it to a finished archive on the last page.
func (w *Worker) writeAndAdvance(ctx context.Context, manga core.Manga, chapter core.Chapter, entry core.DownloadQueueEntry, sourceName string, data []byte) {
	writer, err := w.openOrCreateArchive(manga, chapter, sourceName)
	if err != nil {
		w.log.Error("download worker: chapter %d: archive open failed: %v", entry.ChapterID, err)
		return
	}
	if err := writer.writePage(entry.PageRank, data); err != nil {
		writer.abort()
		w.pending.delete(entry.ChapterID)
		w.log.Error("download worker: chapter %d page %d: write failed: %v", entry.ChapterID, entry.PageRank, err)
		return
	}

	if err := w.opts.Downloads.Remove(ctx, entry.ChapterID, entry.PageRank); err != nil {
		w.log.Error("download worker: chapter %d page %d: queue cleanup failed: %v", entry.ChapterID, entry.PageRank, err)
	}

	if remaining := w.pending.pageWritten(entry.ChapterID); remaining > 0 {
		return
	}

	finalPath, err := writer.commit()
	w.pending.delete(entry.ChapterID)
	if err != nil {
		w.log.Error("download worker: chapter %d: archive commit failed: %v", entry.ChapterID, err)
		return
	}

	if err := w.opts.Chapters.MarkDownloaded(ctx, entry.ChapterID, finalPath); err != nil {
		w.log.Error("download worker: chapter %d: mark downloaded failed: %v", entry.ChapterID, err)
		return
	}
	_ = w.opts.Downloads.RemoveChapter(ctx, entry.ChapterID)

	followers, err := w.opts.Library.ListUsersFollowing(ctx, chapter.MangaID)
	if err == nil {
		for _, userID := range followers {
			_ = w.opts.Notifier.Notify(ctx, userID, notifier.Event{
				Kind:      notifier.EventDownloadComplete,
				MangaID:   chapter.MangaID,
				ChapterID: entry.ChapterID,
				Title:     chapter.Title,
			})
		}
	}
}

func (w *Worker) openOrCreateArchive(manga core.Manga, chapter core.Chapter, sourceName string) (*archiveWriter, error) {
	if existing, ok := w.pending.get(chapter.ID); ok {
		return existing, nil
	}
	stem := w.archiveStem(manga, chapter, sourceName)
	writer, err := newArchiveWriter(filepath.Dir(stem), filepath.Base(stem))
	if err != nil {
		return nil, err
	}
	w.pending.put(chapter.ID, writer)
	return writer, nil
}

func (w *Worker) archiveStem(manga core.Manga, chapter core.Chapter, sourceName string) string {
	return filepath.Join(w.opts.DownloadRoot, sanitize(sourceName), sanitize(manga.Title), sanitize(chapter.Title))
}

func sanitize(s string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(s)
}
