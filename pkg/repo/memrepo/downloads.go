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

package memrepo

import (
	"context"
	"time"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
)

// Downloads implements repo.DownloadRepo over a shared db.
type Downloads struct{ db *db }

func (d *Downloads) Enqueue(ctx context.Context, entries []core.DownloadQueueEntry) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	for _, e := range entries {
		k := queueKey{ChapterID: e.ChapterID, PageRank: e.PageRank}
		if _, exists := d.db.queue[k]; exists {
			continue
		}
		if e.DateAdded.IsZero() {
			e.DateAdded = time.Now()
		}
		d.db.queue[k] = e
	}
	return nil
}

func (d *Downloads) Next(ctx context.Context) (core.DownloadQueueEntry, bool, error) {
	d.db.mu.RLock()
	defer d.db.mu.RUnlock()

	var best *core.DownloadQueueEntry
	for _, e := range d.db.queue {
		e := e
		if best == nil || lessQueueEntry(e, *best) {
			best = &e
		}
	}
	if best == nil {
		return core.DownloadQueueEntry{}, false, nil
	}
	return *best, true, nil
}

func lessQueueEntry(a, b core.DownloadQueueEntry) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if !a.DateAdded.Equal(b.DateAdded) {
		return a.DateAdded.Before(b.DateAdded)
	}
	return a.PageRank < b.PageRank
}

func (d *Downloads) Remove(ctx context.Context, chapterID int64, pageRank int) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	delete(d.db.queue, queueKey{ChapterID: chapterID, PageRank: pageRank})
	return nil
}

func (d *Downloads) RemoveChapter(ctx context.Context, chapterID int64) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	for k := range d.db.queue {
		if k.ChapterID == chapterID {
			delete(d.db.queue, k)
		}
	}
	return nil
}

func (d *Downloads) MarkTerminal(ctx context.Context, chapterID int64, pageRank int) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	k := queueKey{ChapterID: chapterID, PageRank: pageRank}
	e, ok := d.db.queue[k]
	if !ok {
		return apperr.Newf("queue entry (%d, %d) not found", chapterID, pageRank).AsNotFound().Error()
	}
	e.Priority = core.TerminalPriority
	d.db.queue[k] = e
	return nil
}

func (d *Downloads) IncrementAttempts(ctx context.Context, chapterID int64, pageRank int) (int, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	k := queueKey{ChapterID: chapterID, PageRank: pageRank}
	e, ok := d.db.queue[k]
	if !ok {
		return 0, apperr.Newf("queue entry (%d, %d) not found", chapterID, pageRank).AsNotFound().Error()
	}
	e.Attempts++
	d.db.queue[k] = e
	return e.Attempts, nil
}
