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

// Package repo declares the abstract persistence contracts every service
// depends on. No SQL driver is wired here: the on-disk schema is an
// explicit non-goal, so these are interfaces plus their behavioral
// invariants only. See pkg/repo/memrepo for the in-memory reference
// implementation the test suite runs against.
package repo

import (
	"context"
	"time"

	"tanoshi/pkg/core"
)

// MangaRepo owns Manga rows. Upsert enforces the natural key
// (source_id, path): creating a manga that already exists by natural key
// must preserve its surrogate ID and DateAdded while updating every other
// field, matching the refresh contract in the data model.
type MangaRepo interface {
	// Upsert inserts a new manga or updates an existing one matched by
	// NaturalKey(), returning the row's stable ID (created or preserved).
	Upsert(ctx context.Context, m core.Manga) (int64, error)
	Get(ctx context.Context, id int64) (core.Manga, error)
	GetByNaturalKey(ctx context.Context, key core.MangaKey) (core.Manga, error)
	// ListByIDs fetches a batch of mangas by ID in one call, avoiding an
	// N+1 lookup pattern.
	ListByIDs(ctx context.Context, ids []int64) ([]core.Manga, error)
}

// ChapterRepo owns Chapter rows.
type ChapterRepo interface {
	// Upsert inserts or updates a chapter matched by NaturalKey(), returning
	// its stable ID. DownloadedPath is left untouched by a chapter-list
	// refresh; only MarkDownloaded/ClearDownloaded mutate it.
	Upsert(ctx context.Context, c core.Chapter) (int64, error)
	Get(ctx context.Context, id int64) (core.Chapter, error)
	// ListByManga returns every known chapter for a manga, in no particular
	// order — callers sort/diff as needed.
	ListByManga(ctx context.Context, mangaID int64) ([]core.Chapter, error)
	// MaxUploaded returns the latest known Uploaded timestamp across a
	// manga's chapters, used by the update worker's delta rule. ok is false
	// if the manga has no chapters yet.
	MaxUploaded(ctx context.Context, mangaID int64) (t time.Time, ok bool, err error)
	// MarkDownloaded sets DownloadedPath for a completed download.
	MarkDownloaded(ctx context.Context, chapterID int64, path string) error
	// ClearDownloaded removes the archive's recorded path, called after the
	// file itself is deleted.
	ClearDownloaded(ctx context.Context, chapterID int64) error
}

// DownloadRepo owns the persisted download queue. Ordering for the next
// pop is always (Priority ASC, DateAdded ASC, PageRank ASC).
type DownloadRepo interface {
	// Enqueue adds queue rows for a chapter's pages. An entry whose
	// (ChapterID, PageRank) is already queued is left untouched, so
	// enqueueing the same chapter twice adds no rows — callers should check
	// existence first if they need to know whether this was a no-op.
	Enqueue(ctx context.Context, entries []core.DownloadQueueEntry) error
	// Next returns the single highest-priority pending page, or ok=false if
	// the queue is empty.
	Next(ctx context.Context) (entry core.DownloadQueueEntry, ok bool, err error)
	// Remove deletes one page's row after it downloads successfully.
	Remove(ctx context.Context, chapterID int64, pageRank int) error
	// RemoveChapter purges every remaining row for a chapter — used on
	// cancellation and once a chapter completes.
	RemoveChapter(ctx context.Context, chapterID int64) error
	// MarkTerminal sets an entry's priority to core.TerminalPriority so it
	// sorts last and is never retried automatically (e.g. on a 404).
	MarkTerminal(ctx context.Context, chapterID int64, pageRank int) error
	// IncrementAttempts bumps the attempt counter for a page, called after
	// each failed attempt so callers can bound total attempts.
	IncrementAttempts(ctx context.Context, chapterID int64, pageRank int) (attempts int, err error)
}

// LibraryRepo owns LibraryMembership and Category rows.
type LibraryRepo interface {
	Add(ctx context.Context, userID, mangaID int64, categories []int64) error
	Remove(ctx context.Context, userID, mangaID int64) error
	// ListMangaIDs returns every manga any user follows, deduplicated —
	// the update worker's refresh-all scope.
	ListMangaIDs(ctx context.Context) ([]int64, error)
	// ListUsersFollowing returns every user who follows mangaID, used to
	// fan out per-user notifications after an update.
	ListUsersFollowing(ctx context.Context, mangaID int64) ([]int64, error)
	ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
}

// UserRepo owns User rows. Auto-download eligibility is not a per-user
// query here: it is a single global config toggle the update worker reads
// from its Options, never from this repository.
type UserRepo interface {
	Get(ctx context.Context, id int64) (core.User, error)
	List(ctx context.Context) ([]core.User, error)
}
