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

// Package core holds the domain entities shared by every other package:
// the data model described by the spec's data model table, independent of
// any storage, transport, or extension-host concern.
package core

import "time"

// LocalSourceIDFloor is the first id reserved for Local (filesystem) adapters.
// Plugin manifests that declare an id at or above this floor are rejected at
// install time with an apperr.KindConflict error.
const LocalSourceIDFloor int64 = 10000

// SourceInfo describes an installed or loadable adapter.
type SourceInfo struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
	Icon    string `json:"icon,omitempty"`
	// IsLocal marks adapters backed by a filesystem folder rather than a
	// loaded plugin.
	IsLocal bool `json:"is_local"`
}

// FilterField describes one entry of an adapter's filter-list schema, used
// to build search filters generically without the host knowing about any
// particular adapter's domain.
type FilterField struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Type    string   `json:"type"` // "text", "select", "checkbox", "multiselect"
	Options []string `json:"options,omitempty"`
}

// PreferenceField describes one entry of an adapter's preference schema.
type PreferenceField struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Type    string `json:"type"` // "text", "bool", "select"
	Default string `json:"default,omitempty"`
}

// Manga is the surrogate-keyed catalogue entry. The natural key is
// (SourceID, Path); ID is stable across refreshes and DateAdded is
// preserved by refresh.
type Manga struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"source_id"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Status      string    `json:"status,omitempty"`
	Description string    `json:"description,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	DateAdded   time.Time `json:"date_added"`
}

// NaturalKey returns the (SourceID, Path) identity used for upserts.
func (m Manga) NaturalKey() MangaKey {
	return MangaKey{SourceID: m.SourceID, Path: m.Path}
}

// MangaKey is the natural key (source_id, path) for a Manga.
type MangaKey struct {
	SourceID int64
	Path     string
}

// Chapter is a single chapter of a Manga. DownloadedPath is non-empty iff an
// archive exists on disk for this chapter.
type Chapter struct {
	ID             int64     `json:"id"`
	MangaID        int64     `json:"manga_id"`
	SourceID       int64     `json:"source_id"`
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	Number         float64   `json:"number"`
	Scanlator      string    `json:"scanlator,omitempty"`
	Uploaded       time.Time `json:"uploaded"`
	DateAdded      time.Time `json:"date_added"`
	DownloadedPath string    `json:"downloaded_path,omitempty"`
}

// NaturalKey returns the (SourceID, Path) identity used for upserts.
func (c Chapter) NaturalKey() ChapterKey {
	return ChapterKey{SourceID: c.SourceID, Path: c.Path}
}

// ChapterKey is the natural key (source_id, path) for a Chapter.
type ChapterKey struct {
	SourceID int64
	Path     string
}

// ReadProgress tracks how far a user has read into a chapter.
// IsComplete implies LastPage == PageCount-1; the latest At wins.
type ReadProgress struct {
	UserID     int64     `json:"user_id"`
	ChapterID  int64     `json:"chapter_id"`
	At         time.Time `json:"at"`
	LastPage   int       `json:"last_page"`
	IsComplete bool      `json:"is_complete"`
}

// DownloadQueueEntry is a single page-level row in the persisted download
// queue, ordered by (Priority ASC, DateAdded ASC, PageRank ASC).
type DownloadQueueEntry struct {
	ChapterID int64     `json:"chapter_id"`
	PageRank  int       `json:"page_rank"`
	SourceID  int64     `json:"source_id"`
	MangaID   int64     `json:"manga_id"`
	URL       string    `json:"url,omitempty"`
	Priority  int64     `json:"priority"`
	DateAdded time.Time `json:"date_added"`
	Attempts  int       `json:"attempts"`
}

// TerminalPriority marks a queue entry that permanently failed (e.g. a 404):
// it sorts last and is never retried automatically.
const TerminalPriority int64 = 1 << 62

// LibraryMembership marks a manga as followed by a user, optionally under
// one or more categories. CategoryNone designates the default category.
type LibraryMembership struct {
	UserID     int64   `json:"user_id"`
	MangaID    int64   `json:"manga_id"`
	Categories []int64 `json:"categories,omitempty"`
}

// CategoryNone is the sentinel category id meaning "default, uncategorized".
const CategoryNone int64 = 0

// Category groups library entries for one user.
type Category struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// User is the minimal identity the core needs; authentication itself is an
// external collaborator (token codec out of scope). Auto-download is
// deliberately not a field here: it is a single global config toggle
// (config.Config.AutoDownloadChapters), never a per-user override.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// ChapterUpdate is the payload broadcast by the update worker whenever a
// chapter's Uploaded timestamp strictly exceeds the pre-fetch maximum known
// for its manga.
type ChapterUpdate struct {
	MangaID   int64     `json:"manga_id"`
	ChapterID int64     `json:"chapter_id"`
	Title     string    `json:"title"`
	Uploaded  time.Time `json:"uploaded"`
}
