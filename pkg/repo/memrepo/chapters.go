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

// Chapters implements repo.ChapterRepo over a shared db.
type Chapters struct{ db *db }

func (c *Chapters) Upsert(ctx context.Context, chapter core.Chapter) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	key := chapter.NaturalKey()
	if id, ok := c.db.chapterByKey[key]; ok {
		existing := c.db.chapters[id]
		chapter.ID = id
		chapter.DateAdded = existing.DateAdded
		chapter.DownloadedPath = existing.DownloadedPath
		c.db.chapters[id] = chapter
		return id, nil
	}

	c.db.nextChapterID++
	id := c.db.nextChapterID
	chapter.ID = id
	if chapter.DateAdded.IsZero() {
		chapter.DateAdded = time.Now()
	}
	c.db.chapters[id] = chapter
	c.db.chapterByKey[key] = id
	c.db.chaptersByMga[chapter.MangaID] = append(c.db.chaptersByMga[chapter.MangaID], id)
	return id, nil
}

func (c *Chapters) Get(ctx context.Context, id int64) (core.Chapter, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	chapter, ok := c.db.chapters[id]
	if !ok {
		return core.Chapter{}, apperr.Newf("chapter %d not found", id).AsNotFound().Error()
	}
	return chapter, nil
}

func (c *Chapters) ListByManga(ctx context.Context, mangaID int64) ([]core.Chapter, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	ids := c.db.chaptersByMga[mangaID]
	out := make([]core.Chapter, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.db.chapters[id])
	}
	return out, nil
}

func (c *Chapters) MaxUploaded(ctx context.Context, mangaID int64) (time.Time, bool, error) {
	c.db.mu.RLock()
	defer c.db.mu.RUnlock()
	var max time.Time
	found := false
	for _, id := range c.db.chaptersByMga[mangaID] {
		ch := c.db.chapters[id]
		if !found || ch.Uploaded.After(max) {
			max = ch.Uploaded
			found = true
		}
	}
	return max, found, nil
}

func (c *Chapters) MarkDownloaded(ctx context.Context, chapterID int64, path string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	chapter, ok := c.db.chapters[chapterID]
	if !ok {
		return apperr.Newf("chapter %d not found", chapterID).AsNotFound().Error()
	}
	chapter.DownloadedPath = path
	c.db.chapters[chapterID] = chapter
	return nil
}

func (c *Chapters) ClearDownloaded(ctx context.Context, chapterID int64) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	chapter, ok := c.db.chapters[chapterID]
	if !ok {
		return apperr.Newf("chapter %d not found", chapterID).AsNotFound().Error()
	}
	chapter.DownloadedPath = ""
	c.db.chapters[chapterID] = chapter
	return nil
}
