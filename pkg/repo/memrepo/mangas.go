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

// Mangas implements repo.MangaRepo over a shared db.
type Mangas struct{ db *db }

func (m *Mangas) Upsert(ctx context.Context, manga core.Manga) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()

	key := manga.NaturalKey()
	if id, ok := m.db.mangaByKey[key]; ok {
		existing := m.db.mangas[id]
		manga.ID = id
		manga.DateAdded = existing.DateAdded
		m.db.mangas[id] = manga
		return id, nil
	}

	m.db.nextMangaID++
	id := m.db.nextMangaID
	manga.ID = id
	if manga.DateAdded.IsZero() {
		manga.DateAdded = time.Now()
	}
	m.db.mangas[id] = manga
	m.db.mangaByKey[key] = id
	return id, nil
}

func (m *Mangas) Get(ctx context.Context, id int64) (core.Manga, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	manga, ok := m.db.mangas[id]
	if !ok {
		return core.Manga{}, apperr.Newf("manga %d not found", id).AsNotFound().Error()
	}
	return manga, nil
}

func (m *Mangas) GetByNaturalKey(ctx context.Context, key core.MangaKey) (core.Manga, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	id, ok := m.db.mangaByKey[key]
	if !ok {
		return core.Manga{}, apperr.Newf("manga (%d, %s) not found", key.SourceID, key.Path).AsNotFound().Error()
	}
	return m.db.mangas[id], nil
}

func (m *Mangas) ListByIDs(ctx context.Context, ids []int64) ([]core.Manga, error) {
	m.db.mu.RLock()
	defer m.db.mu.RUnlock()
	out := make([]core.Manga, 0, len(ids))
	for _, id := range ids {
		if manga, ok := m.db.mangas[id]; ok {
			out = append(out, manga)
		}
	}
	return out, nil
}
