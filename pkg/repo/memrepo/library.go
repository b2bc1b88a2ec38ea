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

	"tanoshi/pkg/core"
)

// Library implements repo.LibraryRepo over a shared db.
type Library struct{ db *db }

func (l *Library) Add(ctx context.Context, userID, mangaID int64, categories []int64) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	l.db.memberships[membershipKey{UserID: userID, MangaID: mangaID}] = core.LibraryMembership{
		UserID: userID, MangaID: mangaID, Categories: categories,
	}
	return nil
}

func (l *Library) Remove(ctx context.Context, userID, mangaID int64) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	delete(l.db.memberships, membershipKey{UserID: userID, MangaID: mangaID})
	return nil
}

func (l *Library) ListMangaIDs(ctx context.Context) ([]int64, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()
	seen := make(map[int64]bool)
	var out []int64
	for _, m := range l.db.memberships {
		if !seen[m.MangaID] {
			seen[m.MangaID] = true
			out = append(out, m.MangaID)
		}
	}
	return out, nil
}

func (l *Library) ListUsersFollowing(ctx context.Context, mangaID int64) ([]int64, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()
	var out []int64
	for _, m := range l.db.memberships {
		if m.MangaID == mangaID {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

func (l *Library) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	l.db.mu.RLock()
	defer l.db.mu.RUnlock()
	var out []core.Category
	for _, c := range l.db.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}
