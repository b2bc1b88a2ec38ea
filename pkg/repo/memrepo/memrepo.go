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

// Package memrepo is the in-memory reference implementation of pkg/repo,
// used by the test suite in place of a SQL-backed store (all database SQL
// is out of scope; the on-disk schema is never specified). Plain maps
// guarded by sync.RWMutex are the correct "nothing to wire a driver to"
// case, grounded on the teacher's in-process registry style
// (agents/registry.go) generalized to five independent collections with
// their own surrogate-id counters.
//
// db holds the shared tables; Mangas, Chapters, Downloads, Library and
// Users are thin views over the same db that each implement exactly one
// pkg/repo interface, which lets every view use the interface's own method
// names (MangaRepo.Upsert and ChapterRepo.Upsert both just "Upsert")
// without colliding on a single Go type.
package memrepo

import (
	"sync"

	"tanoshi/pkg/core"
)

type db struct {
	mu sync.RWMutex

	mangas      map[int64]core.Manga
	mangaByKey  map[core.MangaKey]int64
	nextMangaID int64

	chapters      map[int64]core.Chapter
	chapterByKey  map[core.ChapterKey]int64
	chaptersByMga map[int64][]int64
	nextChapterID int64

	queue map[queueKey]core.DownloadQueueEntry

	memberships map[membershipKey]core.LibraryMembership
	categories  map[int64]core.Category
	nextCatID   int64

	users map[int64]core.User
}

type queueKey struct {
	ChapterID int64
	PageRank  int
}

type membershipKey struct {
	UserID  int64
	MangaID int64
}

func newDB() *db {
	return &db{
		mangas:        make(map[int64]core.Manga),
		mangaByKey:    make(map[core.MangaKey]int64),
		chapters:      make(map[int64]core.Chapter),
		chapterByKey:  make(map[core.ChapterKey]int64),
		chaptersByMga: make(map[int64][]int64),
		queue:         make(map[queueKey]core.DownloadQueueEntry),
		memberships:   make(map[membershipKey]core.LibraryMembership),
		categories:    make(map[int64]core.Category),
		users:         make(map[int64]core.User),
	}
}

// Store is a handle on one shared set of in-memory tables. Mangas,
// Chapters, Downloads, Library and Users return the pkg/repo-interface
// views over it.
type Store struct {
	db *db
}

// New builds an empty Store.
func New() *Store {
	return &Store{db: newDB()}
}

func (s *Store) Mangas() *Mangas       { return &Mangas{db: s.db} }
func (s *Store) Chapters() *Chapters   { return &Chapters{db: s.db} }
func (s *Store) Downloads() *Downloads { return &Downloads{db: s.db} }
func (s *Store) Library() *Library     { return &Library{db: s.db} }
func (s *Store) Users() *Users         { return &Users{db: s.db} }

// SeedUser inserts a user directly, bypassing the UserRepo interface (which
// has no Create method by design) — used by tests to set up fixtures.
func (s *Store) SeedUser(u core.User) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.users[u.ID] = u
}

// SeedCategory inserts a category directly, for the same reason.
func (s *Store) SeedCategory(userID int64, name string) int64 {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextCatID++
	id := s.db.nextCatID
	s.db.categories[id] = core.Category{ID: id, UserID: userID, Name: name}
	return id
}

