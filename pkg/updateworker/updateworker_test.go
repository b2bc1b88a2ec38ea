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

package updateworker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tanoshi/pkg/core"
	"tanoshi/pkg/repo/memrepo"
)

type fakeHost struct {
	byManga map[int64][]core.Chapter
	err     map[int64]error
}

func (f *fakeHost) Chapters(ctx context.Context, sourceID int64, path string) ([]core.Chapter, error) {
	for mangaID, err := range f.err {
		_ = mangaID
		if err != nil {
			return nil, err
		}
	}
	return f.byManga[sourceID], nil
}

func setupLibrary(t *testing.T, store *memrepo.Store, userID, mangaID int64) {
	t.Helper()
	require.NoError(t, store.Library().Add(context.Background(), userID, mangaID, nil))
}

func TestRefreshOneEmitsOnlyStrictlyNewerChapters(t *testing.T) {
	store := memrepo.New()
	ctx := context.Background()

	mangaID, err := store.Mangas().Upsert(ctx, core.Manga{SourceID: 1, Path: "demo"})
	require.NoError(t, err)
	setupLibrary(t, store, 1, mangaID)

	old := time.Now().Add(-24 * time.Hour)
	_, err = store.Chapters().Upsert(ctx, core.Chapter{MangaID: mangaID, SourceID: 1, Path: "c1", Uploaded: old})
	require.NoError(t, err)

	newer := time.Now()
	host := &fakeHost{byManga: map[int64][]core.Chapter{
		1: {
			{SourceID: 1, Path: "c1", Uploaded: old},   // unchanged
			{SourceID: 1, Path: "c2", Uploaded: newer}, // new
		},
	}}

	w := New(Options{
		Mangas:   store.Mangas(),
		Chapters: store.Chapters(),
		Library:  store.Library(),
		Host:     host,
	})

	sub, cancel := w.Subscribe()
	defer cancel()

	w.refreshOne(ctx, mangaID)

	select {
	case update := <-sub:
		require.Equal(t, mangaID, update.MangaID)
	case <-time.After(time.Second):
		t.Fatal("expected a broadcast for the new chapter")
	}

	select {
	case update := <-sub:
		t.Fatalf("unexpected second broadcast: %+v", update)
	default:
	}
}

func TestPerMangaFailureIsolation(t *testing.T) {
	store := memrepo.New()
	ctx := context.Background()

	goodID, err := store.Mangas().Upsert(ctx, core.Manga{SourceID: 1, Path: "good"})
	require.NoError(t, err)
	badID, err := store.Mangas().Upsert(ctx, core.Manga{SourceID: 2, Path: "bad"})
	require.NoError(t, err)
	setupLibrary(t, store, 1, goodID)
	setupLibrary(t, store, 1, badID)

	host := &brokenSourceHost{failSourceID: 2, ok: map[int64][]core.Chapter{
		1: {{SourceID: 1, Path: "c1", Uploaded: time.Now()}},
	}}

	w := New(Options{
		Mangas:   store.Mangas(),
		Chapters: store.Chapters(),
		Library:  store.Library(),
		Host:     host,
	})

	w.refreshAll(ctx)

	chapters, err := store.Chapters().ListByManga(ctx, goodID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)

	chapters, err = store.Chapters().ListByManga(ctx, badID)
	require.NoError(t, err)
	require.Empty(t, chapters)
}

type brokenSourceHost struct {
	failSourceID int64
	ok           map[int64][]core.Chapter
}

func (b *brokenSourceHost) Chapters(ctx context.Context, sourceID int64, path string) ([]core.Chapter, error) {
	if sourceID == b.failSourceID {
		return nil, errors.New("upstream down")
	}
	return b.ok[sourceID], nil
}
