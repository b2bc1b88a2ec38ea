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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tanoshi/pkg/core"
)

func TestMangaUpsertPreservesIDAndDateAdded(t *testing.T) {
	store := New()
	mangas := store.Mangas()
	ctx := context.Background()

	id1, err := mangas.Upsert(ctx, core.Manga{SourceID: 1, Path: "a", Title: "A"})
	require.NoError(t, err)

	first, err := mangas.Get(ctx, id1)
	require.NoError(t, err)

	id2, err := mangas.Upsert(ctx, core.Manga{SourceID: 1, Path: "a", Title: "A renamed"})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	second, err := mangas.Get(ctx, id2)
	require.NoError(t, err)
	require.Equal(t, first.DateAdded, second.DateAdded)
	require.Equal(t, "A renamed", second.Title)
}

func TestChapterMaxUploadedDelta(t *testing.T) {
	store := New()
	chapters := store.Chapters()
	ctx := context.Background()

	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now()

	_, err := chapters.Upsert(ctx, core.Chapter{MangaID: 1, SourceID: 1, Path: "c1", Uploaded: older})
	require.NoError(t, err)

	max, ok, err := chapters.MaxUploaded(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, max.Equal(older))

	_, err = chapters.Upsert(ctx, core.Chapter{MangaID: 1, SourceID: 1, Path: "c2", Uploaded: newer})
	require.NoError(t, err)

	max, ok, err = chapters.MaxUploaded(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, max.Equal(newer))
}

func TestDownloadQueueOrdering(t *testing.T) {
	store := New()
	downloads := store.Downloads()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, downloads.Enqueue(ctx, []core.DownloadQueueEntry{
		{ChapterID: 1, PageRank: 0, Priority: 5, DateAdded: base},
		{ChapterID: 2, PageRank: 0, Priority: 1, DateAdded: base.Add(time.Second)},
	}))

	next, ok, err := downloads.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(2), next.ChapterID)

	require.NoError(t, downloads.Remove(ctx, 2, 0))
	next, ok, err = downloads.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), next.ChapterID)
}

func TestDownloadQueueEnqueueIsIdempotentPerEntry(t *testing.T) {
	store := New()
	downloads := store.Downloads()
	ctx := context.Background()

	require.NoError(t, downloads.Enqueue(ctx, []core.DownloadQueueEntry{{ChapterID: 1, PageRank: 0, Priority: 5}}))
	require.NoError(t, downloads.Enqueue(ctx, []core.DownloadQueueEntry{{ChapterID: 1, PageRank: 0, Priority: 99}}))

	next, ok, err := downloads.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(5), next.Priority)
}

func TestLibraryMembershipAndFollowers(t *testing.T) {
	store := New()
	library := store.Library()
	ctx := context.Background()

	require.NoError(t, library.Add(ctx, 1, 100, nil))
	require.NoError(t, library.Add(ctx, 2, 100, nil))

	ids, err := library.ListMangaIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{100}, ids)

	followers, err := library.ListUsersFollowing(ctx, 100)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 2}, followers)

	require.NoError(t, library.Remove(ctx, 1, 100))
	followers, err = library.ListUsersFollowing(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, followers)
}
