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

package downloadworker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
	"tanoshi/pkg/repo/memrepo"
	"tanoshi/pkg/source"
)

type fakeHost struct {
	pages      map[int64][]source.Page
	extensions map[int64]bool
	imageBytes map[string][]byte
	failURL    map[string]error
}

func (f *fakeHost) Pages(ctx context.Context, sourceID int64, path string) ([]source.Page, error) {
	return f.pages[sourceID], nil
}

func (f *fakeHost) GetSourceInfo(ctx context.Context, sourceID int64) (core.SourceInfo, error) {
	return core.SourceInfo{ID: sourceID, IsLocal: !f.extensions[sourceID]}, nil
}

func (f *fakeHost) ImageBytes(ctx context.Context, sourceID int64, url string) ([]byte, string, error) {
	if err, ok := f.failURL[url]; ok {
		return nil, "", err
	}
	return f.imageBytes[url], "image/jpeg", nil
}

func setupChapter(t *testing.T, store *memrepo.Store, sourceID int64) (mangaID, chapterID int64) {
	t.Helper()
	ctx := context.Background()
	mangaID, err := store.Mangas().Upsert(ctx, core.Manga{SourceID: sourceID, Path: "m", Title: "Manga Title"})
	require.NoError(t, err)
	chapterID, err = store.Chapters().Upsert(ctx, core.Chapter{MangaID: mangaID, SourceID: sourceID, Path: "c1", Title: "Chapter 1"})
	require.NoError(t, err)
	return mangaID, chapterID
}

func TestThreePageRoundTripProducesArchive(t *testing.T) {
	root := t.TempDir()
	store := memrepo.New()
	ctx := context.Background()

	mangaID, chapterID := setupChapter(t, store, 7)
	_ = mangaID

	host := &fakeHost{
		extensions: map[int64]bool{7: true},
		pages: map[int64][]source.Page{
			7: {{Rank: 0, URL: "u0"}, {Rank: 1, URL: "u1"}, {Rank: 2, URL: "u2"}},
		},
		imageBytes: map[string][]byte{"u0": []byte("p0"), "u1": []byte("p1"), "u2": []byte("p2")},
	}

	w := New(Options{
		DownloadRoot: root,
		Mangas:       store.Mangas(),
		Chapters:     store.Chapters(),
		Downloads:    store.Downloads(),
		Library:      store.Library(),
		Host:         host,
	})

	w.insertIntoQueue(ctx, chapterID)

	for i := 0; i < 3; i++ {
		entry, ok, err := store.Downloads().Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		w.processEntry(ctx, entry)
	}

	chapter, err := store.Chapters().Get(ctx, chapterID)
	require.NoError(t, err)
	require.NotEmpty(t, chapter.DownloadedPath)

	_, err = os.Stat(chapter.DownloadedPath)
	require.NoError(t, err)

	_, ok, err := store.Downloads().Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIdempotentOnAlreadyDownloadedChapter(t *testing.T) {
	store := memrepo.New()
	ctx := context.Background()
	_, chapterID := setupChapter(t, store, 7)

	require.NoError(t, store.Chapters().MarkDownloaded(ctx, chapterID, "/already/there.cbz"))

	w := New(Options{
		DownloadRoot: t.TempDir(),
		Mangas:       store.Mangas(),
		Chapters:     store.Chapters(),
		Downloads:    store.Downloads(),
		Library:      store.Library(),
		Host:         &fakeHost{},
	})

	w.insertIntoQueue(ctx, chapterID)

	_, ok, err := store.Downloads().Next(ctx)
	require.NoError(t, err)
	require.False(t, ok, "already-downloaded chapters must not be re-enqueued")
}

func TestPauseGatesProcessing(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".pause"), nil, 0o644))

	store := memrepo.New()
	ctx := context.Background()
	_, chapterID := setupChapter(t, store, 7)

	host := &fakeHost{
		extensions: map[int64]bool{7: true},
		pages:      map[int64][]source.Page{7: {{Rank: 0, URL: "u0"}}},
		imageBytes: map[string][]byte{"u0": []byte("p0")},
	}
	w := New(Options{
		DownloadRoot: root,
		Mangas:       store.Mangas(),
		Chapters:     store.Chapters(),
		Downloads:    store.Downloads(),
		Library:      store.Library(),
		Host:         host,
	})

	w.insertIntoQueue(ctx, chapterID)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		w.drainOnce(ctx, done)
		close(finished)
	}()

	select {
	case <-finished:
		t.Fatal("drainOnce returned while paused instead of blocking")
	case <-time.After(100 * time.Millisecond):
	}
	close(done)
	<-finished

	chapter, err := store.Chapters().Get(ctx, chapterID)
	require.NoError(t, err)
	require.Empty(t, chapter.DownloadedPath, "paused worker must not have downloaded anything")
}

func TestCancelRemovesQueueRowsAndPartFile(t *testing.T) {
	root := t.TempDir()
	store := memrepo.New()
	ctx := context.Background()
	_, chapterID := setupChapter(t, store, 7)

	host := &fakeHost{
		extensions: map[int64]bool{7: true},
		pages:      map[int64][]source.Page{7: {{Rank: 0, URL: "u0"}, {Rank: 1, URL: "u1"}}},
		imageBytes: map[string][]byte{"u0": []byte("p0")},
	}
	w := New(Options{
		DownloadRoot: root,
		Mangas:       store.Mangas(),
		Chapters:     store.Chapters(),
		Downloads:    store.Downloads(),
		Library:      store.Library(),
		Host:         host,
	})

	w.insertIntoQueue(ctx, chapterID)
	entry, ok, err := store.Downloads().Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	w.processEntry(ctx, entry) // writes page 0, leaves archive open (1 of 2 pages)

	w.cancelChapter(ctx, chapterID)

	_, ok, err = store.Downloads().Next(ctx)
	require.NoError(t, err)
	require.False(t, ok, "cancel must purge remaining queue rows")

	var partFiles []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Ext(path) == ".part" {
			partFiles = append(partFiles, path)
		}
		return nil
	})
	require.Empty(t, partFiles)
}

func TestNotFoundMarksTerminalWithoutRetry(t *testing.T) {
	store := memrepo.New()
	ctx := context.Background()
	_, chapterID := setupChapter(t, store, 7)

	host := &fakeHost{
		extensions: map[int64]bool{7: true},
		pages:      map[int64][]source.Page{7: {{Rank: 0, URL: "u0"}}},
		failURL:    map[string]error{"u0": apperr.New("missing").AsNotFound().Error()},
	}
	w := New(Options{
		DownloadRoot: t.TempDir(),
		Mangas:       store.Mangas(),
		Chapters:     store.Chapters(),
		Downloads:    store.Downloads(),
		Library:      store.Library(),
		Host:         host,
	})

	w.insertIntoQueue(ctx, chapterID)
	entry, ok, err := store.Downloads().Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	w.processEntry(ctx, entry)

	next, ok, err := store.Downloads().Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, core.TerminalPriority, next.Priority)
}
