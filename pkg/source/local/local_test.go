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

package local

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"tanoshi/pkg/core"
)

func writeCBZ(t *testing.T, fs afero.Fs, fullPath string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, afero.WriteFile(fs, fullPath, buf.Bytes(), 0644))
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/library/One Piece", 0755))
	writeCBZ(t, fs, "/library/One Piece/Chapter 1.cbz", map[string]string{
		"001.jpg": "a", "002.jpg": "b",
	})
	a, err := New(core.LocalSourceIDFloor, "Local", "/library", fs)
	require.NoError(t, err)
	return a
}

func TestListPopularFindsFolders(t *testing.T) {
	a := newTestAdapter(t)
	mangas, err := a.ListPopular(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	require.Equal(t, "One Piece", mangas[0].Title)
}

func TestChaptersAndPagesRoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	chapters, err := a.Chapters(context.Background(), "One Piece")
	require.NoError(t, err)
	require.Len(t, chapters, 1)

	pages, err := a.Pages(context.Background(), chapters[0].Path)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, 0, pages[0].Rank)

	data, ct, err := a.ImageBytes(context.Background(), pages[0].URL)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", ct)
	require.Equal(t, []byte("a"), data)
}

func TestNewRejectsIDBelowFloor(t *testing.T) {
	_, err := New(5, "bad", "/library", afero.NewMemMapFs())
	require.Error(t, err)
}
