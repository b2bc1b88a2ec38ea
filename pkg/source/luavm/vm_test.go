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

package luavm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"tanoshi/pkg/apperr"
)

func TestLoadAndListPopular(t *testing.T) {
	a, err := Load(42, "testdata/demo.lua", HostOptions{})
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, "Demo", a.Info().Name)
	require.Equal(t, int64(42), a.Info().ID)

	mangas, err := a.ListPopular(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	require.Equal(t, "Demo Manga", mangas[0].Title)
	require.Equal(t, int64(42), mangas[0].SourceID)
}

func TestChaptersPagesImageBytes(t *testing.T) {
	a, err := Load(42, "testdata/demo.lua", HostOptions{})
	require.NoError(t, err)
	defer a.Close()

	chapters, err := a.Chapters(context.Background(), "demo-manga")
	require.NoError(t, err)
	require.Len(t, chapters, 1)

	pages, err := a.Pages(context.Background(), chapters[0].Path)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	data, ct, err := a.ImageBytes(context.Background(), pages[0].URL)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", ct)
	require.Equal(t, []byte("hello"), data)
}

func TestLoadRejectsIncompatibleVersion(t *testing.T) {
	_, err := Load(43, "testdata/incompatible.lua", HostOptions{})
	require.Error(t, err)
	require.Equal(t, apperr.KindIncompatibleVersion, apperr.KindOf(err))
}

func TestHostHTMLSelectScrapesMarkup(t *testing.T) {
	a, err := Load(44, "testdata/htmlscrape.lua", HostOptions{})
	require.NoError(t, err)
	defer a.Close()

	mangas, err := a.ListPopular(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mangas, 2)
	require.Equal(t, "one", mangas[0].Path)
	require.Equal(t, "One-Punch Manga", mangas[0].Title)
	require.Equal(t, "two", mangas[1].Path)
}
