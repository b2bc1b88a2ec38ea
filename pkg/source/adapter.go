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

// Package source defines the Adapter capability: the operations the
// Extension Host dispatches to every loaded content source, whether it is
// the built-in Local adapter or a dynamically loaded plugin.
package source

import (
	"context"

	"tanoshi/pkg/core"
)

// Page is a single fetchable page of a chapter, in display order.
type Page struct {
	Rank int    `json:"rank"`
	URL  string `json:"url"`
}

// SearchFilters is the adapter-agnostic bag of filter values a client
// selected from the adapter's FilterList() schema.
type SearchFilters map[string]string

// Adapter is implemented by every loadable content source: the built-in
// Local folder reader (pkg/source/local) and every Lua-scripted plugin
// (pkg/source/luavm).
type Adapter interface {
	Info() core.SourceInfo

	// ListPopular and ListLatest page through an adapter's catalogue.
	ListPopular(ctx context.Context, page int) ([]core.Manga, error)
	ListLatest(ctx context.Context, page int) ([]core.Manga, error)
	Search(ctx context.Context, page int, query string, filters SearchFilters) ([]core.Manga, error)

	// MangaDetail fetches full metadata for one manga addressed by its
	// source-relative path.
	MangaDetail(ctx context.Context, path string) (*core.Manga, error)
	// Chapters returns the full chapter list for the manga at path, in no
	// particular order — callers sort/diff as needed.
	Chapters(ctx context.Context, path string) ([]core.Chapter, error)
	// Pages returns the ordered page list for the chapter at path.
	Pages(ctx context.Context, path string) ([]Page, error)
	// ImageBytes fetches one page/cover image, letting the adapter inject
	// auth headers the proxy itself wouldn't have.
	ImageBytes(ctx context.Context, url string) ([]byte, string, error)

	FilterList() []core.FilterField
	Preferences() []core.PreferenceField
	SetPreferences(values map[string]string) error
}
