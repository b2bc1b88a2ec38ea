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

// Package local implements the built-in Local source.Adapter: it reads
// manga as folders and chapters as .cbz archives directly from a
// filesystem root, reserved to source ids >= core.LocalSourceIDFloor.
//
// Grounded on the afero.Fs abstraction used throughout the libmangal
// example (vm.Options.FS) so the adapter is testable against an in-memory
// filesystem without touching disk.
package local

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
	"tanoshi/pkg/source"
)

// Adapter reads manga from <root>/<manga-title>/<chapter-title>.cbz.
type Adapter struct {
	id   int64
	name string
	root string
	fs   afero.Fs

	mu    sync.RWMutex
	prefs map[string]string
}

// New builds a Local adapter rooted at root, backed by fs.
func New(id int64, name, root string, fs afero.Fs) (*Adapter, error) {
	if id < core.LocalSourceIDFloor {
		return nil, apperr.Newf("local source id %d below reserved floor %d", id, core.LocalSourceIDFloor).AsBadInput().Error()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Adapter{id: id, name: name, root: root, fs: fs, prefs: map[string]string{}}, nil
}

func (a *Adapter) Info() core.SourceInfo {
	return core.SourceInfo{ID: a.id, Name: a.name, Version: "1.0.0", IsLocal: true}
}

var chapterNumberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

func (a *Adapter) mangaDirs() ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.root)
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithOp("local.mangaDirs").Error()
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (a *Adapter) mangaFromDir(name string) core.Manga {
	return core.Manga{
		SourceID: a.id,
		Path:     name,
		Title:    name,
	}
}

func (a *Adapter) ListPopular(_ context.Context, page int) ([]core.Manga, error) {
	return a.paginate(page)
}

func (a *Adapter) ListLatest(_ context.Context, page int) ([]core.Manga, error) {
	return a.paginate(page)
}

const pageSize = 20

func (a *Adapter) paginate(page int) ([]core.Manga, error) {
	dirs, err := a.mangaDirs()
	if err != nil {
		return nil, err
	}
	start := (page - 1) * pageSize
	if start < 0 || start >= len(dirs) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(dirs) {
		end = len(dirs)
	}
	out := make([]core.Manga, 0, end-start)
	for _, d := range dirs[start:end] {
		out = append(out, a.mangaFromDir(d))
	}
	return out, nil
}

func (a *Adapter) Search(_ context.Context, page int, query string, _ source.SearchFilters) ([]core.Manga, error) {
	dirs, err := a.mangaDirs()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var matched []string
	for _, d := range dirs {
		if q == "" || strings.Contains(strings.ToLower(d), q) {
			matched = append(matched, d)
		}
	}
	start := (page - 1) * pageSize
	if start < 0 || start >= len(matched) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]core.Manga, 0, end-start)
	for _, d := range matched[start:end] {
		out = append(out, a.mangaFromDir(d))
	}
	return out, nil
}

func (a *Adapter) MangaDetail(_ context.Context, mangaPath string) (*core.Manga, error) {
	info, err := a.fs.Stat(path.Join(a.root, mangaPath))
	if err != nil || !info.IsDir() {
		return nil, apperr.Newf("manga %q not found under local root", mangaPath).AsNotFound().Error()
	}
	m := a.mangaFromDir(mangaPath)
	return &m, nil
}

func (a *Adapter) Chapters(_ context.Context, mangaPath string) ([]core.Chapter, error) {
	dir := path.Join(a.root, mangaPath)
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return nil, apperr.Newf("manga %q not found under local root", mangaPath).AsNotFound().Error()
	}

	var chapters []core.Chapter
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".cbz") {
			continue
		}
		title := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		number := 0.0
		if m := chapterNumberPattern.FindString(title); m != "" {
			number, _ = strconv.ParseFloat(m, 64)
		}
		chapters = append(chapters, core.Chapter{
			SourceID: a.id,
			Path:     path.Join(mangaPath, e.Name()),
			Title:    title,
			Number:   number,
			Uploaded: e.ModTime(),
		})
	}
	return chapters, nil
}

// PageURLScheme is the delimiter Local uses to address an entry inside an
// archive in a Page.URL: "<archive-relative-path>!<inner-filename>".
const PageURLScheme = "!"

func (a *Adapter) Pages(_ context.Context, chapterPath string) ([]source.Page, error) {
	names, err := a.archiveEntries(chapterPath)
	if err != nil {
		return nil, err
	}
	pages := make([]source.Page, 0, len(names))
	for i, name := range names {
		pages = append(pages, source.Page{Rank: i, URL: chapterPath + PageURLScheme + name})
	}
	return pages, nil
}

func (a *Adapter) archiveEntries(chapterPath string) ([]string, error) {
	f, err := a.fs.Open(path.Join(a.root, chapterPath))
	if err != nil {
		return nil, apperr.Newf("chapter archive %q not found", chapterPath).AsNotFound().Error()
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperr.Track(err).AsIO().Error()
	}

	zr, err := zip.NewReader(f.(io.ReaderAt), info.Size())
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithDetail("corrupt cbz archive").Error()
	}

	var names []string
	for _, zf := range zr.File {
		if !zf.FileInfo().IsDir() {
			names = append(names, zf.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *Adapter) ImageBytes(_ context.Context, url string) ([]byte, string, error) {
	chapterPath, inner, ok := strings.Cut(url, PageURLScheme)
	if !ok {
		return nil, "", apperr.Newf("malformed local page url %q", url).AsBadInput().Error()
	}

	f, err := a.fs.Open(path.Join(a.root, chapterPath))
	if err != nil {
		return nil, "", apperr.Newf("chapter archive %q not found", chapterPath).AsNotFound().Error()
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", apperr.Track(err).AsIO().Error()
	}

	zr, err := zip.NewReader(f.(io.ReaderAt), info.Size())
	if err != nil {
		return nil, "", apperr.Track(err).AsIO().Error()
	}

	for _, zf := range zr.File {
		if zf.Name == inner {
			rc, err := zf.Open()
			if err != nil {
				return nil, "", apperr.Track(err).AsIO().Error()
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, "", apperr.Track(err).AsIO().Error()
			}
			return data, contentTypeFromName(inner), nil
		}
	}
	return nil, "", apperr.Newf("entry %q not found in %q", inner, chapterPath).AsNotFound().Error()
}

func contentTypeFromName(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (a *Adapter) FilterList() []core.FilterField { return nil }

func (a *Adapter) Preferences() []core.PreferenceField {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return []core.PreferenceField{{Name: "root", Label: "Folder path", Type: "text", Default: a.root}}
}

func (a *Adapter) SetPreferences(values map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range values {
		a.prefs[k] = v
	}
	if v, ok := values["root"]; ok && v != "" {
		a.root = v
	}
	return nil
}

var _ source.Adapter = (*Adapter)(nil)
