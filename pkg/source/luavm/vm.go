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

// Package luavm implements the Extension Host's dynamically loadable
// plugin sandbox. Grounded on vm/vm.go in the libmangal example (a
// gopher-lua state preloaded with injected capabilities), it replaces the
// original system's native-dylib-plus-rustc_version coupling with the
// design note's suggested alternative: a scripting sandbox and a semver
// check against a versioned host-call table, instead of a compiler ABI.
package luavm

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/mod/semver"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
	"tanoshi/pkg/source"
)

// HostProtocolVersion is the semver of the host-call table this build
// exposes to plugins. A plugin's declared lib_version must share the same
// major version, the RPC-schema analogue of the original's rustc_version
// check (see design notes).
const HostProtocolVersion = "1.0.0"

// Adapter wraps a single loaded Lua script. A *lua.LState is not safe for
// concurrent use, so every call is serialized on mu — the Extension Host's
// worker pool may run many adapters concurrently, but never two calls
// against the same Lua adapter at once.
type Adapter struct {
	mu   sync.Mutex
	L    *lua.LState
	info core.SourceInfo
}

// Load compiles and executes scriptPath in a fresh sandboxed state, checks
// its declared lib_version against HostProtocolVersion, and returns a ready
// Adapter. Matches the Extension Host's load_all/install contract: failure
// here surfaces as IO (unreadable script), IncompatibleVersion or
// AdapterFailure and never panics.
func Load(id int64, scriptPath string, opts HostOptions) (*Adapter, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithOp("luavm.Load").Error()
	}

	L := lua.NewState()
	preloadHost(L, opts)

	if err := L.DoString(string(data)); err != nil {
		L.Close()
		return nil, apperr.Track(err).AsAdapterFailure().WithDetail("script failed to evaluate").Error()
	}

	libVersion, ok := L.GetGlobal("lib_version").(lua.LString)
	if !ok || string(libVersion) == "" {
		L.Close()
		return nil, apperr.New("plugin does not declare lib_version").AsIncompatibleVersion().Error()
	}
	if !compatible(string(libVersion)) {
		L.Close()
		return nil, apperr.Newf("plugin lib_version %s incompatible with host protocol %s", libVersion, HostProtocolVersion).AsIncompatibleVersion().Error()
	}

	name := "plugin"
	if n, ok := L.GetGlobal("name").(lua.LString); ok && n != "" {
		name = string(n)
	}
	url := ""
	if u, ok := L.GetGlobal("site_url").(lua.LString); ok {
		url = string(u)
	}

	return &Adapter{
		L: L,
		info: core.SourceInfo{
			ID:      id,
			Name:    name,
			Version: string(libVersion),
			URL:     url,
		},
	}, nil
}

func compatible(libVersion string) bool {
	lv, hv := libVersion, HostProtocolVersion
	if !strings.HasPrefix(lv, "v") {
		lv = "v" + lv
	}
	if !strings.HasPrefix(hv, "v") {
		hv = "v" + hv
	}
	if !semver.IsValid(lv) || !semver.IsValid(hv) {
		return false
	}
	return semver.Major(lv) == semver.Major(hv)
}

// Close tears down the Lua state. Safe to call once per Adapter.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.L.Close()
	return nil
}

func (a *Adapter) Info() core.SourceInfo { return a.info }

// call invokes a global Lua function by name, protected so a script panic
// surfaces as an error instead of crashing the host process, and decodes
// its single return value into out via a JSON round-trip.
func (a *Adapter) call(name string, args []lua.LValue, out interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	fn := a.L.GetGlobal(name)
	if fn == lua.LNil {
		return apperr.Newf("plugin function %q not defined", name).AsAdapterFailure().Error()
	}

	if err := a.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return apperr.Track(err).AsAdapterFailure().WithOp(name).Error()
	}
	ret := a.L.Get(-1)
	a.L.Pop(1)

	if out == nil {
		return nil
	}
	b, err := json.Marshal(toGoValue(ret))
	if err != nil {
		return apperr.Track(err).AsAdapterFailure().WithOp(name).Error()
	}
	if err := json.Unmarshal(b, out); err != nil {
		return apperr.Track(err).AsAdapterFailure().WithOp(name).WithDetail("unexpected return shape").Error()
	}
	return nil
}

func (a *Adapter) ListPopular(_ context.Context, page int) ([]core.Manga, error) {
	var mangas []core.Manga
	if err := a.call("list_popular", []lua.LValue{lua.LNumber(page)}, &mangas); err != nil {
		return nil, err
	}
	return a.withSourceID(mangas), nil
}

func (a *Adapter) ListLatest(_ context.Context, page int) ([]core.Manga, error) {
	var mangas []core.Manga
	if err := a.call("list_latest", []lua.LValue{lua.LNumber(page)}, &mangas); err != nil {
		return nil, err
	}
	return a.withSourceID(mangas), nil
}

func (a *Adapter) Search(_ context.Context, page int, query string, filters source.SearchFilters) ([]core.Manga, error) {
	filterJSON, _ := json.Marshal(filters)
	var mangas []core.Manga
	args := []lua.LValue{lua.LNumber(page), lua.LString(query), lua.LString(filterJSON)}
	if err := a.call("search", args, &mangas); err != nil {
		return nil, err
	}
	return a.withSourceID(mangas), nil
}

func (a *Adapter) MangaDetail(_ context.Context, path string) (*core.Manga, error) {
	var m core.Manga
	if err := a.call("manga_detail", []lua.LValue{lua.LString(path)}, &m); err != nil {
		return nil, err
	}
	m.SourceID = a.info.ID
	return &m, nil
}

func (a *Adapter) Chapters(_ context.Context, path string) ([]core.Chapter, error) {
	var chapters []core.Chapter
	if err := a.call("chapters", []lua.LValue{lua.LString(path)}, &chapters); err != nil {
		return nil, err
	}
	for i := range chapters {
		chapters[i].SourceID = a.info.ID
	}
	return chapters, nil
}

func (a *Adapter) Pages(_ context.Context, path string) ([]source.Page, error) {
	var pages []source.Page
	if err := a.call("pages", []lua.LValue{lua.LString(path)}, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

func (a *Adapter) ImageBytes(_ context.Context, url string) ([]byte, string, error) {
	var result struct {
		DataBase64  string `json:"data_base64"`
		ContentType string `json:"content_type"`
	}
	if err := a.call("image_bytes", []lua.LValue{lua.LString(url)}, &result); err != nil {
		return nil, "", err
	}
	data, err := decodeBase64(result.DataBase64)
	if err != nil {
		return nil, "", apperr.Track(err).AsAdapterFailure().WithOp("image_bytes").Error()
	}
	return data, result.ContentType, nil
}

func (a *Adapter) FilterList() []core.FilterField {
	var fields []core.FilterField
	_ = a.call("filter_list", nil, &fields)
	return fields
}

func (a *Adapter) Preferences() []core.PreferenceField {
	var fields []core.PreferenceField
	_ = a.call("preferences", nil, &fields)
	return fields
}

func (a *Adapter) SetPreferences(values map[string]string) error {
	b, _ := json.Marshal(values)
	return a.call("set_preferences", []lua.LValue{lua.LString(b)}, nil)
}

func (a *Adapter) withSourceID(mangas []core.Manga) []core.Manga {
	for i := range mangas {
		mangas[i].SourceID = a.info.ID
	}
	return mangas
}

var _ source.Adapter = (*Adapter)(nil)
