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
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lua "github.com/yuin/gopher-lua"
)

// HostOptions configures the capabilities exposed to a plugin through the
// "host" Lua module — the versioned host-call table the design notes call
// for in place of the original's native-dylib ABI.
type HostOptions struct {
	HTTPClient *http.Client
}

func (o *HostOptions) fillDefaults() {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
}

// preloadHost registers the "host" module a plugin script requires to reach
// the outside world, mirroring the shape of libmangal's vm.Options (an
// injected HTTP client and a JSON bridge) but exposed as a preloaded Lua
// module instead of native Go bindings.
func preloadHost(L *lua.LState, opts HostOptions) {
	opts.fillDefaults()

	L.PreloadModule("host", func(L *lua.LState) int {
		mod := L.NewTable()
		L.SetFuncs(mod, map[string]lua.LGFunction{
			"http_get":    hostHTTPGet(opts),
			"json_encode": hostJSONEncode,
			"json_decode": hostJSONDecode,
			"html_select": hostHTMLSelect,
		})
		L.SetField(mod, "protocol_version", lua.LString(HostProtocolVersion))
		L.Push(mod)
		return 1
	})
}

func hostHTTPGet(opts HostOptions) lua.LGFunction {
	return func(L *lua.LState) int {
		url := L.CheckString(1)

		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			L.Push(lua.LString(""))
			L.Push(lua.LNumber(0))
			L.Push(lua.LString(err.Error()))
			return 3
		}

		resp, err := opts.HTTPClient.Do(req)
		if err != nil {
			L.Push(lua.LString(""))
			L.Push(lua.LNumber(0))
			L.Push(lua.LString(err.Error()))
			return 3
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			L.Push(lua.LString(""))
			L.Push(lua.LNumber(resp.StatusCode))
			L.Push(lua.LString(err.Error()))
			return 3
		}

		L.Push(lua.LString(body))
		L.Push(lua.LNumber(resp.StatusCode))
		L.Push(lua.LString(""))
		return 3
	}
}

func hostJSONEncode(L *lua.LState) int {
	v := toGoValue(L.CheckAny(1))
	b, err := json.Marshal(v)
	if err != nil {
		L.Push(lua.LString(""))
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(b))
	L.Push(lua.LNil)
	return 2
}

func hostJSONDecode(L *lua.LState) int {
	s := L.CheckString(1)
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(fromGoValue(L, v))
	L.Push(lua.LNil)
	return 2
}

// hostHTMLSelect lets a plugin script scrape an HTML-only source without
// shipping its own parser: it runs a CSS selector against a document and
// returns an array of {text, html, attrs} tables, one per match. This is
// the sandboxed-plugin replacement for the teacher's compile-time DOM
// scraping (engine/dom.go, pkg/engine/parser/html_parser.go) — the same
// goquery-style selection, reachable from inside the Lua sandbox instead of
// linked directly into the host binary.
func hostHTMLSelect(L *lua.LState) int {
	html := L.CheckString(1)
	selector := L.CheckString(2)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	results := L.NewTable()
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		node := L.NewTable()
		node.RawSetString("text", lua.LString(strings.TrimSpace(sel.Text())))
		outer, _ := goquery.OuterHtml(sel)
		node.RawSetString("html", lua.LString(outer))

		attrs := L.NewTable()
		if len(sel.Nodes) > 0 {
			for _, a := range sel.Nodes[0].Attr {
				attrs.RawSetString(a.Key, lua.LString(a.Val))
			}
		}
		node.RawSetString("attrs", attrs)

		results.Append(node)
	})

	L.Push(results)
	L.Push(lua.LNil)
	return 2
}
