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

import lua "github.com/yuin/gopher-lua"

// toGoValue converts a Lua value returned from a script into a plain Go
// value built only from the types encoding/json understands, so callers
// can round-trip it through json.Marshal into a typed core.* struct.
func toGoValue(lv lua.LValue) interface{} {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		n := v.Len()
		if n > 0 {
			arr := make([]interface{}, 0, n)
			for i := 1; i <= n; i++ {
				arr = append(arr, toGoValue(v.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]interface{}{}
		v.ForEach(func(k, val lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(val)
			}
		})
		return m
	default:
		return nil
	}
}

// fromGoValue is the inverse of toGoValue, used by the host's json_decode
// call-table entry to hand a script a Lua table built from arbitrary JSON.
func fromGoValue(L *lua.LState, v interface{}) lua.LValue {
	switch vv := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(vv)
	case float64:
		return lua.LNumber(vv)
	case int:
		return lua.LNumber(vv)
	case string:
		return lua.LString(vv)
	case []interface{}:
		t := L.NewTable()
		for _, item := range vv {
			t.Append(fromGoValue(L, item))
		}
		return t
	case map[string]interface{}:
		t := L.NewTable()
		for k, item := range vv {
			t.RawSetString(k, fromGoValue(L, item))
		}
		return t
	default:
		return lua.LNil
	}
}
