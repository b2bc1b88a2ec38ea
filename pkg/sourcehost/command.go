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

package sourcehost

import (
	"context"

	"tanoshi/pkg/core"
	"tanoshi/pkg/source"
)

// opKind tags a command with the operation the dispatcher should perform.
// stateOps are executed inline on the dispatcher goroutine (serializing
// them against any in-flight call for that source); fetchOps are handed to
// the worker pool so multiple sources (and multiple calls to the same
// source) proceed in parallel.
type opKind int

const (
	opInsert opKind = iota
	opUnload
	opUninstall
	opSetPreferences
	opList
	opInfo

	opPopular
	opLatest
	opSearch
	opMangaDetail
	opChapters
	opPages
	opImageBytes
	opFilterList
	opGetPreferences
)

func (k opKind) isStateOp() bool {
	switch k {
	case opInsert, opUnload, opUninstall, opSetPreferences, opList, opInfo:
		return true
	default:
		return false
	}
}

// result is what every command eventually receives on its reply channel.
type result struct {
	value interface{}
	err   error
}

// command is the single envelope type carried over the Host's inbound
// channel; exactly one field group is populated depending on kind.
type command struct {
	ctx  context.Context
	kind opKind

	sourceID int64

	// insert
	adapter    source.Adapter
	info       core.SourceInfo
	scriptPath string

	// fetch-op inputs
	page    int
	query   string
	filters source.SearchFilters
	path    string
	url     string

	// preferences
	prefValues map[string]string

	reply chan result
}

func newCommand(ctx context.Context, kind opKind, sourceID int64) *command {
	return &command{ctx: ctx, kind: kind, sourceID: sourceID, reply: make(chan result, 1)}
}
