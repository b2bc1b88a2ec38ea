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

import "tanoshi/pkg/source"

// slotState is the per-adapter state machine from the design:
// Empty -> Loaded(prefsApplied=false) -> Loaded(prefsApplied=true) -> Empty.
// Transitions are only ever performed by the dispatcher goroutine, so no
// locking is needed around slot mutation itself.
type slotState int

const (
	stateEmpty slotState = iota
	stateLoaded
)

type slot struct {
	state        slotState
	adapter      source.Adapter
	prefsApplied bool
	scriptPath   string // empty for in-process (e.g. Local) adapters
}
