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
	"sort"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
	"tanoshi/pkg/source"
)

// executeStateOp runs a state-mutating or metadata command inline on the
// dispatcher goroutine. Because Run never reads the next inbound command
// until this returns, two state ops (or a state op and the resolution step
// of a fetch op) for the same source can never interleave.
func (h *Host) executeStateOp(cmd *command) {
	switch cmd.kind {
	case opInsert:
		h.doInsert(cmd)
	case opUnload:
		h.doUnload(cmd)
	case opUninstall:
		h.doUninstall(cmd)
	case opSetPreferences:
		h.doSetPreferences(cmd)
	case opList:
		h.doList(cmd)
	case opInfo:
		h.doInfo(cmd)
	default:
		cmd.reply <- result{err: apperr.Newf("unknown state op %d", cmd.kind).AsAdapterFailure().Error()}
	}
}

func (h *Host) doInsert(cmd *command) {
	id := cmd.adapter.Info().ID
	if existing, ok := h.adapters[id]; ok {
		if closer, ok := existing.adapter.(interface{ Close() error }); ok {
			closer.Close()
		}
	}
	h.adapters[id] = &slot{
		state:      stateLoaded,
		adapter:    cmd.adapter,
		scriptPath: cmd.scriptPath,
	}
	h.log.Info("source %d (%s) loaded", id, cmd.adapter.Info().Name)
	cmd.reply <- result{value: cmd.adapter.Info()}
}

func (h *Host) doUnload(cmd *command) {
	s, ok := h.adapters[cmd.sourceID]
	if !ok {
		cmd.reply <- result{err: apperr.Newf("source %d not loaded", cmd.sourceID).AsNotFound().Error()}
		return
	}
	if closer, ok := s.adapter.(interface{ Close() error }); ok {
		closer.Close()
	}
	delete(h.adapters, cmd.sourceID)
	cmd.reply <- result{}
}

// doUninstall unloads the adapter and reports the script path so the caller
// (the admin install/uninstall command) can remove the plugin file from
// disk; in-process adapters such as Local report an empty path and the
// caller treats that as "nothing to delete".
func (h *Host) doUninstall(cmd *command) {
	s, ok := h.adapters[cmd.sourceID]
	if !ok {
		cmd.reply <- result{err: apperr.Newf("source %d not loaded", cmd.sourceID).AsNotFound().Error()}
		return
	}
	scriptPath := s.scriptPath
	if closer, ok := s.adapter.(interface{ Close() error }); ok {
		closer.Close()
	}
	delete(h.adapters, cmd.sourceID)
	cmd.reply <- result{value: scriptPath}
}

func (h *Host) doSetPreferences(cmd *command) {
	s, ok := h.adapters[cmd.sourceID]
	if !ok {
		cmd.reply <- result{err: apperr.Newf("source %d not loaded", cmd.sourceID).AsNotFound().Error()}
		return
	}
	if err := s.adapter.SetPreferences(cmd.prefValues); err != nil {
		cmd.reply <- result{err: apperr.Track(err).AsAdapterFailure().Error()}
		return
	}
	if err := writeSidecarPreferences(s.scriptPath, cmd.prefValues); err != nil {
		cmd.reply <- result{err: err}
		return
	}
	s.prefsApplied = true
	cmd.reply <- result{}
}

func (h *Host) doList(cmd *command) {
	infos := make([]core.SourceInfo, 0, len(h.adapters))
	for _, s := range h.adapters {
		if s.state == stateLoaded {
			infos = append(infos, s.adapter.Info())
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	cmd.reply <- result{value: infos}
}

func (h *Host) doInfo(cmd *command) {
	s, err := h.resolve(cmd.sourceID)
	if err != nil {
		cmd.reply <- result{err: err}
		return
	}
	cmd.reply <- result{value: s.adapter.Info()}
}

// Insert registers an already-constructed adapter (used for the built-in
// Local adapter and by Install after a plugin script has been loaded and
// validated). scriptPath is empty for in-process adapters.
func (h *Host) Insert(ctx context.Context, adapter source.Adapter, scriptPath string) (core.SourceInfo, error) {
	cmd := newCommand(ctx, opInsert, adapter.Info().ID)
	cmd.adapter = adapter
	cmd.scriptPath = scriptPath
	v, err := h.send(cmd)
	if err != nil {
		return core.SourceInfo{}, err
	}
	return v.(core.SourceInfo), nil
}

// Unload removes a loaded adapter without touching anything on disk.
func (h *Host) Unload(ctx context.Context, id int64) error {
	_, err := h.send(newCommand(ctx, opUnload, id))
	return err
}

// Uninstall unloads the adapter and returns the plugin script path the
// caller should remove from disk, if any.
func (h *Host) Uninstall(ctx context.Context, id int64) (string, error) {
	v, err := h.send(newCommand(ctx, opUninstall, id))
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (h *Host) SetPreferences(ctx context.Context, id int64, values map[string]string) error {
	cmd := newCommand(ctx, opSetPreferences, id)
	cmd.prefValues = values
	_, err := h.send(cmd)
	return err
}
