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
	"encoding/json"
	"os"
	"strings"

	"tanoshi/pkg/apperr"
)

// sidecarPath derives a plugin's preferences sidecar file from its script
// path: "<name>.lua" -> "<name>.json", matching the "<name>.json" layout in
// the persisted state layout table. In-process adapters (empty scriptPath)
// have no sidecar.
func sidecarPath(scriptPath string) string {
	if scriptPath == "" {
		return ""
	}
	if idx := strings.LastIndexByte(scriptPath, '.'); idx >= 0 {
		return scriptPath[:idx] + ".json"
	}
	return scriptPath + ".json"
}

// writeSidecarPreferences persists values to scriptPath's sidecar file so a
// later LoadAll restores them onto a freshly loaded adapter instance.
func writeSidecarPreferences(scriptPath string, values map[string]string) error {
	path := sidecarPath(scriptPath)
	if path == "" {
		return nil
	}
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return apperr.Track(err).AsIO().WithOp("writeSidecarPreferences").Error()
	}
	part := path + ".part"
	if err := os.WriteFile(part, b, 0o644); err != nil {
		return apperr.Track(err).AsIO().WithOp("writeSidecarPreferences").Error()
	}
	if err := os.Rename(part, path); err != nil {
		os.Remove(part)
		return apperr.Track(err).AsIO().WithOp("writeSidecarPreferences").Error()
	}
	return nil
}

// readSidecarPreferences loads a previously persisted preferences file, if
// any. A missing sidecar is not an error: most plugins never set one.
func readSidecarPreferences(scriptPath string) (map[string]string, error) {
	path := sidecarPath(scriptPath)
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Track(err).AsIO().WithOp("readSidecarPreferences").Error()
	}
	var values map[string]string
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, apperr.Track(err).AsBadInput().WithOp("readSidecarPreferences").Error()
	}
	return values, nil
}
