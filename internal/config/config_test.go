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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("TANOSHI_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 80, cfg.Port)
	require.Equal(t, time.Hour, cfg.UpdateInterval)
	require.Len(t, cfg.Secret, 16)
}

func TestLoadGeneratesAndPersistsSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Len(t, cfg.Secret, 16)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "secret")
}

func TestUpdateIntervalFloorEnforced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("update_interval: 5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, time.Hour, cfg.UpdateInterval, "sub-floor interval must clamp to the release floor")
}

func TestLocalPathSingleString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("local_path: /library\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.LocalPath, 1)
	require.Equal(t, "/library", cfg.LocalPath[0].Path)
}

func TestLocalPathList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "local_path:\n  - name: Manga\n    path: /a\n  - name: Comics\n    path: /b\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.LocalPath, 2)
	require.Equal(t, "Manga", cfg.LocalPath[0].Name)
	require.Equal(t, "/b", cfg.LocalPath[1].Path)
}

func TestPreservedSecretIsNotRegenerated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("secret: abcdef0123456789\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "abcdef0123456789", cfg.Secret)
}
