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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/mod/semver"

	"tanoshi/pkg/apperr"
	"tanoshi/pkg/core"
	"tanoshi/pkg/source/luavm"
)

// RepoIndexEntry describes one installable plugin in a source repository
// index, the Lua-sandbox analogue of the original's native-dylib manifest:
// lib_version replaces rustc_version as the compatibility signal checked
// against luavm.HostProtocolVersion.
type RepoIndexEntry struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	LibVersion string `json:"lib_version"`
	ScriptURL  string `json:"script_url"`
	Icon       string `json:"icon,omitempty"`
}

func newHTTPClient() *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 1 * time.Second
	c.RetryWaitMax = 16 * time.Second
	c.Logger = nil
	return c
}

// FetchRepoIndex downloads and decodes the JSON index of installable
// plugins from repoURL.
func FetchRepoIndex(ctx context.Context, repoURL string) ([]RepoIndexEntry, error) {
	client := newHTTPClient()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, repoURL, nil)
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithOp("FetchRepoIndex").Error()
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Track(err).AsIO().WithOp("FetchRepoIndex").Error()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf("repo index fetch: unexpected status %d", resp.StatusCode).AsIO().Error()
	}

	var entries []RepoIndexEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, apperr.Track(err).AsBadInput().WithDetail("malformed repo index").Error()
	}
	return entries, nil
}

// Install checks entry's lib_version against luavm.HostProtocolVersion
// (same major version, else IncompatibleVersion, before anything is
// downloaded), downloads entry's plugin script, writes it atomically under
// pluginDir (write-to-.part then rename, matching the download worker's
// atomic-write discipline), loads and validates it, then registers it with
// the Host. A plugin id at or above core.LocalSourceIDFloor is rejected: that
// range is reserved for the built-in Local adapter.
func (h *Host) Install(ctx context.Context, entry RepoIndexEntry, pluginDir string) (core.SourceInfo, error) {
	if entry.ID >= core.LocalSourceIDFloor {
		return core.SourceInfo{}, apperr.Newf(
			"plugin id %d collides with the reserved local-source range (>= %d)",
			entry.ID, core.LocalSourceIDFloor,
		).AsConflict().Error()
	}
	lv := "v" + strings.TrimPrefix(entry.LibVersion, "v")
	hv := "v" + strings.TrimPrefix(luavm.HostProtocolVersion, "v")
	if !semver.IsValid(lv) || semver.Major(lv) != semver.Major(hv) {
		return core.SourceInfo{}, apperr.Newf(
			"plugin lib_version %q incompatible with host %s",
			entry.LibVersion, luavm.HostProtocolVersion,
		).AsIncompatibleVersion().Error()
	}
	if h.Exists(ctx, entry.ID) {
		return core.SourceInfo{}, apperr.Newf("source %d already installed", entry.ID).AsConflict().Error()
	}

	client := newHTTPClient()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, entry.ScriptURL, nil)
	if err != nil {
		return core.SourceInfo{}, apperr.Track(err).AsIO().WithOp("Install").Error()
	}
	resp, err := client.Do(req)
	if err != nil {
		return core.SourceInfo{}, apperr.Track(err).AsIO().WithOp("Install").Error()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return core.SourceInfo{}, apperr.Newf("script fetch: unexpected status %d", resp.StatusCode).AsIO().Error()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.SourceInfo{}, apperr.Track(err).AsIO().WithOp("Install").Error()
	}

	scriptPath := filepath.Join(pluginDir, fmt.Sprintf("%d.lua", entry.ID))
	partPath := scriptPath + ".part"
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		return core.SourceInfo{}, apperr.Track(err).AsIO().WithOp("Install").Error()
	}
	if err := os.WriteFile(partPath, body, 0o644); err != nil {
		return core.SourceInfo{}, apperr.Track(err).AsIO().WithOp("Install").Error()
	}
	if err := os.Rename(partPath, scriptPath); err != nil {
		os.Remove(partPath)
		return core.SourceInfo{}, apperr.Track(err).AsIO().WithOp("Install").Error()
	}

	adapter, err := luavm.Load(entry.ID, scriptPath, luavm.HostOptions{})
	if err != nil {
		os.Remove(scriptPath)
		return core.SourceInfo{}, err
	}

	info, err := h.Insert(ctx, adapter, scriptPath)
	if err != nil {
		adapter.Close()
		os.Remove(scriptPath)
		return core.SourceInfo{}, err
	}
	h.log.Info("installed source %d (%s) from %s", entry.ID, entry.Name, entry.ScriptURL)
	return info, nil
}

// UninstallAndRemove uninstalls the adapter and deletes its script file from
// pluginDir, if it has one; the built-in Local adapter's empty scriptPath
// makes this a no-op on disk.
func (h *Host) UninstallAndRemove(ctx context.Context, id int64) error {
	scriptPath, err := h.Uninstall(ctx, id)
	if err != nil {
		return err
	}
	if scriptPath == "" {
		return nil
	}
	if err := os.Remove(scriptPath); err != nil && !os.IsNotExist(err) {
		return apperr.Track(err).AsIO().WithOp("UninstallAndRemove").Error()
	}
	return nil
}

// LoadAll loads every .lua plugin script already present in pluginDir, used
// at startup to restore previously installed plugins. Per-plugin failures
// are logged and skipped rather than aborting the whole startup sequence.
func (h *Host) LoadAll(ctx context.Context, pluginDir string) error {
	entries, err := os.ReadDir(pluginDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Track(err).AsIO().WithOp("LoadAll").Error()
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		scriptPath := filepath.Join(pluginDir, e.Name())

		var id int64
		if _, scanErr := fmt.Sscanf(e.Name(), "%d.lua", &id); scanErr != nil {
			h.log.Warn("skipping plugin file with unexpected name %s", e.Name())
			continue
		}

		adapter, loadErr := luavm.Load(id, scriptPath, luavm.HostOptions{})
		if loadErr != nil {
			h.log.Error("failed to load plugin %s: %v", scriptPath, loadErr)
			continue
		}
		if _, insertErr := h.Insert(ctx, adapter, scriptPath); insertErr != nil {
			h.log.Error("failed to register plugin %s: %v", scriptPath, insertErr)
			adapter.Close()
			continue
		}
		h.applySidecarPreferences(ctx, id, scriptPath)
	}
	return nil
}

// applySidecarPreferences restores a plugin's previously persisted
// preferences file onto its freshly loaded adapter instance, if one exists.
func (h *Host) applySidecarPreferences(ctx context.Context, id int64, scriptPath string) {
	values, err := readSidecarPreferences(scriptPath)
	if err != nil {
		h.log.Warn("source %d: failed to read preferences sidecar: %v", id, err)
		return
	}
	if len(values) == 0 {
		return
	}
	if err := h.SetPreferences(ctx, id, values); err != nil {
		h.log.Warn("source %d: failed to apply preferences sidecar: %v", id, err)
	}
}
