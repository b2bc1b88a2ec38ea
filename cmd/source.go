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

package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tanoshi/internal/config"
	"tanoshi/pkg/sourcehost"
	"tanoshi/pkg/util"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage installed extension sources.",
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every extension currently installed in plugin_path.",
	RunE:  runSourceList,
}

var sourceInstallCmd = &cobra.Command{
	Use:   "install <id>",
	Short: "Install a source from the configured extension repository by its repo-index id.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceInstall,
}

var sourceUninstallCmd = &cobra.Command{
	Use:   "uninstall <id>",
	Short: "Unload a source and delete its plugin script.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceUninstall,
}

func init() {
	sourceCmd.AddCommand(sourceListCmd, sourceInstallCmd, sourceUninstallCmd)
	rootCmd.AddCommand(sourceCmd)
}

// withShortLivedHost loads every extension from pluginDir into a fresh Host
// scoped to the one command invocation, runs fn against it, then lets the
// host's dispatcher goroutine exit when ctx is canceled. This mirrors the
// teacher's per-invocation engine construction (cmd/root.go's
// initializeEngine) rather than requiring a running serve daemon for
// admin operations.
func withShortLivedHost(fn func(ctx context.Context, cfg *config.Config, host *sourcehost.Host) error) error {
	cfg, err := loadConfigForCommand()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := sourcehost.New(sourcehost.Options{PluginDir: cfg.PluginPath, RepositoryURL: cfg.ExtensionRepository})
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()

	if err := host.LoadAll(ctx, cfg.PluginPath); err != nil {
		return err
	}

	return fn(ctx, cfg, host)
}

func runSourceList(cmd *cobra.Command, args []string) error {
	return withShortLivedHost(func(ctx context.Context, cfg *config.Config, host *sourcehost.Host) error {
		sources, err := host.List(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			util.OutputJSON("ok", sources, nil)
			return nil
		}
		formatter().PrintSourceList(sources)
		return nil
	})
}

func runSourceInstall(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid source id %q: %w", args[0], err)
	}

	return withShortLivedHost(func(ctx context.Context, cfg *config.Config, host *sourcehost.Host) error {
		entries, err := sourcehost.FetchRepoIndex(ctx, cfg.ExtensionRepository)
		if err != nil {
			return err
		}
		var match *sourcehost.RepoIndexEntry
		for i := range entries {
			if entries[i].ID == id {
				match = &entries[i]
				break
			}
		}
		if match == nil {
			return fmt.Errorf("no repo-index entry with id %d", id)
		}

		info, err := host.Install(ctx, *match, cfg.PluginPath)
		if err != nil {
			return err
		}
		if jsonOutput {
			util.OutputJSON("ok", info, nil)
			return nil
		}
		formatter().PrintSuccess(fmt.Sprintf("installed %s (id %d, v%s)", info.Name, info.ID, info.Version))
		return nil
	})
}

func runSourceUninstall(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid source id %q: %w", args[0], err)
	}

	return withShortLivedHost(func(ctx context.Context, cfg *config.Config, host *sourcehost.Host) error {
		if err := host.UninstallAndRemove(ctx, id); err != nil {
			return err
		}
		if jsonOutput {
			util.OutputJSON("ok", map[string]int64{"id": id}, nil)
			return nil
		}
		formatter().PrintSuccess(fmt.Sprintf("uninstalled source %d", id))
		return nil
	})
}
