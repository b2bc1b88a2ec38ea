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

// Package cmd wires the tanoshi binary's cobra commands: the long-lived
// `serve` daemon plus a handful of admin subcommands against a running
// extension host and repositories. The global --config and --json flags are
// persistent flags on the root command.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tanoshi/internal/config"
	appcli "tanoshi/pkg/cli"
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "tanoshi",
	Short: "tanoshi is a self-hosted manga library, reader, and downloader.",
	Long: "tanoshi aggregates manga from installable extension sources and local " +
		"folders, tracks a per-user library, and downloads chapters to disk.",
}

// Execute runs the root command; main calls this directly.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tanoshi: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (optional)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of formatted text")
}

func formatter() *appcli.Formatter {
	f := appcli.NewFormatter()
	f.DisableColor = jsonOutput
	return f
}

// loadConfigForCommand loads config once per admin command invocation,
// honoring the shared --config flag.
func loadConfigForCommand() (*config.Config, error) {
	return config.Load(configPath)
}
