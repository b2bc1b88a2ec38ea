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

// Package cli renders admin-command output: colored status lines and tables
// over stdout, or a single JSON envelope under --json (see pkg/util.OutputJSON).
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"tanoshi/pkg/core"
	"tanoshi/pkg/util"
)

// Formatter handles all CLI output formatting.
type Formatter struct {
	Writer       io.Writer
	DisableColor bool

	HeaderStyle    *color.Color
	TitleStyle     *color.Color
	SuccessStyle   *color.Color
	ErrorStyle     *color.Color
	WarningStyle   *color.Color
	InfoStyle      *color.Color
	SecondaryStyle *color.Color
	IDStyle        *color.Color
	PathStyle      *color.Color
	DateStyle      *color.Color
}

// NewFormatter creates a new CLI formatter with default settings.
func NewFormatter() *Formatter {
	f := &Formatter{Writer: os.Stdout}
	f.initStyles()
	return f
}

func (f *Formatter) initStyles() {
	if f.DisableColor {
		color.NoColor = true
	}
	f.HeaderStyle = color.New(color.Bold, color.FgCyan)
	f.TitleStyle = color.New(color.Bold, color.FgWhite)
	f.SuccessStyle = color.New(color.FgGreen)
	f.ErrorStyle = color.New(color.FgRed)
	f.WarningStyle = color.New(color.FgYellow)
	f.InfoStyle = color.New(color.FgBlue)
	f.SecondaryStyle = color.New(color.FgHiBlack)
	f.IDStyle = color.New(color.FgHiMagenta)
	f.PathStyle = color.New(color.FgHiGreen)
	f.DateStyle = color.New(color.FgHiBlue)
}

func (f *Formatter) PrintHeader(text string) {
	_, _ = f.HeaderStyle.Fprintln(f.Writer, text)
	f.PrintDivider()
}

func (f *Formatter) PrintSuccess(text string) { _, _ = f.SuccessStyle.Fprintln(f.Writer, text) }
func (f *Formatter) PrintError(text string)   { _, _ = f.ErrorStyle.Fprintln(f.Writer, text) }
func (f *Formatter) PrintWarning(text string) { _, _ = f.WarningStyle.Fprintln(f.Writer, text) }
func (f *Formatter) PrintInfo(text string)    { _, _ = f.InfoStyle.Fprintln(f.Writer, text) }

func (f *Formatter) PrintDivider() {
	_, _ = fmt.Fprintln(f.Writer, strings.Repeat("-", 72))
}

// FormatDate formats a date with styling, or a muted placeholder when zero.
func (f *Formatter) FormatDate(date time.Time) string {
	if date.IsZero() {
		return f.SecondaryStyle.Sprint("never")
	}
	return f.DateStyle.Sprint(util.FormatDate(date))
}

// PrintTable renders headers/data as a bordered table.
func (f *Formatter) PrintTable(headers []string, data [][]string) {
	table := tablewriter.NewTable(f.Writer)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Alignment.Global = tw.AlignLeft
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header(headers)
	_ = table.Bulk(data)
	_ = table.Render()
}

// PrintSourceList renders the installed/loaded sources as a table.
func (f *Formatter) PrintSourceList(sources []core.SourceInfo) {
	f.PrintHeader("Installed Sources")
	if len(sources) == 0 {
		f.PrintWarning("No sources loaded.")
		return
	}
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		kind := "extension"
		if s.IsLocal {
			kind = "local"
		}
		rows = append(rows, []string{
			f.IDStyle.Sprint(strconv.FormatInt(s.ID, 10)),
			s.Name,
			s.Version,
			kind,
		})
	}
	f.PrintTable([]string{"ID", "Name", "Version", "Kind"}, rows)
}

// PrintMangaList renders a library listing.
func (f *Formatter) PrintMangaList(mangas []core.Manga) {
	f.PrintHeader("Library")
	if len(mangas) == 0 {
		f.PrintWarning("No manga in library.")
		return
	}
	rows := make([][]string, 0, len(mangas))
	for _, m := range mangas {
		rows = append(rows, []string{
			f.IDStyle.Sprint(strconv.FormatInt(m.ID, 10)),
			m.Title,
			m.Status,
			f.FormatDate(m.DateAdded),
		})
	}
	f.PrintTable([]string{"ID", "Title", "Status", "Added"}, rows)
}

// PrintDownloadQueue renders the persisted download queue in priority order.
func (f *Formatter) PrintDownloadQueue(entries []core.DownloadQueueEntry) {
	f.PrintHeader("Download Queue")
	if len(entries) == 0 {
		f.PrintInfo("Queue is empty.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "pending"
		if e.Priority == core.TerminalPriority {
			status = "failed"
		}
		rows = append(rows, []string{
			f.IDStyle.Sprint(strconv.FormatInt(e.ChapterID, 10)),
			strconv.Itoa(e.PageRank),
			status,
			strconv.Itoa(e.Attempts),
			f.FormatDate(e.DateAdded),
		})
	}
	f.PrintTable([]string{"Chapter", "Page", "Status", "Attempts", "Queued"}, rows)
}

// HandleError prints err and reports whether it handled a non-nil error.
func (f *Formatter) HandleError(err error) bool {
	if err == nil {
		return false
	}
	f.PrintError(fmt.Sprintf("error: %v", err))
	return true
}
