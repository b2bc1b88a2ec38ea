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

// Package util holds small formatting helpers shared by the admin CLI.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// FormatDate formats a time.Time value for display.
func FormatDate(date time.Time) string {
	if date.IsZero() {
		return "Unknown"
	}
	return date.Format("2006-01-02")
}

// APIResponse is the standardized shape of --json output.
type APIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// OutputJSON marshals and prints a standardized API response, for commands
// invoked with --json.
func OutputJSON(status string, data interface{}, err error) {
	response := APIResponse{Status: status}
	if err != nil {
		response.Status = "error"
		response.Error = err.Error()
	} else if data != nil {
		response.Data = data
	}

	jsonData, jsonErr := json.Marshal(response)
	if jsonErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", jsonErr)
		return
	}
	fmt.Println(string(jsonData))
}
