// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"excelsearch/internal/scanner"
)

var (
	scanRecursive bool
	scanPattern   string
	scanMaxFiles  int
)

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "List workbook files under the work directory as a table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}

		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}

		recursive := scanRecursive
		if !cmd.Flags().Changed("recursive") {
			recursive = application.cfg.RecursiveScan
		}

		var result *scanner.Result
		if scanPattern != "" {
			result, err = application.scanner.FindByPattern(dir, scanPattern, recursive)
		} else {
			result, err = application.scanner.Scan(dir, recursive, scanMaxFiles)
		}
		if err != nil {
			return err
		}

		renderScanTable(result)
		return nil
	},
}

func renderScanTable(result *scanner.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Size", "Modified", "Path"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, file := range result.Files {
		modified := ""
		if !file.ModifiedAt.IsZero() {
			modified = file.ModifiedAt.Format("2006-01-02 15:04:05")
		}
		table.Append([]string{
			file.Name,
			formatSize(file.SizeBytes),
			modified,
			file.Path,
		})
	}
	table.Render()

	fmt.Printf("\n%d files found (%d entries scanned)", result.TotalFiles, result.ScannedCount)
	if result.Truncated {
		fmt.Print(", result truncated")
	}
	fmt.Println()
}

// formatSize converts bytes to human-readable form.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f%s", float64(bytes)/float64(div), sizes[exp])
}

func init() {
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", true, "scan subdirectories")
	scanCmd.Flags().StringVarP(&scanPattern, "pattern", "p", "", "glob pattern matched against file names")
	scanCmd.Flags().IntVar(&scanMaxFiles, "max-files", 0, "maximum number of files to list")
	rootCmd.AddCommand(scanCmd)
}
