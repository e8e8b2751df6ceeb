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

package excel

import (
	"strconv"
	"strings"
	"time"
)

// Column type labels reported in the dataTypes map.
const (
	TypeEmpty    = "empty"
	TypeNumber   = "number"
	TypeBool     = "bool"
	TypeDatetime = "datetime"
	TypeString   = "string"
)

// dateLayouts are tried in order when classifying a cell as a datetime.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"01-02-06",
	"1/2/06 15:04",
}

// formatCell converts a raw cell string from the collaborator into a
// JSON-safe value: nil for empty, bool, float64 for numerics, string
// otherwise.
func formatCell(raw string) any {
	if raw == "" {
		return nil
	}
	if b, ok := parseBool(raw); ok {
		return b
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToUpper(raw) {
	case "TRUE":
		return true, true
	case "FALSE":
		return false, true
	}
	return false, false
}

func isDatetime(raw string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

func classifyCell(raw string) string {
	if raw == "" {
		return TypeEmpty
	}
	if _, ok := parseBool(raw); ok {
		return TypeBool
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return TypeNumber
	}
	if isDatetime(raw) {
		return TypeDatetime
	}
	return TypeString
}

// inferColumnTypes derives one type label per column from the raw data rows.
// A column of a single kind keeps that kind; mixed kinds collapse to string;
// an all-empty column is empty.
func inferColumnTypes(headers []string, rows [][]string) map[string]string {
	types := make(map[string]string, len(headers))
	for col, header := range headers {
		inferred := TypeEmpty
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			kind := classifyCell(row[col])
			if kind == TypeEmpty {
				continue
			}
			switch inferred {
			case TypeEmpty:
				inferred = kind
			case kind:
				// unchanged
			default:
				inferred = TypeString
			}
			if inferred == TypeString {
				break
			}
		}
		types[header] = inferred
	}
	return types
}

// normalizeRow pads or trims a raw row to exactly width cells and converts
// each cell to its JSON-safe value.
func normalizeRow(raw []string, width int) []any {
	row := make([]any, width)
	for i := 0; i < width; i++ {
		if i < len(raw) {
			row[i] = formatCell(raw[i])
		}
	}
	return row
}
