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

package tools

import (
	"strings"

	apperrors "excelsearch/internal/errors"
)

// ValidationRule checks operation arguments and returns a coded error if
// invalid.
type ValidationRule func(args map[string]any) error

// Chain runs rules in order until the first error.
func Chain(rules ...ValidationRule) ValidationRule {
	return func(args map[string]any) error {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule(args); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireString ensures a string argument is present and non-empty.
func RequireString(key string) ValidationRule {
	return func(args map[string]any) error {
		value, ok := args[key]
		if !ok || value == nil {
			return apperrors.Newf(apperrors.CodeMissingArgument, "%s is required", key)
		}
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return apperrors.Newf(apperrors.CodeMissingArgument, "%s is required", key)
		}
		return nil
	}
}

// stringArg returns the string value of an optional argument, or empty.
func stringArg(args map[string]any, key string) string {
	value, ok := args[key].(string)
	if !ok {
		return ""
	}
	return value
}

// boolArg returns a boolean argument, falling back to def when absent or
// mistyped.
func boolArg(args map[string]any, key string, def bool) bool {
	value, ok := args[key].(bool)
	if !ok {
		return def
	}
	return value
}

// intArg returns an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
