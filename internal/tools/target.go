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

// Target is the tagged single-or-batch form of a file argument, decided once
// at the boundary instead of re-checked inside handlers.
type Target struct {
	Batch bool
	Paths []string
}

// ParseTarget reads file_path XOR file_paths from the argument bag. Both
// present or both absent is an argument error; an empty batch list is a
// distinct EMPTY_BATCH error.
func ParseTarget(args map[string]any) (Target, error) {
	single, hasSingle := args["file_path"]
	batch, hasBatch := args["file_paths"]
	if hasSingle && single == nil {
		hasSingle = false
	}
	if hasBatch && batch == nil {
		hasBatch = false
	}

	switch {
	case hasSingle && hasBatch:
		return Target{}, apperrors.New(apperrors.CodeMissingArgument,
			"either file_path or file_paths is required, but not both")
	case !hasSingle && !hasBatch:
		return Target{}, apperrors.New(apperrors.CodeMissingArgument,
			"either file_path or file_paths is required")
	}

	if hasSingle {
		path, ok := single.(string)
		if !ok || strings.TrimSpace(path) == "" {
			return Target{}, apperrors.New(apperrors.CodeMissingArgument, "file_path is required")
		}
		return Target{Paths: []string{path}}, nil
	}

	list, ok := batch.([]any)
	if !ok {
		return Target{}, apperrors.New(apperrors.CodeValidation, "file_paths must be a list of paths")
	}
	if len(list) == 0 {
		return Target{}, apperrors.New(apperrors.CodeEmptyBatch, "file_paths must be a non-empty list")
	}

	paths := make([]string, 0, len(list))
	for _, item := range list {
		path, ok := item.(string)
		if !ok || strings.TrimSpace(path) == "" {
			return Target{}, apperrors.New(apperrors.CodeValidation, "file_paths entries must be non-empty strings")
		}
		paths = append(paths, path)
	}
	return Target{Batch: true, Paths: paths}, nil
}
