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

// Package excel reads workbook files through the excelize collaborator,
// guarded by per-file validation.
package excel

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "excelsearch/internal/errors"
	"excelsearch/internal/paths"
)

// Validator runs the per-file checks that precede any workbook parse.
type Validator struct {
	policy       *paths.Policy
	extensions   map[string]bool
	maxSizeBytes int64
}

// NewValidator builds a validator from the policy, the extension allow-list
// and the size ceiling in bytes.
func NewValidator(policy *paths.Policy, extensions map[string]bool, maxSizeBytes int64) *Validator {
	return &Validator{
		policy:       policy,
		extensions:   extensions,
		maxSizeBytes: maxSizeBytes,
	}
}

// ValidateFile checks a candidate file and returns its resolved path. Checks
// short-circuit in a fixed order: existence, regular file, policy, size,
// extension. The policy check runs before the size report so a denied path
// never leaks stat details; the denial message names the work root, not the
// underlying filesystem error.
func (v *Validator) ValidateFile(path string) (string, error) {
	// Relative paths are interpreted against the work root, matching how
	// the policy resolves them.
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(v.policy.WorkRoot(), target)
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return "", apperrors.Newf(apperrors.CodeFileNotFound, "file does not exist: %s", path)
	}
	if err != nil {
		return "", apperrors.Newf(apperrors.CodeValidation, "file validation error: %v", err)
	}

	if !info.Mode().IsRegular() {
		return "", apperrors.Newf(apperrors.CodeNotAFile, "path is not a file: %s", path)
	}

	resolved, err := v.policy.Resolve(target)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeAccessDenied {
			return "", apperrors.Newf(apperrors.CodeAccessDenied,
				"file access denied: %s. Work directory: %s", path, v.policy.WorkRoot())
		}
		return "", err
	}

	if v.maxSizeBytes > 0 && info.Size() > v.maxSizeBytes {
		actualMB := float64(info.Size()) / (1024 * 1024)
		limitMB := float64(v.maxSizeBytes) / (1024 * 1024)
		return "", apperrors.Newf(apperrors.CodeFileTooLarge,
			"file too large: %.2fMB > %.0fMB", actualMB, limitMB)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !v.extensions[ext] {
		return "", apperrors.Newf(apperrors.CodeUnsupportedFormat, "unsupported file format: %s", ext)
	}

	return resolved, nil
}

// WorkRoot exposes the configured root for diagnostics.
func (v *Validator) WorkRoot() string {
	return v.policy.WorkRoot()
}
