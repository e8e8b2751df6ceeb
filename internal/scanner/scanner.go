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

// Package scanner enumerates workbook files under the confined work root.
package scanner

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "excelsearch/internal/errors"
	"excelsearch/internal/paths"
)

// FileInfo is an immutable snapshot of file metadata at scan time. It may be
// stale by the time a later operation reads the file.
type FileInfo struct {
	Path       string    `json:"filePath"`
	Name       string    `json:"fileName"`
	SizeBytes  int64     `json:"fileSize"`
	ModifiedAt time.Time `json:"modifiedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	Extension  string    `json:"extension"`
}

// Result is the outcome of one directory scan. ScannedCount counts every
// filesystem entry visited, including directories and non-matching files.
type Result struct {
	Directory    string
	TotalFiles   int
	ScannedCount int
	Files        []FileInfo
	Truncated    bool
}

// Scanner walks directories applying the path policy, the extension
// allow-list and a result cap. Enumeration order is filesystem-dependent.
type Scanner struct {
	policy     *paths.Policy
	extensions map[string]bool
	maxFiles   int
	log        zerolog.Logger
}

// New creates a scanner confined by policy. maxFiles is the default result
// cap applied when a scan does not override it.
func New(policy *paths.Policy, extensions map[string]bool, maxFiles int, log zerolog.Logger) *Scanner {
	return &Scanner{
		policy:     policy,
		extensions: extensions,
		maxFiles:   maxFiles,
		log:        log,
	}
}

// Scan enumerates matching files under dir. An empty dir means the work
// root. maxFiles <= 0 falls back to the configured cap. The policy check
// runs before any enumeration; a denied root leaks no partial listing.
func (s *Scanner) Scan(dir string, recursive bool, maxFiles int) (*Result, error) {
	root, err := s.validateDirectory(dir)
	if err != nil {
		return nil, err
	}
	if maxFiles <= 0 {
		maxFiles = s.maxFiles
	}

	s.log.Info().Str("directory", root).Bool("recursive", recursive).Msg("scan started")

	result := &Result{Directory: root, Files: []FileInfo{}}
	match := func(name string) bool {
		return s.extensions[strings.ToLower(filepath.Ext(name))]
	}
	if err := s.walk(root, recursive, maxFiles, match, result); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, "directory scan failed", err)
	}

	result.TotalFiles = len(result.Files)
	s.log.Info().
		Int("found", result.TotalFiles).
		Int("scanned", result.ScannedCount).
		Bool("truncated", result.Truncated).
		Msg("scan completed")
	return result, nil
}

// FindByPattern enumerates files whose base name matches the glob pattern.
// Matching is case-sensitive (path.Match semantics); the extension
// allow-list still applies.
func (s *Scanner) FindByPattern(dir, pattern string, recursive bool) (*Result, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, apperrors.Newf(apperrors.CodeValidation, "invalid pattern %q: %v", pattern, err)
	}

	root, err := s.validateDirectory(dir)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("directory", root).Str("pattern", pattern).Msg("pattern search started")

	result := &Result{Directory: root, Files: []FileInfo{}}
	match := func(name string) bool {
		ok, _ := path.Match(pattern, name)
		return ok && s.extensions[strings.ToLower(filepath.Ext(name))]
	}
	if err := s.walk(root, recursive, s.maxFiles, match, result); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, "pattern search failed", err)
	}

	result.TotalFiles = len(result.Files)
	s.log.Info().Int("found", result.TotalFiles).Msg("pattern search completed")
	return result, nil
}

// validateDirectory routes the scan root through the policy before anything
// is enumerated.
func (s *Scanner) validateDirectory(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return s.policy.WorkRoot(), nil
	}

	// Relative directories are interpreted against the work root, matching
	// how the policy resolves them.
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.policy.WorkRoot(), dir)
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return "", apperrors.Newf(apperrors.CodeDirectoryNotFound, "directory does not exist: %s", dir)
	}
	if err != nil {
		return "", apperrors.Newf(apperrors.CodeValidation, "path validation error: %v", err)
	}
	if !info.IsDir() {
		return "", apperrors.Newf(apperrors.CodeNotADirectory, "path is not a directory: %s", dir)
	}

	resolved, err := s.policy.Resolve(dir)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func (s *Scanner) walk(root string, recursive bool, maxFiles int, match func(string) bool, result *Result) error {
	return filepath.WalkDir(root, func(entryPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal; the scan degrades.
			s.log.Warn().Str("path", entryPath).Err(err).Msg("skipping unreadable entry")
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entryPath == root {
			return nil
		}

		result.ScannedCount++

		if entry.IsDir() {
			if !recursive {
				return fs.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() || !match(entry.Name()) {
			return nil
		}

		result.Files = append(result.Files, s.describe(entryPath, entry))
		if maxFiles > 0 && len(result.Files) >= maxFiles {
			result.Truncated = true
			s.log.Info().Int("max_files", maxFiles).Msg("file cap reached, stopping scan")
			return fs.SkipAll
		}
		return nil
	})
}

// describe collects file metadata. Collection failures degrade to a
// zero-metadata entry rather than aborting the scan.
func (s *Scanner) describe(entryPath string, entry fs.DirEntry) FileInfo {
	fi := FileInfo{
		Path:      entryPath,
		Name:      entry.Name(),
		Extension: strings.ToLower(filepath.Ext(entry.Name())),
	}

	info, err := entry.Info()
	if err != nil {
		s.log.Warn().Str("path", entryPath).Err(err).Msg("failed to collect file metadata")
		return fi
	}

	fi.SizeBytes = info.Size()
	fi.ModifiedAt = info.ModTime()
	// Birth time is not portably available; the modification time stands in.
	fi.CreatedAt = info.ModTime()
	return fi
}
