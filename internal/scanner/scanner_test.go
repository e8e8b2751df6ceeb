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

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	apperrors "excelsearch/internal/errors"
	"excelsearch/internal/paths"
)

var testExtensions = map[string]bool{".xlsx": true, ".xlsm": true}

func newTestScanner(t *testing.T, maxFiles int) (*Scanner, string) {
	t.Helper()
	root := t.TempDir()
	policy, err := paths.NewPolicy(root)
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}
	return New(policy, testExtensions, maxFiles, zerolog.Nop()), policy.WorkRoot()
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	s, root := newTestScanner(t, 100)

	result, err := s.Scan("", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Directory != root {
		t.Fatalf("expected directory %s, got %s", root, result.Directory)
	}
	if result.TotalFiles != 0 || len(result.Files) != 0 {
		t.Fatalf("expected no files, got %d", result.TotalFiles)
	}
	if result.Truncated {
		t.Fatal("empty scan should not be truncated")
	}
}

func TestScanFiltersByExtension(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "a.xlsx"))
	touch(t, filepath.Join(root, "b.XLSX"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "macro.xlsm"))

	result, err := s.Scan("", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 3 {
		t.Fatalf("expected 3 matching files, got %d", result.TotalFiles)
	}
	// notes.txt still counts as a scanned entry.
	if result.ScannedCount != 4 {
		t.Fatalf("expected 4 scanned entries, got %d", result.ScannedCount)
	}
}

func TestScanRecursive(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "top.xlsx"))
	touch(t, filepath.Join(root, "sub", "nested.xlsx"))
	touch(t, filepath.Join(root, "sub", "deep", "deeper.xlsx"))

	result, err := s.Scan("", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 3 {
		t.Fatalf("expected 3 files, got %d", result.TotalFiles)
	}
}

func TestScanNonRecursiveSkipsSubdirectories(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "top.xlsx"))
	touch(t, filepath.Join(root, "sub", "nested.xlsx"))

	result, err := s.Scan("", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 1 {
		t.Fatalf("expected 1 file, got %d", result.TotalFiles)
	}
	if result.Files[0].Name != "top.xlsx" {
		t.Fatalf("expected top.xlsx, got %s", result.Files[0].Name)
	}
}

func TestScanTruncatesAtCap(t *testing.T) {
	s, root := newTestScanner(t, 100)
	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx", "d.xlsx"} {
		touch(t, filepath.Join(root, name))
	}

	result, err := s.Scan("", false, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 2 {
		t.Fatalf("expected 2 files at the cap, got %d", result.TotalFiles)
	}
	if !result.Truncated {
		t.Fatal("expected truncated result")
	}
}

func TestScanUsesDefaultCap(t *testing.T) {
	s, root := newTestScanner(t, 2)
	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		touch(t, filepath.Join(root, name))
	}

	result, err := s.Scan("", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 2 || !result.Truncated {
		t.Fatalf("expected default cap of 2 applied, got %d truncated=%v",
			result.TotalFiles, result.Truncated)
	}
}

func TestScanRelativeSubdirectory(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "sub", "nested.xlsx"))
	touch(t, filepath.Join(root, "top.xlsx"))

	result, err := s.Scan("sub", true, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 1 {
		t.Fatalf("expected 1 file in subdirectory, got %d", result.TotalFiles)
	}
}

func TestScanDirectoryNotFound(t *testing.T) {
	s, _ := newTestScanner(t, 100)

	_, err := s.Scan("missing", true, 0)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if apperrors.CodeOf(err) != apperrors.CodeDirectoryNotFound {
		t.Fatalf("expected DIRECTORY_NOT_FOUND, got %s", apperrors.CodeOf(err))
	}
}

func TestScanNotADirectory(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "file.xlsx"))

	_, err := s.Scan("file.xlsx", true, 0)
	if err == nil {
		t.Fatal("expected error for file used as directory")
	}
	if apperrors.CodeOf(err) != apperrors.CodeNotADirectory {
		t.Fatalf("expected NOT_A_DIRECTORY, got %s", apperrors.CodeOf(err))
	}
}

func TestScanDeniesOutsideRoot(t *testing.T) {
	s, _ := newTestScanner(t, 100)
	outside := t.TempDir()

	_, err := s.Scan(outside, true, 0)
	if err == nil {
		t.Fatal("expected denial for directory outside the work root")
	}
	if apperrors.CodeOf(err) != apperrors.CodeAccessDenied {
		t.Fatalf("expected ACCESS_DENIED, got %s", apperrors.CodeOf(err))
	}
}

func TestScanCollectsMetadata(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "a.xlsx"))

	result, err := s.Scan("", false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	file := result.Files[0]
	if file.Name != "a.xlsx" || file.Extension != ".xlsx" {
		t.Fatalf("unexpected metadata: %+v", file)
	}
	if file.SizeBytes != 1 {
		t.Fatalf("expected size 1, got %d", file.SizeBytes)
	}
	if file.ModifiedAt.IsZero() || file.CreatedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}
}

func TestFindByPattern(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "report_2024.xlsx"))
	touch(t, filepath.Join(root, "report_2025.xlsx"))
	touch(t, filepath.Join(root, "summary.xlsx"))
	touch(t, filepath.Join(root, "report_raw.txt"))

	result, err := s.FindByPattern("", "report_*", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// report_raw.txt matches the glob but fails the extension allow-list.
	if result.TotalFiles != 2 {
		t.Fatalf("expected 2 matches, got %d", result.TotalFiles)
	}
}

func TestFindByPatternCaseSensitive(t *testing.T) {
	s, root := newTestScanner(t, 100)
	touch(t, filepath.Join(root, "Report.xlsx"))

	result, err := s.FindByPattern("", "report*", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalFiles != 0 {
		t.Fatalf("expected case-sensitive match to miss, got %d", result.TotalFiles)
	}
}

func TestFindByPatternRejectsBadPattern(t *testing.T) {
	s, _ := newTestScanner(t, 100)

	_, err := s.FindByPattern("", "[bad", true)
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
	if apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s", apperrors.CodeOf(err))
	}
}
