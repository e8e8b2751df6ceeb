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

package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "excelsearch/internal/errors"
)

func newTestPolicy(t *testing.T) (*Policy, string) {
	t.Helper()
	root := t.TempDir()
	policy, err := NewPolicy(root)
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}
	return policy, policy.WorkRoot()
}

func TestNewPolicyRejectsInvalidRoot(t *testing.T) {
	if _, err := NewPolicy(""); err == nil {
		t.Fatal("expected error for empty work root")
	}
}

func TestResolveRelativePath(t *testing.T) {
	policy, root := newTestPolicy(t)

	resolved, err := policy.Resolve("reports/q3.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resolved, root) {
		t.Fatalf("expected resolved path under %s, got %s", root, resolved)
	}
}

func TestResolveAbsolutePathInsideRoot(t *testing.T) {
	policy, root := newTestPolicy(t)

	file := filepath.Join(root, "data.xlsx")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	resolved, err := policy.Resolve(file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != file {
		t.Fatalf("expected %s, got %s", file, resolved)
	}
}

func TestResolveDeniesTraversalEscape(t *testing.T) {
	policy, _ := newTestPolicy(t)

	_, err := policy.Resolve("../../../etc/passwd")
	if err == nil {
		t.Fatal("expected denial for traversal escape")
	}
	if apperrors.CodeOf(err) != apperrors.CodeAccessDenied {
		t.Fatalf("expected ACCESS_DENIED, got %s", apperrors.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "Work directory:") {
		t.Fatalf("expected denial to name the work directory, got %q", err)
	}
}

func TestResolveDeniesAbsoluteOutsideRoot(t *testing.T) {
	policy, _ := newTestPolicy(t)

	_, err := policy.Resolve("/etc/passwd")
	if err == nil {
		t.Fatal("expected denial for absolute outside path")
	}
	if apperrors.CodeOf(err) != apperrors.CodeAccessDenied {
		t.Fatalf("expected ACCESS_DENIED, got %s", apperrors.CodeOf(err))
	}
}

func TestResolveDeniesSiblingPrefixDirectory(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "work")
	sibling := filepath.Join(parent, "work2")
	for _, dir := range []string{root, sibling} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
	}

	policy, err := NewPolicy(root)
	if err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}

	if _, err := policy.Resolve(filepath.Join(sibling, "file.xlsx")); err == nil {
		t.Fatal("expected denial for sibling directory sharing the root prefix")
	}
}

func TestResolveDeniesSymlinkEscape(t *testing.T) {
	policy, root := newTestPolicy(t)
	outside := t.TempDir()

	secret := filepath.Join(outside, "secret.xlsx")
	if err := os.WriteFile(secret, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	link := filepath.Join(root, "inside.xlsx")
	if err := os.Symlink(secret, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, err := policy.Resolve("inside.xlsx")
	if err == nil {
		t.Fatal("expected denial for symlink pointing outside the root")
	}
	if apperrors.CodeOf(err) != apperrors.CodeAccessDenied {
		t.Fatalf("expected ACCESS_DENIED, got %s", apperrors.CodeOf(err))
	}
}

func TestResolveAllowsDotDotResolvingInside(t *testing.T) {
	policy, _ := newTestPolicy(t)

	// sub/../data.xlsx stays inside the root after cleaning.
	if _, err := policy.Resolve("sub/../data.xlsx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveRejectsInvalidPathString(t *testing.T) {
	policy, _ := newTestPolicy(t)

	_, err := policy.Resolve("bad\x00path")
	if err == nil {
		t.Fatal("expected error for null byte path")
	}
	if apperrors.CodeOf(err) != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %s", apperrors.CodeOf(err))
	}
}

func TestAllows(t *testing.T) {
	policy, _ := newTestPolicy(t)

	if !policy.Allows("data.xlsx") {
		t.Fatal("expected relative path to be allowed")
	}
	if policy.Allows("/etc/passwd") {
		t.Fatal("expected outside path to be denied")
	}
}
