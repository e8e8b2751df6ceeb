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
	"fmt"
	"path/filepath"

	apperrors "excelsearch/internal/errors"
)

// Policy is the single trust boundary confining every filesystem access to
// one work root. It is immutable for the process lifetime: the root is
// resolved once at construction.
//
// Validation gives no time-of-check/time-of-use guarantee. A path may be
// deleted or replaced between validation and a later read; downstream code
// must treat that as an ordinary not-found failure.
type Policy struct {
	workRoot string
}

// NewPolicy canonicalizes workRoot and returns a policy confined to it.
func NewPolicy(workRoot string) (*Policy, error) {
	if err := ValidatePathString(workRoot, MaxPathLength); err != nil {
		return nil, fmt.Errorf("invalid work root: %v", err)
	}
	resolved, err := Canonicalize(workRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work root %q: %v", workRoot, err)
	}
	return &Policy{workRoot: resolved}, nil
}

// WorkRoot returns the canonical work root directory.
func (p *Policy) WorkRoot() string {
	return p.workRoot
}

// Resolve canonicalizes candidate and decides ALLOW or DENY. On ALLOW it
// returns the resolved path; on DENY it returns a coded error and never the
// raw filesystem error for paths outside the root. Relative candidates are
// interpreted against the work root, so ".." segments that resolve back
// inside the root are allowed.
func (p *Policy) Resolve(candidate string) (string, error) {
	if err := ValidatePathString(candidate, MaxPathLength); err != nil {
		return "", apperrors.Newf(apperrors.CodeValidation, "path validation error: %v", err)
	}

	target := candidate
	if !filepath.IsAbs(target) {
		target = filepath.Join(p.workRoot, target)
	}

	resolved, err := Canonicalize(target)
	if err != nil {
		return "", apperrors.Newf(apperrors.CodeValidation, "path validation error: %v", err)
	}

	if !HasPathPrefix(resolved, p.workRoot) {
		return "", apperrors.Newf(apperrors.CodeAccessDenied,
			"access denied: %s. Work directory: %s", candidate, p.workRoot)
	}

	return resolved, nil
}

// Allows reports whether candidate resolves inside the work root.
func (p *Policy) Allows(candidate string) bool {
	_, err := p.Resolve(candidate)
	return err == nil
}
