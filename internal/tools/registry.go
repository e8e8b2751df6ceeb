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

// Package tools maps operation names and argument bags onto the scanner and
// workbook reader, and normalizes every outcome into a uniform envelope.
package tools

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	apperrors "excelsearch/internal/errors"
)

// HandlerFunc executes one operation and returns its typed payload.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Operation describes a remote-callable operation with its JSON-schema
// parameter map, validation rule and implementation.
type Operation struct {
	Name        string
	Description string
	Parameters  map[string]any
	Validate    ValidationRule
	Handler     HandlerFunc
}

// OperationInfo is the catalog entry exposed to clients.
type OperationInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry holds all registered operations.
type Registry struct {
	mu    sync.RWMutex
	ops   map[string]*Operation
	order []string
	log   zerolog.Logger
}

// NewRegistry creates an empty operation registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		ops: make(map[string]*Operation),
		log: log,
	}
}

// Register adds an operation, replacing any previous one of the same name.
func (r *Registry) Register(op *Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op.Name]; !exists {
		r.order = append(r.order, op.Name)
	}
	r.ops[op.Name] = op
}

// Names returns the operation names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Catalog returns the operation catalog in registration order.
func (r *Registry) Catalog() []OperationInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]OperationInfo, 0, len(r.order))
	for _, name := range r.order {
		op := r.ops[name]
		infos = append(infos, OperationInfo{
			Name:        op.Name,
			Description: op.Description,
			Parameters:  op.Parameters,
		})
	}
	return infos
}

// Dispatch validates arguments and runs the named operation. Every failure
// mode is converted to an envelope; arguments are checked before any
// collaborator is invoked.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) Envelope {
	op, ok := r.getOperation(name)
	if !ok {
		r.log.Warn().Str("operation", name).Msg("unknown operation")
		return Fail(apperrors.Newf(apperrors.CodeUnknownOperation, "unknown operation: %s", name))
	}

	if args == nil {
		args = map[string]any{}
	}

	if op.Validate != nil {
		if err := op.Validate(args); err != nil {
			r.log.Warn().Str("operation", name).Err(err).Msg("argument validation failed")
			return Fail(err)
		}
	}

	r.log.Info().Str("operation", name).Msg("dispatching operation")
	payload, err := op.Handler(ctx, args)
	if err != nil {
		r.log.Warn().Str("operation", name).Err(err).Msg("operation failed")
		return Fail(err)
	}
	return OK(payload)
}

func (r *Registry) getOperation(name string) (*Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}
