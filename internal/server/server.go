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

// Package server runs the newline-delimited JSON operation loop over stdio.
// Requests are handled one at a time; the transport carries no session
// state.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	apperrors "excelsearch/internal/errors"
	"excelsearch/internal/tools"
)

// maxRequestBytes bounds a single request line.
const maxRequestBytes = 4 * 1024 * 1024

// Request is one operation call: {"operation": ..., "arguments": {...}}.
type Request struct {
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments"`
}

// Server reads requests from a stream and answers one envelope per line.
type Server struct {
	registry *tools.Registry
	log      zerolog.Logger
}

// New creates a server around the operation registry.
func New(registry *tools.Registry, log zerolog.Logger) *Server {
	return &Server{registry: registry, log: log}
}

// Run processes requests until EOF or context cancellation. Malformed input
// yields a failure envelope on the output stream, never a dropped request.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info().Msg("server started")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		envelope := s.Handle(ctx, line)
		if err := writeEnvelope(out, envelope); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}

// Handle parses one request line and dispatches it.
func (s *Server) Handle(ctx context.Context, line string) tools.Envelope {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.log.Warn().Err(err).Msg("malformed request")
		return tools.Fail(apperrors.Wrap(apperrors.CodeValidation, "malformed request", err))
	}
	if strings.TrimSpace(req.Operation) == "" {
		return tools.Fail(apperrors.New(apperrors.CodeMissingArgument, "operation is required"))
	}
	return s.registry.Dispatch(ctx, req.Operation, req.Arguments)
}

func writeEnvelope(out io.Writer, envelope tools.Envelope) error {
	data, err := json.Marshal(envelope)
	if err != nil {
		// Marshaling an envelope is not expected to fail; degrade to a
		// minimal failure rather than dropping the response.
		data = []byte(`{"success":false,"error":"internal serialization error","errorCode":"VALIDATION_ERROR"}`)
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
