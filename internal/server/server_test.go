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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "excelsearch/internal/errors"
	"excelsearch/internal/tools"
)

func newTestServer() *Server {
	registry := tools.NewRegistry(zerolog.Nop())
	registry.Register(&tools.Operation{
		Name:     "echo",
		Validate: tools.RequireString("message"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"message": args["message"]}, nil
		},
	})
	registry.Register(&tools.Operation{
		Name: "boom",
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, apperrors.New(apperrors.CodeFileNotFound, "file does not exist: x.xlsx")
		},
	})
	return New(registry, zerolog.Nop())
}

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &decoded), "line: %s", line)
	return decoded
}

func TestHandleDispatchesOperation(t *testing.T) {
	s := newTestServer()

	envelope := s.Handle(context.Background(), `{"operation":"echo","arguments":{"message":"hi"}}`)
	assert.True(t, envelope.Success)
}

func TestHandleMalformedJSON(t *testing.T) {
	s := newTestServer()

	envelope := s.Handle(context.Background(), `{"operation": nope}`)
	assert.False(t, envelope.Success)
	assert.Equal(t, apperrors.CodeValidation, envelope.ErrorCode)
}

func TestHandleMissingOperation(t *testing.T) {
	s := newTestServer()

	envelope := s.Handle(context.Background(), `{"arguments":{}}`)
	assert.False(t, envelope.Success)
	assert.Equal(t, apperrors.CodeMissingArgument, envelope.ErrorCode)
}

func TestHandleUnknownOperation(t *testing.T) {
	s := newTestServer()

	envelope := s.Handle(context.Background(), `{"operation":"nope"}`)
	assert.False(t, envelope.Success)
	assert.Equal(t, apperrors.CodeUnknownOperation, envelope.ErrorCode)
}

func TestRunAnswersOneEnvelopePerLine(t *testing.T) {
	s := newTestServer()

	in := strings.Join([]string{
		`{"operation":"echo","arguments":{"message":"first"}}`,
		``,
		`not json at all`,
		`{"operation":"boom"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, s.Run(context.Background(), strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// The blank line is skipped; three requests, three responses.
	require.Len(t, lines, 3)

	first := decodeLine(t, lines[0])
	assert.Equal(t, true, first["success"])
	assert.Equal(t, "first", first["message"])

	second := decodeLine(t, lines[1])
	assert.Equal(t, false, second["success"])
	assert.Equal(t, "VALIDATION_ERROR", second["errorCode"])

	third := decodeLine(t, lines[2])
	assert.Equal(t, false, third["success"])
	assert.Equal(t, "FILE_NOT_FOUND", third["errorCode"])
	assert.Equal(t, "file does not exist: x.xlsx", third["error"])
}

func TestRunStopsAtEOF(t *testing.T) {
	s := newTestServer()

	var out bytes.Buffer
	err := s.Run(context.Background(), strings.NewReader(""), &out)
	assert.NoError(t, err)
	assert.Empty(t, out.String())
}
