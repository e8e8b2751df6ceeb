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
	"encoding/json"
	"fmt"

	apperrors "excelsearch/internal/errors"
)

// Envelope is the uniform result of every operation: a typed payload on
// success, a coded error otherwise. It collapses to the wire JSON shape only
// when marshaled; nothing crosses the dispatcher boundary as a fault.
type Envelope struct {
	Success      bool
	Payload      any
	ErrorMessage string
	ErrorCode    apperrors.Code
}

// OK wraps a success payload. The payload must marshal to a JSON object.
func OK(payload any) Envelope {
	return Envelope{Success: true, Payload: payload}
}

// Fail converts an error into a failure envelope, deriving the wire code.
func Fail(err error) Envelope {
	return Envelope{
		Success:      false,
		ErrorMessage: err.Error(),
		ErrorCode:    apperrors.CodeOf(err),
	}
}

// MarshalJSON flattens the payload fields next to the success flag, so the
// wire shape is {"success": true, ...payload fields} or
// {"success": false, "error": ..., "errorCode": ...}.
func (e Envelope) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}

	if e.Success && e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("payload is not a JSON object: %w", err)
		}
	}

	success, err := json.Marshal(e.Success)
	if err != nil {
		return nil, err
	}
	fields["success"] = success

	if !e.Success {
		msg, err := json.Marshal(e.ErrorMessage)
		if err != nil {
			return nil, err
		}
		code, err := json.Marshal(string(e.ErrorCode))
		if err != nil {
			return nil, err
		}
		fields["error"] = msg
		fields["errorCode"] = code
	}

	return json.Marshal(fields)
}
