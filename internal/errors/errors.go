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

package errors

import (
	stderrors "errors"
	"fmt"
)

// Code identifies a class of error for programmatic handling. The string
// values are the wire-level error codes returned in operation envelopes.
type Code string

const (
	CodeFileNotFound      Code = "FILE_NOT_FOUND"
	CodeNotAFile          Code = "NOT_A_FILE"
	CodeAccessDenied      Code = "ACCESS_DENIED"
	CodeFileTooLarge      Code = "FILE_TOO_LARGE"
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	CodeDirectoryNotFound Code = "DIRECTORY_NOT_FOUND"
	CodeNotADirectory     Code = "NOT_A_DIRECTORY"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnknownOperation  Code = "UNKNOWN_OPERATION"
	CodeMissingArgument   Code = "MISSING_ARGUMENT"
	CodeEmptyBatch        Code = "EMPTY_BATCH"
)

// Error wraps an underlying error with a code and message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new coded error that wraps an underlying error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the wire code from an error. Errors that carry no code,
// such as collaborator parse failures, collapse to VALIDATION_ERROR at the
// envelope boundary.
func CodeOf(err error) Code {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return CodeValidation
}
