// Package envelope builds the {success, data|error} wrapper returned by
// every request, whatever the front end.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// GenericFailure is the message used when nothing more specific is known.
const GenericFailure = "internal error"

// fallbackDocument is written when an envelope cannot be encoded.
var fallbackDocument = []byte(`{"success": false, "error": "` + GenericFailure + `"}`)

// Envelope is the response of one request. Values are built once and not
// modified afterwards; use the methods to derive copies.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Success wraps a single item or a list of items.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Failure wraps a short message and an optional diagnostic trace.
func Failure(message, details string) Envelope {
	if strings.TrimSpace(message) == "" {
		message = GenericFailure
	}
	return Envelope{Success: false, Error: message, Details: details}
}

// FromError uses the outermost message of err and keeps the full chain of
// wrapped errors as details.
func FromError(err error) Envelope {
	if err == nil {
		return Failure(GenericFailure, "")
	}
	return Failure(err.Error(), chain(err))
}

// FromPanic converts a recovered value into a failure carrying the stack.
func FromPanic(v any) Envelope {
	return Failure(fmt.Sprintf("%s: %v", GenericFailure, v), string(debug.Stack()))
}

// Public returns a copy of e, dropping details unless includeDetails is set.
func (e Envelope) Public(includeDetails bool) Envelope {
	if !includeDetails {
		e.Details = ""
	}
	return e
}

// MarshalIndent renders e as indented JSON without HTML escaping. It never
// fails: when e cannot be encoded a fixed generic failure is returned.
func (e Envelope) MarshalIndent() []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return append([]byte(nil), fallbackDocument...)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

func chain(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("%T: %s", e, e.Error()))
	}
	return strings.Join(lines, "\n")
}
