package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxPlainMessage bounds how much of a non-JSON body is shown to the user.
const maxPlainMessage = 200

// ErrResponseTooLarge is returned when a response body exceeds the client limit.
var ErrResponseTooLarge = errors.New("response too large")

// Error is a non-2xx response from the finance API.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// IsUnauthorized reports whether the API rejected the session.
func (e *Error) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// MessageOf returns the user-facing message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrResponseTooLarge) {
		return "The server response was too large to display."
	}
	return fallback
}

// ExtractMessage reads a message from an error payload. Order:
// object field "message", object field "error" when a string,
// nested "error.message", a bare JSON string, then short plain text.
func ExtractMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if s := rawString(obj["message"]); s != "" {
			return s
		}
		if s := rawString(obj["error"]); s != "" {
			return s
		}
		var nested map[string]json.RawMessage
		if raw, ok := obj["error"]; ok && json.Unmarshal(raw, &nested) == nil {
			if s := rawString(nested["message"]); s != "" {
				return s
			}
		}
		return ""
	}

	if s := rawString(body); s != "" {
		return s
	}

	if json.Valid(body) || !utf8.Valid(body) {
		return ""
	}
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") || utf8.RuneCountInString(text) > maxPlainMessage {
		return ""
	}
	return text
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
