package http

import (
	"errors"
	"net/http"
	"strings"

	"finview/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// pathID reads the {id} wildcard of the matched route.
func pathID(r *http.Request) (core.ID, error) {
	id, err := core.ParseID(r.PathValue("id"))
	if err != nil {
		return "", &FieldError{Field: "id", Err: err}
	}
	return id, nil
}

// pathKind reads the {kind} wildcard naming a transaction partition.
func pathKind(r *http.Request) (core.TransactionKind, error) {
	kind := core.TransactionKind(r.PathValue("kind"))
	if !kind.Valid() {
		return "", &FieldError{Field: "kind", Err: errors.New("must be planned or unplanned")}
	}
	return kind, nil
}
