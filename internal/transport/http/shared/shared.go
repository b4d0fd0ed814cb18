// Package shared holds the JSON response helpers common to all handlers.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"tillbook/pkg/domainerrors"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Errors
// without a domain code are reported as internal without leaking detail.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeInternal
	message := "internal error"

	var de *domainerrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	WriteJSON(w, statusOf(code), map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func statusOf(code domainerrors.Code) int {
	switch code {
	case domainerrors.CodeValidation:
		return http.StatusBadRequest
	case domainerrors.CodeConflict:
		return http.StatusConflict
	case domainerrors.CodeNotFound:
		return http.StatusNotFound
	case domainerrors.CodeCredential:
		return http.StatusUnprocessableEntity
	case domainerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
