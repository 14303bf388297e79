package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prispevky/internal/core"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps a domain error to its HTTP status. Validation
// failures are 422, conflicts 409, missing entities 404; anything
// unrecognized is a 500 with the detail kept out of the response.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "Člen nenalezen")
	case errors.Is(err, core.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "Platba nenalezena")
	case errors.Is(err, core.ErrDuplicateMonth):
		writeError(w, http.StatusConflict, "Měsíc je již zaplacen")
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "Neplatná částka")
	case errors.Is(err, core.ErrInvalidMonth):
		writeError(w, http.StatusUnprocessableEntity, "Měsíc nepatří do školního roku")
	case errors.Is(err, core.ErrEmptyFirstName):
		writeError(w, http.StatusUnprocessableEntity, "Chybí jméno")
	case errors.Is(err, core.ErrEmptyLastName):
		writeError(w, http.StatusUnprocessableEntity, "Chybí příjmení")
	case errors.Is(err, core.ErrInvalidGender):
		writeError(w, http.StatusUnprocessableEntity, "Neplatné pohlaví")
	case errors.Is(err, core.ErrInvalidSchoolYear):
		writeError(w, http.StatusUnprocessableEntity, "Neplatný školní rok")
	case errors.Is(err, core.ErrMemberInactive):
		writeError(w, http.StatusUnprocessableEntity, "Člen již není aktivní")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"url", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "Interní chyba serveru")
	}
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// querySchoolYear reads the optional ?year= parameter. Empty means the
// current school year; validation happens in the service.
func querySchoolYear(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("year"))
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
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

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
