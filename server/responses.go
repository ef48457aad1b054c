package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/token/refresh"
	"github.com/rs/zerolog/log"
)

// Error codes returned in the "code" field of JSON error bodies.
const (
	codeAuthExpired  = "AUTH_EXPIRED"
	codeAuthRetry    = "AUTH_RETRY"
	codeAuthFailed   = "AUTH_FAILED"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeBadRequest   = "BAD_REQUEST"
	codeUnavailable  = "SERVICE_UNAVAILABLE"
	codeInternal     = "INTERNAL_ERROR"
)

const msgAuthExpired = "Authentication expired. Please sign in again."

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeJSONError writes an error body
func writeJSONError(w http.ResponseWriter, status int, message, code, details string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code, Details: details})
}

// writeMailError maps a failure from the token manager or the mail layer to a response.
// Terminal refresh failures are handled by the caller, which also signs the user out.
func writeMailError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, refresh.ErrTransientRefresh):
		writeJSONError(w, http.StatusServiceUnavailable, "Could not refresh access to Gmail. Please try again.", codeAuthRetry, "")
	case errors.Is(err, errors.ErrMailAuthFailed):
		writeJSONError(w, http.StatusUnauthorized, "Gmail authentication failed", codeAuthFailed, err.Error())
	case errors.Is(err, errors.ErrMessageNotFound):
		writeJSONError(w, http.StatusNotFound, "Email not found", codeNotFound, "")
	case errors.Is(err, errors.ErrAttachmentNotFound):
		writeJSONError(w, http.StatusNotFound, "Attachment not found", codeNotFound, "")
	case errors.Is(err, errors.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Not found", codeNotFound, "")
	case errors.Is(err, errors.ErrInvalidReplyRequest), errors.Is(err, errors.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, "Invalid request", codeBadRequest, err.Error())
	case errors.Is(err, errors.ErrMailUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, "Gmail is unavailable. Please try again.", codeUnavailable, "")
	default:
		writeJSONError(w, http.StatusInternalServerError, fallback, codeInternal, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "decoding body: %v", err)
	}
	return nil
}
