package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akgupta-cs/mediavault/internal/common"
)

// wire error kinds understood by the client
const (
	kindAuthRequired   = "auth_required"
	kindUnauthorized   = "unauthorized"
	kindNotImplemented = "not_implemented"
	kindNotFound       = "not_found"
	kindInvalid        = "invalid"
	kindPinMismatch    = "pin_mismatch"
	kindInternal       = "internal"
)

const codeTokenExpired = "token_expired"

type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error wireError `json:"error"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error(ctx, "encoding response failed", "error", err)
	}
}

// writeError translates service errors into the wire envelope. Unknown
// errors are logged and reported as a bare internal failure.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	we := wireError{Kind: kindInternal, Message: "internal error"}

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		status = http.StatusUnauthorized
		we = wireError{Kind: kindAuthRequired, Message: "access token expired", Code: codeTokenExpired}
	case errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
		we = wireError{Kind: kindAuthRequired, Message: "authentication required"}
	case errors.Is(err, common.ErrRefreshTokenExpired):
		status = http.StatusUnauthorized
		we = wireError{Kind: kindAuthRequired, Message: "session expired, log in again"}
	case errors.Is(err, common.ErrUnauthorized):
		status = http.StatusForbidden
		we = wireError{Kind: kindUnauthorized, Message: "permission denied"}
	case errors.Is(err, common.ErrPinMismatch):
		status = http.StatusForbidden
		we = wireError{Kind: kindPinMismatch, Message: "pin does not match"}
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
		we = wireError{Kind: kindNotFound, Message: "not found"}
	case errors.Is(err, common.ErrNotImplemented):
		status = http.StatusNotImplemented
		we = wireError{Kind: kindNotImplemented, Message: "coming soon"}
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
		we = wireError{Kind: kindInvalid, Message: "already exists"}
	case errors.Is(err, common.ErrNameRequired), errors.Is(err, common.ErrInvalidPinFormat):
		status = http.StatusBadRequest
		we = wireError{Kind: kindInvalid, Message: err.Error()}
	default:
		s.log.Error(ctx, "request failed", "error", err)
	}

	s.writeJSON(ctx, w, status, errorEnvelope{Error: we})
}

// writeInvalid reports a malformed request without a sentinel behind it.
func (s *Server) writeInvalid(ctx context.Context, w http.ResponseWriter, message string) {
	s.writeJSON(ctx, w, http.StatusBadRequest, errorEnvelope{
		Error: wireError{Kind: kindInvalid, Message: message},
	})
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
