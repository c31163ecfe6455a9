package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errBodyTooLarge is returned when a request body exceeds maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

// readBodyJSON decodes an optional JSON body; an empty body leaves out untouched.
// Bodies over maxBytes are rejected rather than truncated.
func readBodyJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return domain.Validationf("read body: %v", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

// userIDFromReq reads the acting user supplied by the upstream auth proxy.
func userIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if id == "" {
		writeJSON(w, http.StatusUnauthorized, Fail("missing X-User-Id header", ReasonUnauthorized))
		return "", false
	}
	return id, true
}

// statusFor maps the domain error taxonomy to an HTTP status and reason.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ReasonNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, ReasonInvalidTransition
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, ReasonVersionConflict
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ReasonConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, ReasonValidation
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, ReasonPayloadTooLarge
	default:
		return http.StatusInternalServerError, ReasonInternal
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status, reason := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("op", op), zap.Error(err))
		// Driver details stay in the log.
		msg = fmt.Sprintf("%s failed", op)
	}
	writeJSON(w, status, Fail(msg, reason))
}
