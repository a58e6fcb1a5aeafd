package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/raimangsxr/my-warehouse/internal/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("httpapi: encode response failed", "error", err)
	}
}

type errorBody struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError converts err to an HTTP status per spec.md §7. Unrecognized
// errors never leak internal detail: they become a bare 500.
func writeError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		writeJSON(w, statusForKind(apiErr.Kind), errorBody{Detail: apiErr.Detail, Fields: apiErr.Fields})
		return
	}
	logger.Error("httpapi: unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal error"})
}

func statusForKind(k apierror.Kind) int {
	switch k {
	case apierror.KindInvalidInput:
		return http.StatusBadRequest
	case apierror.KindUnauthenticated:
		return http.StatusUnauthorized
	case apierror.KindForbidden:
		return http.StatusForbidden
	case apierror.KindNotFound:
		return http.StatusNotFound
	case apierror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.InvalidInput("malformed request body")
	}
	return nil
}
