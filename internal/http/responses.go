package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pocketmoney/internal/core"
	"pocketmoney/internal/log"
)

type errorBody struct {
	Error    string          `json:"error"`
	Failures []failureDetail `json:"failures,omitempty"`
}

type failureDetail struct {
	EntryID string `json:"entryId"`
	Op      string `json:"op"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err, "status", status)
	}
}

// writeError maps err onto a status code and a JSON error body. Server side
// failures are logged with the request context.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", log.FieldError, err, "method", r.Method, "path", r.URL.Path)
	}
	body := errorBody{Error: err.Error()}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var (
		bad     *badRequest
		fetch   *core.DataFetchError
		failure *core.ApprovalFailure
	)
	switch {
	case errors.As(err, &bad),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyNarrative),
		errors.Is(err, core.ErrEmptyChoreName),
		errors.Is(err, core.ErrEmptyKid),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidChoreType),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrFutureEntry):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetch), errors.As(err, &failure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func failureDetails(be *core.BatchError) []failureDetail {
	out := make([]failureDetail, len(be.Failures))
	for i, f := range be.Failures {
		out[i] = failureDetail{EntryID: f.EntryID, Op: f.Op, Error: f.Err.Error()}
	}
	return out
}
