package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"pocketmoney/internal/core"
)

const maxBodyBytes = 64 << 10

// badRequest marks client input that could not be decoded.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return badRequestf("request body larger than %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return badRequestf("request body is empty")
		default:
			return badRequestf("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequestf("request body must contain a single JSON object")
	}
	return nil
}

// queryDate parses an optional YYYY-MM-DD query value, defaulting to def.
func queryDate(r *http.Request, key string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, badRequestf("%s: %v", key, err)
	}
	return d, nil
}

// queryMonth parses an optional YYYY-MM query value, defaulting to def.
func queryMonth(r *http.Request, key string, def core.Month) (core.Month, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return core.Month{}, badRequestf("%s: %v", key, err)
	}
	return m, nil
}

// pathDate parses a YYYY-MM-DD path value.
func pathDate(r *http.Request, key string) (core.Date, error) {
	d, err := core.ParseDate(r.PathValue(key))
	if err != nil {
		return core.Date{}, badRequestf("%s: %v", key, err)
	}
	return d, nil
}

// parseAmount accepts dot or comma decimal separators.
func parseAmount(field, v string) (decimal.Decimal, error) {
	a, err := core.ParseAmount(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, v, err)
	}
	return a, nil
}
