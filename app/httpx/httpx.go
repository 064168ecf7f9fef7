// Package httpx holds the JSON and error conventions shared by the API handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	ledgerdb "github.com/Black-And-White-Club/doubles-bot/app/modules/ledger/infrastructure/repositories"
	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	sessiondb "github.com/Black-And-White-Club/doubles-bot/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/doubles-bot/app/observability/attr"
)

// maxBodyBytes caps request bodies; a session submission is a few hundred bytes.
const maxBodyBytes = 64 << 10

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Error      string                   `json:"error"`
	Kind       string                   `json:"kind"`
	Mismatches []sessiondomain.Mismatch `json:"mismatches,omitempty"`
}

// Error kinds.
const (
	KindInvalidInput      = "invalid_input"
	KindIllegalTransition = "illegal_transition"
	KindNotFound          = "not_found"
	KindInconsistent      = "inconsistent"
	KindUnauthorized      = "unauthorized"
	KindForbidden         = "forbidden"
	KindRateLimited       = "rate_limited"
	KindInternal          = "internal"
)

// Transport errors raised by handlers and middleware rather than services.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("too many requests")
)

// Classify maps an error to its HTTP status and kind.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, sessiondomain.ErrInvalidInput):
		return http.StatusBadRequest, KindInvalidInput
	case errors.Is(err, sessiondomain.ErrIllegalTransition):
		return http.StatusConflict, KindIllegalTransition
	case errors.Is(err, sessiondomain.ErrInconsistent):
		return http.StatusConflict, KindInconsistent
	case errors.Is(err, sessiondb.ErrNotFound), errors.Is(err, ledgerdb.ErrNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, KindForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, KindRateLimited
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// WriteJSON encodes v with the given status. Once the header is written an
// encoding failure can only be reported by the returned error.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes an ErrorBody. Internal errors
// are logged and their text is not exposed. A nil logger uses slog.Default.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, kind := Classify(err)
	body := ErrorBody{Error: err.Error(), Kind: kind}

	var consistency *sessiondomain.ConsistencyError
	if errors.As(err, &consistency) {
		body.Mismatches = consistency.Mismatches
	}

	if status == http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "Request failed",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("method", r.Method),
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		body.Error = http.StatusText(status)
	}
	_ = WriteJSON(w, status, body)
}

// DecodeJSON reads a bounded JSON body into v. Malformed bodies are reported
// as invalid input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return sessiondomain.NewInvalidInput("body", "%s", fmt.Sprint(err))
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
// An absent or empty body leaves v untouched. The body is read whatever the
// declared length, so chunked requests are decoded too.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return sessiondomain.NewInvalidInput("body", "%s", fmt.Sprint(err))
	}
	return nil
}
