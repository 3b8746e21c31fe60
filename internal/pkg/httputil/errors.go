package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/bloomshop/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// ErrorMapping binds a sentinel error to a response status.
// An empty Message sends err.Error() to the client.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// HandleError writes the response for err. Mappings are checked in order
// with errors.Is; oversized bodies map to 413 and validator errors to 400.
// Anything else is logged and answered with a generic 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		Error(w, m.Status, msg)
		return
	}

	var (
		maxBytesErr   *http.MaxBytesError
		validationErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &maxBytesErr):
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &validationErr):
		ValidationError(w, validationErr)
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		ctxlog.FromContext(ctx).Debug("request canceled", "error", err)
		w.WriteHeader(StatusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		ctxlog.FromContext(ctx).Warn("request timed out", "error", err)
		Error(w, http.StatusServiceUnavailable, "request timed out")
	default:
		ctxlog.FromContext(ctx).Error("internal error", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// StatusClientClosedRequest is the nginx convention for a request the client abandoned.
const StatusClientClosedRequest = 499
