package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/csemotors/internal/common"
	"github.com/dmitrijs2005/csemotors/internal/server/flash"
)

const (
	msgPleaseLogIn   = "Please log in."
	msgCredentials   = "Please check your credentials and try again."
	msgGenericFailed = "Sorry, something went wrong. Please try again."
	msgServerError   = "Oh no! There was a crash. Maybe try a different route?"
	msgPageNotFound  = "Sorry, we appear to have lost that page."
)

// failure is what the visitor sees when an operation does not succeed.
type failure struct {
	status  int
	kind    flash.Kind
	message string
	// internal failures are logged with full detail and never shown.
	internal bool
}

// describeFailure maps a service error onto a response. fallback is the
// operation specific message used for every class whose message is not
// fixed.
func describeFailure(err error, fallback string) failure {
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		return failure{status: http.StatusUnauthorized, kind: flash.KindNotice, message: msgPleaseLogIn}
	case errors.Is(err, common.ErrInvalidCredentials):
		return failure{status: http.StatusBadRequest, kind: flash.KindNotice, message: msgCredentials}
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return failure{status: http.StatusBadRequest, kind: flash.KindError, message: fallback}
	case errors.Is(err, common.ErrorNotFound):
		return failure{status: http.StatusNotFound, kind: flash.KindError, message: fallback}
	case errors.Is(err, common.ErrorUnauthorized):
		return failure{status: http.StatusForbidden, kind: flash.KindNotice, message: msgPleaseLogIn}
	}
	return failure{status: http.StatusInternalServerError, kind: flash.KindError, message: fallback, internal: true}
}

func (h *Handler) report(r *http.Request, op string, err error, f failure) {
	fields := []any{"operation", op, "status_code", f.status, "request_id", requestIDFromContext(r.Context()), "error", err}
	if f.internal {
		h.logger.Error(r.Context(), "operation failed", fields...)
		return
	}
	h.logger.Debug(r.Context(), "operation rejected", fields...)
}
