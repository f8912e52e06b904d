package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
	"github.com/xenking/scoop/internal/domain/order"
)

// Error kinds reported in the "error" field of error bodies.
const (
	kindValidation   = "validation"
	kindNotFound     = "not_found"
	kindConflict     = "conflict"
	kindUnauthorized = "unauthorized"
	kindForbidden    = "forbidden"
	kindPersistence  = "persistence"
	kindInternal     = "internal"
)

type apiError struct {
	status  int
	kind    string
	message string
}

// classify maps err to an HTTP status, a stable kind and a client message.
func classify(err error) apiError {
	var (
		bre        *badRequestError
		flavorErr  *flavor.InvalidError
		custErr    *customer.InvalidError
		lineErr    *order.InvalidLineError
		unknownErr *order.UnknownFlavorError
		transErr   *order.TransitionError
		statusErr  *order.InvalidStatusError
		persistErr *order.PersistenceError
	)
	switch {
	case errors.As(err, &bre):
		return apiError{http.StatusBadRequest, kindValidation, bre.msg}
	case errors.As(err, &flavorErr):
		return apiError{http.StatusBadRequest, kindValidation, flavorErr.Error()}
	case errors.As(err, &custErr):
		return apiError{http.StatusBadRequest, kindValidation, custErr.Error()}
	case errors.Is(err, errUnauthenticated), errors.Is(err, customer.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, kindUnauthorized, err.Error()}
	case errors.Is(err, errForbidden):
		return apiError{http.StatusForbidden, kindForbidden, err.Error()}
	case errors.Is(err, flavor.ErrNotFound), errors.Is(err, customer.ErrNotFound):
		return apiError{http.StatusNotFound, kindNotFound, err.Error()}
	case errors.Is(err, flavor.ErrDuplicateName), errors.Is(err, flavor.ErrInUse),
		errors.Is(err, customer.ErrEmailTaken):
		return apiError{http.StatusConflict, kindConflict, rootMessage(err)}
	case errors.Is(err, order.ErrEmptyOrder), errors.As(err, &statusErr):
		return apiError{http.StatusBadRequest, kindValidation, err.Error()}
	case errors.As(err, &lineErr), errors.As(err, &unknownErr), errors.As(err, &transErr):
		return apiError{http.StatusUnprocessableEntity, kindValidation, err.Error()}
	case errors.Is(err, order.ErrCustomerNotFound), errors.Is(err, order.ErrOrderNotFound):
		return apiError{http.StatusNotFound, kindNotFound, err.Error()}
	case errors.As(err, &persistErr):
		return apiError{http.StatusInternalServerError, kindPersistence, "storage failure, please retry"}
	default:
		return apiError{http.StatusInternalServerError, kindInternal, "internal server error"}
	}
}

// rootMessage strips wrapping context added by services.
func rootMessage(err error) string {
	for _, target := range []error{flavor.ErrDuplicateName, flavor.ErrInUse, customer.ErrEmailTaken} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// fail writes the error response for err. Server-side failures are logged.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	if ae.status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, ae.status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(ae.status) })
			e.Field("error", func(e *jx.Encoder) { e.Str(ae.kind) })
			e.Field("message", func(e *jx.Encoder) { e.Str(ae.message) })
		})
	})
}
