package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/seat-reservation-engine/internal/api"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/jsonutil"
	appvalidator "github.com/metinatakli/seat-reservation-engine/internal/validator"
)

const (
	ErrInternalServer     = "The server encountered a problem and could not process your request"
	ErrNotFound           = "The requested resource not found"
	ErrMethodNotAllowed   = "The method is not supported for this resource"
	ErrUnauthorized       = "You must be authenticated to access this resource"
	ErrForbidden          = "You are not allowed to access this resource"
	ErrValidationFailed   = "One or more fields are invalid"
	ErrSeatUnavailable    = "One or more seats are no longer available"
	ErrHoldNotFound       = "The hold could not be found"
	ErrHoldExpired        = "The hold has expired"
	ErrServiceUnavailable = "The booking could not be recorded, please try again"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	app.writeResponse(w, r, status, resp)
}

func (app *Application) writeResponse(w http.ResponseWriter, r *http.Request, status int, resp any) {
	err := jsonutil.WriteJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorized)
}

func (app *Application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, ErrForbidden)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
}

// failedValidationResponse writes a 422 for validator errors and domain
// validation errors alike.
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fieldErrs validator.ValidationErrors
		domainErr *domain.ValidationError
		issues    []api.ValidationError
	)

	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			issues = append(issues, api.ValidationError{
				Field: fieldName(fe),
				Issue: appvalidator.ValidationMessage(fe),
			})
		}
	case errors.As(err, &domainErr):
		issues = append(issues, api.ValidationError{
			Field: domainErr.Field,
			Issue: domainErr.Issue,
		})
	default:
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrValidationFailed,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: issues,
	}

	app.writeResponse(w, r, http.StatusUnprocessableEntity, resp)
}

func (app *Application) seatUnavailableResponse(w http.ResponseWriter, r *http.Request, err *domain.SeatUnavailableError) {
	resp := api.SeatUnavailableResponse{
		Message:   ErrSeatUnavailable,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
		SeatIds:   domain.SeatIDStrings(err.SeatIDs),
	}

	app.writeResponse(w, r, http.StatusConflict, resp)
}

// reservationErrorResponse maps errors of the reservation engine to statuses.
// A ledger failure is checked first since it may wrap a seat conflict raised
// by the database.
func (app *Application) reservationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *domain.ValidationError
		unavailable   *domain.SeatUnavailableError
	)

	switch {
	case errors.Is(err, domain.ErrLedgerWriteFailed):
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusServiceUnavailable, ErrServiceUnavailable)
	case errors.As(err, &validationErr):
		app.failedValidationResponse(w, r, validationErr)
	case errors.As(err, &unavailable):
		app.seatUnavailableResponse(w, r, unavailable)
	case errors.Is(err, domain.ErrHoldNotFound):
		app.errorResponse(w, r, http.StatusNotFound, ErrHoldNotFound)
	case errors.Is(err, domain.ErrHoldExpired):
		app.errorResponse(w, r, http.StatusGone, ErrHoldExpired)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// fieldName drops the struct name but keeps nested paths such as seatIds[2].
func fieldName(fe validator.FieldError) string {
	if _, path, ok := strings.Cut(fe.Namespace(), "."); ok {
		return path
	}

	return fe.Field()
}
