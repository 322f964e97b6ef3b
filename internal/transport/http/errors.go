package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/icsfeed"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidTime        = "invalid_time"
	codeInvalidYear        = "invalid_year"
	codeInvalidID          = "invalid_id"
	codeTitleRequired      = "title_required"
	codeInvalidTimeRange   = "invalid_time_range"
	codeUnknownCategory    = "unknown_category"
	codeUnknownPattern     = "unknown_pattern"
	codeUnknownScope       = "unknown_scope"
	codeValidationFailed   = "validation_failed"
	codeEventNotFound      = "event_not_found"
	codeInvalidCalendar    = "invalid_calendar"
	codeUnauthenticated    = "unauthenticated"
	codeForbidden          = "forbidden"
	codeStoreError         = "store_error"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps an error returned by the calendar services.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		ve *domain.ValidationError
		se *domain.StoreError
	)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, validationCode(ve.Err), err.Error())
	case errors.Is(err, domain.ErrUnknownScope):
		writeError(w, http.StatusBadRequest, codeUnknownScope, err.Error())
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, domain.ErrEventNotFound.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusNotFound, codeInvalidID, domain.ErrInvalidID.Error())
	case errors.Is(err, icsfeed.ErrInvalidCalendar), errors.Is(err, icsfeed.ErrNoEvents):
		writeError(w, http.StatusBadRequest, codeInvalidCalendar, err.Error())
	case errors.As(err, &se):
		writeError(w, http.StatusBadGateway, codeStoreError, fmt.Sprintf("store %s failed", se.Op))
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func validationCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrTitleRequired):
		return codeTitleRequired
	case errors.Is(err, domain.ErrInvalidTimeRange):
		return codeInvalidTimeRange
	case errors.Is(err, domain.ErrUnknownCategory):
		return codeUnknownCategory
	case errors.Is(err, domain.ErrUnknownPattern):
		return codeUnknownPattern
	}
	return codeValidationFailed
}
