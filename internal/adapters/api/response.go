package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/text/language"

	"rollcall/internal/domain"
	"rollcall/internal/infrastructure/i18n"
	"rollcall/internal/platform/sentinel"
	"rollcall/internal/ports/output"
)

type Response struct {
	Data          any    `json:"data,omitempty"`
	Success       bool   `json:"success"`
	Code          string `json:"code,omitempty"`
	StatusMessage string `json:"status_message"`
	Timestamp     string `json:"timestamp"`
}

func Ok(data any) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

func Error(code, message string) Response {
	return Response{
		Success:       false,
		Code:          code,
		StatusMessage: message,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

var statusByCode = map[string]int{
	"event_not_found":        http.StatusNotFound,
	"not_registered":         http.StatusNotFound,
	"already_registered":     http.StatusConflict,
	"already_attended":       http.StatusConflict,
	"ticket_already_used":    http.StatusConflict,
	"cannot_reduce_capacity": http.StatusConflict,
	"capacity_race_lost":     http.StatusConflict,
	"conflict":               http.StatusConflict,
	"invalid_token":          http.StatusUnprocessableEntity,
	"ticket_expired":         http.StatusGone,
	"invalid_capacity":       http.StatusBadRequest,
	"not_authorized":         http.StatusForbidden,
	"scan_throttled":         http.StatusTooManyRequests,
}

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByCode[domain.Code(err)]; ok {
		return status
	}
	switch {
	case errors.Is(err, sentinel.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// renderError writes err in the caller's language when a translator is set.
func renderError(w http.ResponseWriter, r *http.Request, tr output.Translator, err error) {
	code := domain.Code(err)
	message := err.Error()
	if tr != nil {
		message = tr.T(requestLocale(r), i18n.ErrorKey(code), nil)
	}
	render.Status(r, StatusFor(err))
	render.JSON(w, r, Error(code, message))
}

func requestLocale(r *http.Request) string {
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, _ := tags[0].Base()
	return base.String()
}
