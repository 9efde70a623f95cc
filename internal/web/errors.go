package web

// errors.go provides unified error response handling for the dashboard.
//
// Errors are logged with full technical detail and request ID, then returned
// as a user message with a support code, rendered for the caller: an HTML
// fragment for HTMX, JSON for API clients, plain text otherwise.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/cseguard/internal/core"
	"github.com/JonMunkholm/cseguard/internal/ingestclient"
	"github.com/JonMunkholm/cseguard/internal/logging"
	"github.com/JonMunkholm/cseguard/internal/web/views"
)

// errNoFile is returned when a multipart upload has no "file" part.
var errNoFile = errors.New("no file provided")

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes a user-facing error in the format the
// request asks for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := userMessage(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", msg.Code,
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, msg, statusCode)
	case wantsJSON(r):
		writeJSON(w, statusCode, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
	}
}

// userMessage maps err for display. A 4xx from the ingestion service carries
// its own explanation (duplicate, typosquatting) and is shown as-is.
func userMessage(err error) core.UserMessage {
	msg := core.MapError(err)

	var se *ingestclient.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 && se.Detail != "" {
		msg.Message = se.Detail
	}
	return msg
}

// statusFor picks the HTTP status for an error from the import or proxy path.
func statusFor(err error) int {
	var se *ingestclient.StatusError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.Is(err, core.ErrUploadInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoRecords), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.As(err, &se):
		if se.StatusCode >= 400 && se.StatusCode < 500 {
			return se.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = views.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
