package web

// errors.go turns errors into JSON responses.
//
// The technical error is logged with the request ID. The client gets the
// mapped core.UserMessage, plus per-field messages for validation failures.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/JonMunkholm/signup/internal/logging"
)

// ErrorResponse is the JSON body of every error response except store
// rejections, which are passed through as the store sent them.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Fields  []core.FieldError `json:"fields,omitempty"`
}

// respondError logs err and writes its user-facing form with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"code", userMsg.Code,
		"error", err.Error(),
	)
	switch {
	case statusCode >= 500:
		logger.Error("request error")
	case !core.IsUserFacing(err):
		logger.Warn("unmapped request error")
	default:
		logger.Info("request error")
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}

	var verr *core.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	writeJSON(w, statusCode, resp)
}

// rejectionStatus picks the HTTP status for a store rejection.
func rejectionStatus(se *core.StoreError) int {
	switch se.Code {
	case core.SQLStateUniqueViolation:
		return http.StatusConflict
	case core.SQLStateInsufficientPriv:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}
