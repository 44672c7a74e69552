package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/JonMunkholm/signup/internal/logging"
)

// errorBody matches the JSON error shape written by the web package.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// writeError logs err and writes its mapped user message as JSON.
func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Warn("request refused",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
