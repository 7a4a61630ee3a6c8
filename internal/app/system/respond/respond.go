// Package respond writes the JSON envelope used by every API handler:
// {"success": true, "data": ...} on success and
// {"success": false, "error": "..."} on failure.
//
// Handlers translate all failures at their boundary through this package; raw
// errors and stack traces never reach a response body.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSON writes a success envelope with the given payload.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{Success: true, Data: data})
}

// Message writes a success envelope with a human-readable message and no data.
func Message(w http.ResponseWriter, status int, msg string) {
	write(w, status, Envelope{Success: true, Message: msg})
}

// Err writes a failure envelope with the given status and message.
func Err(w http.ResponseWriter, status int, msg string) {
	write(w, status, Envelope{Success: false, Error: msg})
}

// BadRequest writes a 400 validation or conflict error.
func BadRequest(w http.ResponseWriter, msg string) {
	Err(w, http.StatusBadRequest, msg)
}

// Unauthorized writes a generic 401. The message is deliberately uniform so
// the response never reveals whether a user exists.
func Unauthorized(w http.ResponseWriter) {
	Err(w, http.StatusUnauthorized, "Invalid token")
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter) {
	Err(w, http.StatusForbidden, "Access forbidden")
}

// NotFound writes a 404. Resources outside the caller's tenant scope use the
// same message as resources that do not exist.
func NotFound(w http.ResponseWriter, what string) {
	Err(w, http.StatusNotFound, what+" not found")
}

// ServerError logs the underlying error and writes a generic 500.
func ServerError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	if log != nil {
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	}
	Err(w, http.StatusInternalServerError, "Server error")
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding an Envelope of JSON-safe fields cannot fail in practice;
	// the error is ignored the same way the response writer's is.
	_ = json.NewEncoder(w).Encode(env)
}
