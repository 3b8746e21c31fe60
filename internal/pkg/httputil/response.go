// Package httputil provides HTTP response helper functions.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Payload holds the extra top-level fields merged into a response envelope.
type Payload map[string]interface{}

// JSON writes a raw JSON response without envelope.
// Use OK or Error for {"ok": ...} envelopes.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// OK writes a successful {"ok": true, "msg": ..., ...payload} envelope.
// An empty msg is omitted.
func OK(w http.ResponseWriter, status int, msg string, payload Payload) {
	JSON(w, status, envelope(true, msg, payload))
}

// Error writes a failed {"ok": false, "msg": ...} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, envelope(false, message, nil))
}

// ValidationError writes a validation error response.
// If err is validator.ValidationErrors, returns structured field details.
// Otherwise, returns err.Error() as details string.
func ValidationError(w http.ResponseWriter, err error) {
	var details interface{}
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		fieldErrors := make([]map[string]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			fieldErrors = append(fieldErrors, map[string]string{
				"field":   e.Field(),
				"message": e.Tag(),
			})
		}
		details = fieldErrors
	} else {
		details = err.Error()
	}

	JSON(w, http.StatusBadRequest, envelope(false, "validation error", Payload{"details": details}))
}

func envelope(ok bool, msg string, payload Payload) map[string]interface{} {
	body := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["ok"] = ok
	if msg != "" {
		body["msg"] = msg
	}
	return body
}
