// Package transport writes JSON responses and maps domain errors onto HTTP
// status codes.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"animeshop-be/internal/apperr"
	"animeshop-be/internal/logger"

	"go.uber.org/zap"
)

const serverErrorMessage = "Server error"

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

func Created(w http.ResponseWriter, v any) {
	JSON(w, http.StatusCreated, v)
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Message: msg})
}

// StatusOf maps an error kind to its HTTP status. Authorization failures are
// reported as 401, not 403.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthentication, apperr.KindAuthorization:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"message", "error"?}. Server-side failures are logged
// and their details kept out of the body in production.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := StatusOf(kind)

	body := errorBody{Message: apperr.MessageOf(err)}
	if status >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		body.Message = serverErrorMessage
		if exposeDetails {
			body.Error = err.Error()
		}
	} else if cause := causeOf(err); cause != "" && exposeDetails {
		body.Error = cause
	}

	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	JSON(w, status, body)
}

var exposeDetails = true

// HideErrorDetails drops the "error" field from error bodies. Called once at
// startup in production.
func HideErrorDetails() {
	exposeDetails = false
}

func causeOf(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Err == nil {
		return ""
	}
	var inner *apperr.Error
	if errors.As(e.Err, &inner) {
		return ""
	}
	return e.Err.Error()
}
