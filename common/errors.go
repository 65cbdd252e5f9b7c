package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"klinika/content"
	"klinika/validation"
)

// ErrDispatch marks a failure of an external notification or storage collaborator.
var ErrDispatch = errors.New("external dispatch failed")

// StatusOf maps an error to the HTTP status it is reported with.
func StatusOf(err error) int {
	var fieldErrs validation.FieldErrors
	var conflict *validation.Conflict
	switch {
	case errors.As(err, &fieldErrs), errors.As(err, &conflict):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrStale):
		return http.StatusConflict
	case errors.Is(err, ErrDispatch):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// RespondError writes the JSON error envelope for err.
func RespondError(c *gin.Context, err error) {
	status := StatusOf(err)
	body := gin.H{}

	var fieldErrs validation.FieldErrors
	var conflict *validation.Conflict
	switch {
	case errors.As(err, &fieldErrs):
		body["error"] = "Validation failed"
		body["errors"] = fieldErrs
	case errors.As(err, &conflict):
		body["error"] = conflict.Message
		body["errors"] = gin.H{conflict.Field: conflict.Message}
	case status == http.StatusNotFound:
		body["error"] = "Not found"
	case status == http.StatusConflict:
		body["error"] = "Record was modified by someone else, reload and try again"
	case status == http.StatusBadGateway:
		body["error"] = err.Error()
	default:
		_ = c.Error(err)
		zap.L().Error("request error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		body["error"] = "Internal server error"
	}

	c.AbortWithStatusJSON(status, body)
}

// BadRequest reports a malformed parameter outside of the field-level checks.
func BadRequest(c *gin.Context, field, msg string) {
	RespondError(c, validation.FieldErrors{field: msg})
}
