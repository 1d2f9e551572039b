package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/setuphub/setuphub/pkg/errors"
)

var errorCodes = map[int]string{
	http.StatusBadRequest:            "bad_request",
	http.StatusUnauthorized:          "unauthorized",
	http.StatusForbidden:             "forbidden",
	http.StatusNotFound:              "not_found",
	http.StatusConflict:              "conflict",
	http.StatusRequestEntityTooLarge: "payload_too_large",
	http.StatusTooManyRequests:       "too_many_requests",
	http.StatusServiceUnavailable:    "service_unavailable",
}

// handleError writes the JSON error body for err. Server errors never
// expose their cause; it is attached to the gin context for the request log.
func handleError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	_ = c.Error(err)

	code, ok := errorCodes[status]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
		return
	}

	body := gin.H{
		"error":   code,
		"message": errorMessage(err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(status, body)
}

// errorMessage returns the client-facing message without wrapped causes
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{
		"error":   "bad_request",
		"message": message,
	}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
