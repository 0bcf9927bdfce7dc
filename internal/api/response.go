package api

import (
	"net/http"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/common/validation"

	"github.com/gin-gonic/gin"
)

// respondError aborts with {"error", "code"} using the status mapped from
// the error code. Unclassified errors become INTERNAL_ERROR.
func respondError(c *gin.Context, err error) {
	stdErr, ok := errors.As(err)
	if !ok {
		stdErr = errors.NewInternalError(err)
	}
	_ = c.Error(err)

	status := errors.HTTPStatus(stdErr.Code)
	body := gin.H{
		"error": stdErr.Message,
		"code":  stdErr.Code,
	}
	if status < http.StatusInternalServerError && stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	c.AbortWithStatusJSON(status, body)
}

// respondBindError reports request binding and validation failures.
func respondBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  "Invalid request",
		"code":   errors.ErrCodeInvalidRequest,
		"fields": validation.Describe(err),
	})
}
