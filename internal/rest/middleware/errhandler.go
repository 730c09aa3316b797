package middleware

import (
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

const defaultDisplayMessage = "An unexpected error occurred"

// ErrorHandler renders the last error attached to the context. Server side
// failures are logged with the request id.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.WithContext(c.Request.Context()).Errorw("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", status,
				"error", err,
			)
		}

		c.JSON(status, NewErrorResponse(err))
	}
}

// NewErrorResponse builds the error body. internal_error is only the message
// chain, never the stack.
func NewErrorResponse(err error) ierr.ErrorResponse {
	display := ierr.DisplayMessage(err)
	if display == "" {
		display = defaultDisplayMessage
	}

	return ierr.ErrorResponse{
		Success: false,
		Error: ierr.ErrorDetail{
			Display:       display,
			Code:          ierr.CodeFromErr(err),
			InternalError: err.Error(),
			Details:       ierr.ReportableDetails(err),
		},
	}
}
