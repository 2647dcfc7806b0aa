package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salesboard/internal/core/apperror"
	appctx "salesboard/internal/core/context"
	"salesboard/internal/infrastructure/http/v1/dto"
	"salesboard/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			switch {
			case apperror.IsUnavailable(appErr):
				logger.Warn(c.Request.Context(), "sales source failed",
					"code", appErr.Code,
					"source", appErr.Details["source"],
					"cause", appErr.Err,
				)
			case appErr.Err != nil:
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			})
			return
		}

		// Unknown error - log and return generic message
		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{
				"request_id": appctx.RequestID(c.Request.Context()),
			},
		})
	}
}
