// Package middleware provides HTTP middleware components.
package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"salesboard/internal/core/apperror"
	appctx "salesboard/internal/core/context"
	"salesboard/internal/infrastructure/http/v1/dto"
	"salesboard/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Logs stack trace but never exposes internal details to client. A panic
// caused by a dropped client connection (common mid CSV export) is logged
// without a stack and no response is attempted.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if brokenPipe(rec) {
				logger.Warn(c.Request.Context(), "client connection lost",
					"path", c.Request.URL.Path,
					"error", rec,
				)
				c.Abort()
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", rec,
				"stack", string(debug.Stack()),
			)

			requestID := appctx.RequestID(c.Request.Context())
			_ = c.Error(
				apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
					WithDetail("request_id", requestID),
			)

			// The panic unwound ErrorHandler, so the response is written here.
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Code:    apperror.CodeInternal,
				Message: "Internal server error",
				Details: map[string]any{"request_id": requestID},
			})
		}()
		c.Next()
	}
}

func brokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	if errors.Is(err, http.ErrAbortHandler) {
		return true
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
