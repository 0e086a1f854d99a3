package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/pkg/api"
)

// ErrorHandler renders the last error a handler attached via c.Error.
// Problems serialize as RFC 9457 documents at the response root;
// anything else collapses to an opaque 500 so internals never leak.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var problem *api.Problem
		if errors.As(err, &problem) {
			if problem.Log != nil {
				logger.Error("Request failed",
					zap.Int("status", problem.Status),
					zap.String("title", problem.Title),
					zap.Error(problem.Log))
			}
			if problem.Instance == "" {
				problem.Instance = c.Request.URL.Path
			}
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		logger.Error("Unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))

		c.JSON(http.StatusInternalServerError, api.InternalError(
			"An unexpected error occurred.", nil,
		))
		c.Abort()
	}
}
