package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poolchaos/personalfit-api/internal/store"
)

// maxAppNameLen keeps a hostile header from bloating every log line.
const maxAppNameLen = 64

// Identity extracts the optional X-App-Name header so access logs and
// generation records can attribute traffic to a calling application.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := sanitizeAppName(c.GetHeader("X-App-Name")); name != "" {
			ctx := context.WithValue(c.Request.Context(), store.ContextKeyAppName, name)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// AppNameFrom returns the calling application's name, or "" when the
// caller did not identify itself.
func AppNameFrom(ctx context.Context) string {
	if v, ok := ctx.Value(store.ContextKeyAppName).(string); ok {
		return v
	}
	return ""
}

func sanitizeAppName(raw string) string {
	name := strings.TrimSpace(raw)
	if len(name) > maxAppNameLen {
		name = name[:maxAppNameLen]
	}
	// Header values can carry control bytes; logs should not.
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
