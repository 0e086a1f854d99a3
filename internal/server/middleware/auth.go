package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

// staticUserID is the identity attached to requests authenticated with
// a key from the static list (local dev, CI).
const staticUserID = "local"

// Auth validates the Bearer token against the static key list first,
// then the hashed keys in the database. The matched key rides in the
// request context so handlers can attribute work to a user.
func Auth(cfg config.AuthConfig, repo store.Repository) gin.HandlerFunc {
	staticSet := make(map[string]bool, len(cfg.StaticKeys))
	for _, k := range cfg.StaticKeys {
		staticSet[k] = true
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithProblem(c, api.UnauthorizedError("Missing Authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithProblem(c, api.UnauthorizedError("Invalid Authorization header format"))
			return
		}

		token := parts[1]

		if staticSet[token] {
			injectKey(c, &model.APIKey{ID: "static", UserID: staticUserID})
			c.Next()
			return
		}

		hash := sha256.Sum256([]byte(token))
		hashedHex := hex.EncodeToString(hash[:])

		key, err := repo.APIKeys().GetByHash(c.Request.Context(), hashedHex)
		if err != nil {
			abortWithProblem(c, api.UnauthorizedError("Invalid API key"))
			return
		}

		injectKey(c, key)

		// Update last used timestamp (async)
		go func() {
			_ = repo.APIKeys().Touch(context.Background(), key.ID)
		}()

		c.Next()
	}
}

func injectKey(c *gin.Context, key *model.APIKey) {
	ctx := context.WithValue(c.Request.Context(), store.ContextKeyAPIKey, key)
	c.Request = c.Request.WithContext(ctx)
}

// KeyFrom retrieves the authenticated key, if any.
func KeyFrom(ctx context.Context) (*model.APIKey, bool) {
	key, ok := ctx.Value(store.ContextKeyAPIKey).(*model.APIKey)
	return key, ok
}

// UserIDFrom resolves the acting user. Requests that passed through a
// disabled auth layer map to the anonymous user.
func UserIDFrom(ctx context.Context) string {
	if key, ok := KeyFrom(ctx); ok && key.UserID != "" {
		return key.UserID
	}
	return "anonymous"
}

func abortWithProblem(c *gin.Context, p *api.Problem) {
	c.AbortWithStatusJSON(p.Status, p)
}
