package gateway

import (
	"path"
	"sync"

	"github.com/poolchaos/personalfit-api/internal/config"
)

// DefaultRoutes is used when configuration supplies no route table.
// Patterns are matched in order, first match wins.
var DefaultRoutes = []config.RouteConfig{
	{Pattern: "gpt-*", TargetID: "openai"},
	{Pattern: "claude-*", TargetID: "anthropic"},
	{Pattern: "gemini-*", TargetID: "google"},
	{Pattern: "llama*", TargetID: "ollama"},
}

// routeTable maps model-id glob patterns to provider ids. It is
// thread-safe: the bootstrap writes it once, request handlers read it
// concurrently.
type routeTable struct {
	mu     sync.RWMutex
	routes []config.RouteConfig
}

func newRouteTable(routes []config.RouteConfig) *routeTable {
	if len(routes) == 0 {
		routes = DefaultRoutes
	}
	return &routeTable{routes: routes}
}

// resolve returns the provider id for a model, walking the table in
// declaration order.
func (t *routeTable) resolve(modelID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.routes {
		if ok, err := path.Match(r.Pattern, modelID); err == nil && ok {
			return r.TargetID, true
		}
	}
	return "", false
}

func (t *routeTable) replace(routes []config.RouteConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = routes
}
