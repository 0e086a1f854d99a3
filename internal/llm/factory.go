package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/poolchaos/personalfit-api/internal/config"
)

// ErrUnknownProviderType reports a configuration naming a provider type
// that no adapter package registered.
var ErrUnknownProviderType = errors.New("unknown provider type")

// Factory builds a provider from its configuration. Adapter packages
// register themselves by type in their init functions.
type Factory func(cfg config.ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider type constructible. A duplicate type is a
// programmer error and panics at init time.
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic("duplicate provider factory: " + providerType)
	}
	factories[providerType] = f
}

// New builds a provider for cfg using the factory registered for its
// type. Unknown types wrap ErrUnknownProviderType and name the types
// that were available, since the fix is almost always a typo in config.
func New(cfg config.ProviderConfig) (Provider, error) {
	mu.RLock()
	f, ok := factories[cfg.Type]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)",
			ErrUnknownProviderType, cfg.Type, strings.Join(registeredTypes(), ", "))
	}
	return f(cfg)
}

// registeredTypes returns the known type names in stable order.
func registeredTypes() []string {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
