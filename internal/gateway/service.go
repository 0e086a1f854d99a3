package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/poolchaos/personalfit-api/internal/config"
	"github.com/poolchaos/personalfit-api/internal/llm"
	"go.uber.org/zap"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrRouteNotFound    = errors.New("no provider configured for this model")
)

// Service routes model ids to registered providers and executes
// completions against them.
type Service interface {
	// RegisterProvider makes a provider available for routing.
	RegisterProvider(p llm.Provider)

	// Resolve returns the provider responsible for a model id.
	Resolve(modelID string) (llm.Provider, error)

	// Complete routes req.Model and executes the completion. Provider
	// failures come back classified as *llm.ProviderError.
	Complete(ctx context.Context, req *llm.Request) (*llm.Response, error)

	// ProviderNames lists registered provider ids, sorted.
	ProviderNames() []string

	// Health checks every registered provider, bounding each probe by
	// timeout. A nil map value means healthy.
	Health(ctx context.Context, timeout time.Duration) map[string]error
}

type service struct {
	logger    *zap.Logger
	routes    *routeTable
	mu        sync.RWMutex
	providers map[string]llm.Provider
}

func NewService(logger *zap.Logger, routes []config.RouteConfig) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		logger:    logger,
		routes:    newRouteTable(routes),
		providers: make(map[string]llm.Provider),
	}
}

func (s *service) RegisterProvider(p llm.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.Name()] = p
}

func (s *service) Resolve(modelID string) (llm.Provider, error) {
	providerID, ok := s.routes.resolve(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, modelID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.providers[providerID]
	if !exists {
		return nil, fmt.Errorf("%w: %s (routed from %s)", ErrProviderNotFound, providerID, modelID)
	}
	return p, nil
}

func (s *service) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	provider, err := s.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("completion served",
		zap.String("provider", provider.Name()),
		zap.String("model", req.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

func (s *service) ProviderNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *service) Health(ctx context.Context, timeout time.Duration) map[string]error {
	s.mu.RLock()
	providers := make(map[string]llm.Provider, len(s.providers))
	for name, p := range s.providers {
		providers[name] = p
	}
	s.mu.RUnlock()

	results := make(map[string]error, len(providers))
	for name, p := range providers {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		results[name] = p.Health(probeCtx)
		cancel()
	}
	return results
}
