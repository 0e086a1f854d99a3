package store

import (
	"context"
	"errors"
	"time"

	"github.com/poolchaos/personalfit-api/internal/store/model"
)

type contextKey string

const (
	ContextKeyAPIKey  contextKey = "api_key"
	ContextKeyAppName contextKey = "app_name"
)

// ErrNotFound is returned by lookups for missing rows so callers do
// not need to know the driver's sentinel.
var ErrNotFound = errors.New("not found")

// Repository is the main contract for the data layer.
type Repository interface {
	Plans() PlanRepository
	Generations() GenerationRepository
	APIKeys() APIKeyRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type PlanRepository interface {
	// Create persists an accepted plan.
	Create(ctx context.Context, plan *model.StoredPlan) error
	GetByID(ctx context.Context, id string) (*model.StoredPlan, error)
	// ListByUser returns plans newest-first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.StoredPlan, error)
}

type GenerationRepository interface {
	// Create stores one generation record.
	Create(ctx context.Context, gen *model.Generation) error
	// CreateBatch stores a batch in one statement; used by the
	// analytics ingestor's flush path.
	CreateBatch(ctx context.Context, gens []*model.Generation) error
	GetByID(ctx context.Context, id string) (*model.Generation, error)
	// ListRecent returns the last N generations for a user.
	ListRecent(ctx context.Context, userID string, limit int) ([]model.Generation, error)
	// PurgeBefore deletes generation rows older than cutoff and
	// reports how many went away.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// DailyStats aggregates usage grouped by day.
	DailyStats(ctx context.Context, days int) ([]model.UsageStat, error)
}

type APIKeyRepository interface {
	// GetByHash retrieves a key by its hashed value (for auth).
	GetByHash(ctx context.Context, hash string) (*model.APIKey, error)
	// Create issues a new API key.
	Create(ctx context.Context, key *model.APIKey) error
	// Touch updates the last-used timestamp.
	Touch(ctx context.Context, id string) error
}
