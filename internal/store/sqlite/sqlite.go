package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	// Create a repository instance that uses the transaction
	txRepo := &SqliteRepository{
		db:       r.db, // Keep the original DB handle
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Plans() store.PlanRepository {
	return &planRepo{db: r.executor}
}

func (r *SqliteRepository) Generations() store.GenerationRepository {
	return &generationRepo{db: r.executor}
}

func (r *SqliteRepository) APIKeys() store.APIKeyRepository {
	return &apiKeyRepo{db: r.executor}
}

type planRepo struct {
	db DB
}

func (r *planRepo) Create(ctx context.Context, plan *model.StoredPlan) error {
	query := `
	INSERT INTO plans (
		id, user_id, name, goal, difficulty, duration_weeks,
		sessions_per_week, document, model_used, generation_id, created_at
	) VALUES (
		:id, :user_id, :name, :goal, :difficulty, :duration_weeks,
		:sessions_per_week, :document, :model_used, :generation_id, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, plan)
	return err
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.StoredPlan, error) {
	var plan model.StoredPlan
	err := r.db.GetContext(ctx, &plan, `SELECT * FROM plans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plan %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.StoredPlan, error) {
	var plans []model.StoredPlan
	query := `SELECT * FROM plans WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	err := r.db.SelectContext(ctx, &plans, query, userID, limit, offset)
	return plans, err
}

type generationRepo struct {
	db DB
}

const insertGenerationQuery = `
	INSERT INTO generations (
		id, user_id, plan_id, model_requested, model_used, status,
		input_tokens, output_tokens, estimated_cost_usd, actual_cost_usd,
		attempt_count, attempts_json, coerced, reprompted, error_text,
		latency_ms, created_at
	) VALUES (
		:id, :user_id, :plan_id, :model_requested, :model_used, :status,
		:input_tokens, :output_tokens, :estimated_cost_usd, :actual_cost_usd,
		:attempt_count, :attempts_json, :coerced, :reprompted, :error_text,
		:latency_ms, :created_at
	)`

func (r *generationRepo) Create(ctx context.Context, gen *model.Generation) error {
	_, err := r.db.NamedExecContext(ctx, insertGenerationQuery, gen)
	return err
}

func (r *generationRepo) CreateBatch(ctx context.Context, gens []*model.Generation) error {
	if len(gens) == 0 {
		return nil
	}
	// sqlx expands a named exec over a slice into a multi-row insert
	_, err := r.db.NamedExecContext(ctx, insertGenerationQuery, gens)
	return err
}

func (r *generationRepo) GetByID(ctx context.Context, id string) (*model.Generation, error) {
	var gen model.Generation
	err := r.db.GetContext(ctx, &gen, `SELECT * FROM generations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("generation %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

func (r *generationRepo) ListRecent(ctx context.Context, userID string, limit int) ([]model.Generation, error) {
	var gens []model.Generation
	query := `SELECT * FROM generations WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &gens, query, userID, limit)
	return gens, err
}

func (r *generationRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM generations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *generationRepo) DailyStats(ctx context.Context, days int) ([]model.UsageStat, error) {
	var stats []model.UsageStat
	query := `
		SELECT
			DATE(created_at) as day,
			COUNT(*) as generations,
			SUM(CASE WHEN status = 'succeeded' THEN 1 ELSE 0 END) as succeeded,
			SUM(input_tokens + output_tokens) as total_tokens,
			SUM(actual_cost_usd) as total_cost_usd,
			AVG(latency_ms) as avg_latency_ms
		FROM generations
		WHERE created_at >= DATE('now', ?)
		GROUP BY day
		ORDER BY day DESC
	`
	// SQLite date offset format is '-7 days'
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}

type apiKeyRepo struct {
	db DB
}

func (r *apiKeyRepo) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	// active check is part of the query for speed
	query := `SELECT * FROM api_keys WHERE key_hash = ? AND is_active = 1`
	err := r.db.GetContext(ctx, &key, query, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	query := `
	INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, is_active, created_at, updated_at)
	VALUES (:id, :user_id, :name, :key_hash, :key_prefix, :is_active, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, key)
	return err
}

func (r *apiKeyRepo) Touch(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}
