package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/internal/store/sqlite"
)

func newTestRepo(t *testing.T) store.Repository {
	t.Helper()

	repo, err := sqlite.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testPlan(id string) *model.StoredPlan {
	return &model.StoredPlan{
		ID:              id,
		UserID:          "user-1",
		Name:            "Beginner Strength",
		Goal:            "strength",
		Difficulty:      "beginner",
		DurationWeeks:   8,
		SessionsPerWeek: 3,
		Document:        `{"name":"Beginner Strength"}`,
		ModelUsed:       "gpt-4o",
		GenerationID:    "gen-" + id,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestPlanRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Plans().Create(ctx, testPlan("plan-1")))

	got, err := repo.Plans().GetByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "Beginner Strength", got.Name)
	assert.Equal(t, 8, got.DurationWeeks)
	assert.Equal(t, `{"name":"Beginner Strength"}`, got.Document)

	plans, err := repo.Plans().ListByUser(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestPlanGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Plans().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPlanListByUser_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		p := testPlan(fmt.Sprintf("plan-%d", i))
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Plans().Create(ctx, p))
	}

	plans, err := repo.Plans().ListByUser(ctx, "user-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "plan-2", plans[0].ID)
	assert.Equal(t, "plan-1", plans[1].ID)

	rest, err := repo.Plans().ListByUser(ctx, "user-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "plan-0", rest[0].ID)
}

func testGeneration(id, status string, createdAt time.Time) *model.Generation {
	return &model.Generation{
		ID:             id,
		UserID:         "user-1",
		ModelRequested: "gpt-4o",
		ModelUsed:      "gpt-4o",
		Status:         status,
		InputTokens:    1000,
		OutputTokens:   500,
		ActualCostUSD:  0.02,
		AttemptCount:   1,
		AttemptsJSON:   "[]",
		LatencyMS:      1200,
		CreatedAt:      createdAt,
	}
}

func TestGenerationBatchInsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	batch := []*model.Generation{
		testGeneration("gen-1", model.StatusSucceeded, now.Add(-2*time.Minute)),
		testGeneration("gen-2", model.StatusSucceeded, now.Add(-1*time.Minute)),
		testGeneration("gen-3", model.StatusExhausted, now),
	}
	require.NoError(t, repo.Generations().CreateBatch(ctx, batch))

	recent, err := repo.Generations().ListRecent(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "gen-3", recent[0].ID)
	assert.Equal(t, "gen-2", recent[1].ID)

	got, err := repo.Generations().GetByID(ctx, "gen-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, got.Status)
	assert.Equal(t, 1000, got.InputTokens)
}

func TestGenerationCreateBatch_Empty(t *testing.T) {
	repo := newTestRepo(t)

	assert.NoError(t, repo.Generations().CreateBatch(context.Background(), nil))
}

func TestGenerationGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Generations().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenerationDailyStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	batch := []*model.Generation{
		testGeneration("gen-1", model.StatusSucceeded, now),
		testGeneration("gen-2", model.StatusSucceeded, now),
		testGeneration("gen-3", model.StatusInvalidResponse, now),
	}
	require.NoError(t, repo.Generations().CreateBatch(ctx, batch))

	stats, err := repo.Generations().DailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Generations)
	assert.Equal(t, 2, stats[0].Succeeded)
	assert.Equal(t, int64(4500), stats[0].TotalTokens)
	assert.InDelta(t, 0.06, stats[0].TotalCostUSD, 1e-9)
	assert.InDelta(t, 1200, stats[0].AvgLatencyMS, 1e-9)
}

func TestGenerationPurgeBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	batch := []*model.Generation{
		testGeneration("gen-old-1", model.StatusSucceeded, now.Add(-72*time.Hour)),
		testGeneration("gen-old-2", model.StatusExhausted, now.Add(-48*time.Hour)),
		testGeneration("gen-new", model.StatusSucceeded, now),
	}
	require.NoError(t, repo.Generations().CreateBatch(ctx, batch))

	purged, err := repo.Generations().PurgeBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	_, err = repo.Generations().GetByID(ctx, "gen-old-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.Generations().GetByID(ctx, "gen-new")
	assert.NoError(t, err)
}

func TestAPIKeyLookup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	key := &model.APIKey{
		ID:        "key-1",
		UserID:    "user-1",
		Name:      "ci",
		KeyHash:   "abc123hash",
		KeyPrefix: "pf_live_ab",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.APIKeys().Create(ctx, key))

	got, err := repo.APIKeys().GetByHash(ctx, "abc123hash")
	require.NoError(t, err)
	assert.Equal(t, "key-1", got.ID)
	assert.False(t, got.LastUsedAt.Valid)

	require.NoError(t, repo.APIKeys().Touch(ctx, "key-1"))

	got, err = repo.APIKeys().GetByHash(ctx, "abc123hash")
	require.NoError(t, err)
	assert.True(t, got.LastUsedAt.Valid)
}

func TestAPIKeyGetByHash_InactiveNotReturned(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	key := &model.APIKey{
		ID:        "key-2",
		UserID:    "user-1",
		Name:      "revoked",
		KeyHash:   "revokedhash",
		IsActive:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.APIKeys().Create(ctx, key))

	_, err := repo.APIKeys().GetByHash(ctx, "revokedhash")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(txRepo store.Repository) error {
		if err := txRepo.Plans().Create(ctx, testPlan("plan-tx")); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.EqualError(t, err, "boom")

	_, err = repo.Plans().GetByID(ctx, "plan-tx")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.WithTx(ctx, func(txRepo store.Repository) error {
		if err := txRepo.Plans().Create(ctx, testPlan("plan-tx")); err != nil {
			return err
		}
		return txRepo.Generations().Create(ctx, testGeneration("gen-tx", model.StatusSucceeded, time.Now().UTC()))
	})
	require.NoError(t, err)

	_, err = repo.Plans().GetByID(ctx, "plan-tx")
	assert.NoError(t, err)
	_, err = repo.Generations().GetByID(ctx, "gen-tx")
	assert.NoError(t, err)
}
