package v1_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/poolchaos/personalfit-api/internal/server/v1"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

// fakeAnalytics serves canned stats so handler tests skip the cache
// and repository entirely.
type fakeAnalytics struct {
	stats []model.UsageStat
	gens  []model.Generation
	days  int
	limit int
}

func (f *fakeAnalytics) UsageOverview(ctx context.Context, days int) ([]model.UsageStat, error) {
	f.days = days
	return f.stats, nil
}

func (f *fakeAnalytics) RecentGenerations(ctx context.Context, userID string, limit int) ([]model.Generation, error) {
	f.limit = limit
	return f.gens, nil
}

func generationEngine(repo *fakeRepo, svc *fakeAnalytics) *gin.Engine {
	h := v1.NewGenerationHandler(repo, svc)
	return newEngine(func(r *gin.Engine) {
		r.GET("/generations", h.List)
		r.GET("/generations/:id", h.Get)
		r.GET("/usage", h.Usage)
	})
}

func TestListGenerations_IncludesFailures(t *testing.T) {
	svc := &fakeAnalytics{
		gens: []model.Generation{
			{ID: "gen-1", UserID: "anonymous", ModelUsed: "gpt-4o", Status: model.StatusSucceeded},
			{ID: "gen-2", UserID: "anonymous", ModelRequested: "gpt-4o", Status: model.StatusExhausted, ErrorText: "rate_limited"},
		},
	}
	engine := generationEngine(newFakeRepo(), svc)

	w := getJSON(t, engine, "/generations?limit=5")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.limit)

	var resp api.ListResponse[api.GenerationResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "exhausted", resp.Items[1].Status)
	assert.Equal(t, "rate_limited", resp.Items[1].Error)
}

func TestListGenerations_BadLimitIs400(t *testing.T) {
	engine := generationEngine(newFakeRepo(), &fakeAnalytics{})

	w := getJSON(t, engine, "/generations?limit=many")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGeneration_MapsPlanID(t *testing.T) {
	repo := newFakeRepo()
	repo.gens["gen-7"] = &model.Generation{
		ID:        "gen-7",
		UserID:    "anonymous",
		ModelUsed: "gpt-4o",
		Status:    model.StatusSucceeded,
		PlanID:    sql.NullString{String: "plan-7", Valid: true},
		CreatedAt: time.Now().UTC(),
	}
	engine := generationEngine(repo, &fakeAnalytics{})

	w := getJSON(t, engine, "/generations/gen-7")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.GenerationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "plan-7", resp.PlanID)
}

func TestGetGeneration_UnknownIs404(t *testing.T) {
	engine := generationEngine(newFakeRepo(), &fakeAnalytics{})

	w := getJSON(t, engine, "/generations/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsage_PassesWindow(t *testing.T) {
	svc := &fakeAnalytics{
		stats: []model.UsageStat{
			{Day: "2026-08-24", Generations: 12, Succeeded: 10, TotalTokens: 54000, TotalCostUSD: 0.72},
		},
	}
	engine := generationEngine(newFakeRepo(), svc)

	w := getJSON(t, engine, "/usage?days=30")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, svc.days)

	var resp api.ListResponse[model.UsageStat]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 12, resp.Items[0].Generations)
}
