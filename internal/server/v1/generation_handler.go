package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/poolchaos/personalfit-api/internal/analytics"
	"github.com/poolchaos/personalfit-api/internal/server/middleware"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

type GenerationHandler struct {
	repo      store.Repository
	analytics analytics.Service
}

func NewGenerationHandler(repo store.Repository, analyticsSvc analytics.Service) *GenerationHandler {
	return &GenerationHandler{
		repo:      repo,
		analytics: analyticsSvc,
	}
}

// List returns the caller's recent generations, newest first. Failed
// generations show up too; that is most of the point of the log.
//
// GET /generations
func (h *GenerationHandler) List(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		_ = c.Error(api.BadRequestError("Invalid 'limit' parameter"))
		return
	}

	userID := middleware.UserIDFrom(c.Request.Context())

	gens, err := h.analytics.RecentGenerations(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list generations", err))
		return
	}

	items := make([]api.GenerationResponse, 0, len(gens))
	for i := range gens {
		items = append(items, generationResponse(&gens[i]))
	}

	c.JSON(http.StatusOK, api.ListResponse[api.GenerationResponse]{
		Items: items,
		Total: len(items),
		Limit: limit,
	})
}

// Get returns one generation record by id.
//
// GET /generations/:id
func (h *GenerationHandler) Get(c *gin.Context) {
	id := c.Param("id")

	gen, err := h.repo.Generations().GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = c.Error(api.NotFoundError("Generation not found"))
			return
		}
		_ = c.Error(api.InternalError("Failed to load generation", err))
		return
	}

	c.JSON(http.StatusOK, generationResponse(gen))
}

// Usage returns per-day aggregates over a trailing window.
//
// GET /usage
func (h *GenerationHandler) Usage(c *gin.Context) {
	daysStr := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		_ = c.Error(api.BadRequestError("Invalid 'days' parameter"))
		return
	}

	stats, err := h.analytics.UsageOverview(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch usage stats", err))
		return
	}

	c.JSON(http.StatusOK, api.ListResponse[model.UsageStat]{
		Items: stats,
		Total: len(stats),
		Limit: days,
	})
}

func generationResponse(gen *model.Generation) api.GenerationResponse {
	resp := api.GenerationResponse{
		ID:               gen.ID,
		Model:            gen.ModelUsed,
		Status:           gen.Status,
		InputTokens:      gen.InputTokens,
		OutputTokens:     gen.OutputTokens,
		EstimatedCostUSD: gen.EstimatedCostUSD,
		Attempts:         gen.AttemptCount,
		Coerced:          gen.Coerced,
		Reprompted:       gen.Reprompted,
		LatencyMs:        gen.LatencyMS,
		Error:            gen.ErrorText,
		CreatedAt:        gen.CreatedAt,
	}
	if gen.PlanID.Valid {
		resp.PlanID = gen.PlanID.String
	}
	return resp
}
