package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/internal/llm"
	"github.com/poolchaos/personalfit-api/internal/server/middleware"
	"github.com/poolchaos/personalfit-api/internal/server/validator"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/cache"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/internal/workout"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

const planCacheTTL = 5 * time.Minute

// PlanGenerator is the slice of the workout generator the handlers
// need. Narrowed to an interface so tests can stub it.
type PlanGenerator interface {
	Generate(ctx context.Context, userID string, req api.GeneratePlanRequest) (*workout.Generated, error)
	Estimate(ctx context.Context, req api.EstimatePlanRequest) (api.EstimateResponse, error)
}

type PlanHandler struct {
	generator PlanGenerator
	repo      store.Repository
	cache     cache.CacheService
	logger    *zap.Logger
}

func NewPlanHandler(generator PlanGenerator, repo store.Repository, cacheSvc cache.CacheService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		generator: generator,
		repo:      repo,
		cache:     cacheSvc,
		logger:    logger,
	}
}

// Generate runs the full orchestration pipeline and returns the new
// plan together with its generation accounting.
//
// POST /plans/generate
func (h *PlanHandler) Generate(c *gin.Context) {
	var req api.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationProblem(validator.ParseError(err)))
		return
	}

	userID := middleware.UserIDFrom(c.Request.Context())

	gen, err := h.generator.Generate(c.Request.Context(), userID, req)
	if err != nil {
		_ = c.Error(problemFor(err))
		return
	}

	resp := api.GenerateResponse{
		Plan: planResponse(gen.PlanID, gen.ModelUsed, gen.CreatedAt, gen.Plan),
		Generation: api.GenerationMeta{
			ID:           gen.GenerationID,
			Model:        gen.ModelUsed,
			InputTokens:  gen.InputTokens,
			OutputTokens: gen.OutputTokens,
			CostUSD:      gen.CostUSD,
			Attempts:     len(gen.Attempts),
			Coerced:      gen.Coerced,
			Reprompted:   gen.Reprompted,
		},
	}

	c.JSON(http.StatusCreated, resp)
}

// Estimate projects tokens and cost for a prospective generation
// without calling any provider.
//
// POST /plans/estimate
func (h *PlanHandler) Estimate(c *gin.Context) {
	var req api.EstimatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationProblem(validator.ParseError(err)))
		return
	}

	est, err := h.generator.Estimate(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to estimate request", err))
		return
	}

	c.JSON(http.StatusOK, est)
}

// Get returns one stored plan with its full session breakdown.
//
// GET /plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	id := c.Param("id")
	cacheKey := cache.Key("plan", id)

	var cached api.PlanResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	stored, err := h.repo.Plans().GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = c.Error(api.NotFoundError("Plan not found"))
			return
		}
		_ = c.Error(api.InternalError("Failed to load plan", err))
		return
	}

	resp, err := storedPlanResponse(stored)
	if err != nil {
		_ = c.Error(api.InternalError("Stored plan document is unreadable", err))
		return
	}

	// Plans are immutable once generated, so a short TTL only bounds
	// memory, not staleness.
	_ = h.cache.Set(c.Request.Context(), cacheKey, resp, planCacheTTL)

	c.JSON(http.StatusOK, resp)
}

// List returns the caller's plans, newest first.
//
// GET /plans
func (h *PlanHandler) List(c *gin.Context) {
	var q api.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationProblem(validator.ParseError(err)))
		return
	}

	userID := middleware.UserIDFrom(c.Request.Context())

	plans, err := h.repo.Plans().ListByUser(c.Request.Context(), userID, q.Limit, q.Offset)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list plans", err))
		return
	}

	items := make([]api.PlanResponse, 0, len(plans))
	for i := range plans {
		resp, err := storedPlanResponse(&plans[i])
		if err != nil {
			h.logger.Warn("Skipping unreadable plan document",
				zap.String("plan_id", plans[i].ID), zap.Error(err))
			continue
		}
		items = append(items, resp)
	}

	c.JSON(http.StatusOK, api.ListResponse[api.PlanResponse]{
		Items:  items,
		Total:  len(items),
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

// problemFor translates generator failures into their RFC 9457 shapes.
func problemFor(err error) *api.Problem {
	var budgetErr *workout.BudgetError
	if errors.As(err, &budgetErr) {
		return api.BudgetExceededProblem(budgetErr.Reasons)
	}

	var exhausted *workout.ExhaustedError
	if errors.As(err, &exhausted) {
		last := ""
		if exhausted.LastErr != nil {
			last = exhausted.LastErr.Error()
		}
		// A provider 4xx is the caller's problem, not an outage.
		if llm.FailureKindOf(exhausted.LastErr) == llm.KindInvalidInput {
			return api.BadRequestError("Provider rejected the request: " + last)
		}
		return api.ModelsExhaustedProblem(len(exhausted.Attempts), last)
	}

	var invalid *workout.InvalidResponseError
	if errors.As(err, &invalid) {
		detail := "The model returned a plan that failed validation"
		if invalid.Reprompted {
			detail = "The model returned an invalid plan even after a corrective retry"
		}
		return api.PlanValidationProblem(detail, invalid.Errors)
	}

	return api.InternalError("Plan generation failed", err)
}

func storedPlanResponse(stored *model.StoredPlan) (api.PlanResponse, error) {
	var plan workout.Plan
	if err := json.Unmarshal([]byte(stored.Document), &plan); err != nil {
		return api.PlanResponse{}, err
	}
	return planResponse(stored.ID, stored.ModelUsed, stored.CreatedAt, plan), nil
}

func planResponse(id, modelUsed string, createdAt time.Time, plan workout.Plan) api.PlanResponse {
	sessions := make([]api.SessionResponse, 0, len(plan.Sessions))
	for _, s := range plan.Sessions {
		sessions = append(sessions, api.SessionResponse{
			DayOfWeek:       s.DayOfWeek,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			WarmUp:          exerciseResponses(s.WarmUp),
			MainWorkout:     exerciseResponses(s.MainWorkout),
			CoolDown:        exerciseResponses(s.CoolDown),
		})
	}

	return api.PlanResponse{
		ID:              id,
		Name:            plan.Name,
		Description:     plan.Description,
		Goal:            plan.Goal,
		Difficulty:      plan.Difficulty,
		DurationWeeks:   plan.DurationWeeks,
		SessionsPerWeek: plan.SessionsPerWeek,
		Sessions:        sessions,
		Model:           modelUsed,
		CreatedAt:       createdAt,
	}
}

func exerciseResponses(exercises []workout.Exercise) []api.ExerciseResponse {
	if len(exercises) == 0 {
		return nil
	}
	out := make([]api.ExerciseResponse, 0, len(exercises))
	for _, e := range exercises {
		out = append(out, api.ExerciseResponse{
			Name:            e.Name,
			Category:        e.Category,
			Sets:            e.Sets,
			Reps:            e.Reps,
			DurationSeconds: e.DurationSeconds,
			RestSeconds:     e.RestSeconds,
			Equipment:       e.Equipment,
			Notes:           e.Notes,
		})
	}
	return out
}
