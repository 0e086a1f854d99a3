package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/poolchaos/personalfit-api/internal/analytics"
	"github.com/poolchaos/personalfit-api/internal/budget"
	"github.com/poolchaos/personalfit-api/internal/gateway"
	"github.com/poolchaos/personalfit-api/internal/llm"
	"github.com/poolchaos/personalfit-api/internal/llm/processing"
	"github.com/poolchaos/personalfit-api/internal/modeldata"
	"github.com/poolchaos/personalfit-api/internal/retry"
	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/internal/tokens"
	"github.com/poolchaos/personalfit-api/pkg/api"
)

const generationTemperature = 0.7

// Generator runs the full plan-generation pipeline: estimate, budget
// gate, orchestrated model call, parse/coerce, one corrective
// re-prompt, then persistence and async accounting.
type Generator struct {
	logger       *zap.Logger
	gateway      gateway.Service
	estimator    *tokens.Estimator
	catalog      *modeldata.Catalog
	repo         store.Repository
	ingestor     analytics.Ingestor
	budget       budget.Budget
	retryCfg     retry.Config
	defaultModel string
}

// Deps carries the generator's collaborators. Everything is required
// except Logger, which defaults to a nop.
type Deps struct {
	Logger       *zap.Logger
	Gateway      gateway.Service
	Estimator    *tokens.Estimator
	Catalog      *modeldata.Catalog
	Repo         store.Repository
	Ingestor     analytics.Ingestor
	Budget       budget.Budget
	Retry        retry.Config
	DefaultModel string
}

func NewGenerator(d Deps) *Generator {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		logger:       logger,
		gateway:      d.Gateway,
		estimator:    d.Estimator,
		catalog:      d.Catalog,
		repo:         d.Repo,
		ingestor:     d.Ingestor,
		budget:       d.Budget,
		retryCfg:     d.Retry,
		defaultModel: d.DefaultModel,
	}
}

// Generated is the successful result handed back to the handler.
type Generated struct {
	PlanID       string
	GenerationID string
	Plan         Plan
	ModelUsed    string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Coerced      bool
	Reprompted   bool
	Attempts     []retry.Attempt
	CreatedAt    time.Time
}

// Estimate projects the token and dollar cost of a generation without
// calling any provider, and reports whether the budget would admit it.
func (g *Generator) Estimate(ctx context.Context, req api.EstimatePlanRequest) (api.EstimateResponse, error) {
	system := SystemPrompt()
	user := UserPrompt(estimateAsGenerate(req))

	modelID := req.Model
	if modelID == "" {
		modelID = g.defaultModel
	}

	opts := []tokens.EstimateOption{tokens.WithModel(modelID)}
	if req.OutputRatio > 0 {
		opts = append(opts, tokens.WithOutputRatio(req.OutputRatio))
	}

	est, err := g.estimator.EstimateRequest(system, user, opts...)
	if err != nil {
		return api.EstimateResponse{}, fmt.Errorf("estimate request: %w", err)
	}

	check := budget.Check(est, g.budget)

	return api.EstimateResponse{
		Model:                 est.Model,
		InputTokens:           est.InputTokens,
		EstimatedOutputTokens: est.EstimatedOutputTokens,
		TotalTokens:           est.TotalTokens,
		EstimatedCostUSD:      est.EstimatedCost,
		ModelContextLimit:     est.ModelContextLimit,
		WithinContextLimit:    est.WithinContextLimit,
		Allowed:               check.Allowed,
		Reasons:               check.Reasons,
	}, nil
}

// Generate produces, validates and persists one workout plan. Failures
// come back as typed errors so the transport layer can map each to the
// right status: *BudgetError, *ExhaustedError, *InvalidResponseError.
func (g *Generator) Generate(ctx context.Context, userID string, req api.GeneratePlanRequest) (*Generated, error) {
	started := time.Now()
	genID := uuid.New().String()

	system := SystemPrompt()
	user := UserPrompt(req)

	modelID := req.Model
	if modelID == "" {
		modelID = g.defaultModel
	}

	est, err := g.estimator.EstimateRequest(system, user, tokens.WithModel(modelID))
	if err != nil {
		return nil, fmt.Errorf("estimate request: %w", err)
	}

	b := g.budget
	if req.Budget != nil {
		b = b.Tighten(req.Budget.MaxInputTokens, req.Budget.MaxOutputTokens,
			req.Budget.MaxTotalTokens, req.Budget.MaxCostUSD)
	}

	if check := budget.Check(est, b); !check.Allowed {
		g.ingestor.Record(&model.Generation{
			ID:               genID,
			UserID:           userID,
			ModelRequested:   modelID,
			Status:           model.StatusBudgetDenied,
			EstimatedCostUSD: est.EstimatedCost,
			AttemptsJSON:     "[]",
			ErrorText:        strings.Join(check.Reasons, "; "),
			LatencyMS:        time.Since(started).Milliseconds(),
			CreatedAt:        time.Now().UTC(),
		})
		return nil, &BudgetError{Estimate: est, Reasons: check.Reasons}
	}

	outcome := g.call(ctx, system, user, modelID, b)
	attempts := outcome.Attempts
	if !outcome.Success {
		g.recordFailure(genID, userID, modelID, model.StatusExhausted,
			est.EstimatedCost, attempts, outcome.Err.Error(), started)
		return nil, &ExhaustedError{Attempts: attempts, LastErr: outcome.Err}
	}

	resp := outcome.Data
	modelUsed := outcome.ModelUsed
	inTokens := resp.Usage.InputTokens
	outTokens := resp.Usage.OutputTokens
	cost := g.costOf(resp)

	result, coerced := parsePlan(resp.Text)
	reprompted := false

	if !result.Success {
		// One corrective round trip: same request plus the full error
		// list, aimed at the model that produced the bad document.
		reprompted = true
		corrective := user + "\n\n" + processing.ValidationErrorPrompt(result.Errors)

		second := g.call(ctx, system, corrective, modelUsed, b)
		attempts = append(attempts, second.Attempts...)
		if !second.Success {
			g.recordFailure(genID, userID, modelID, model.StatusExhausted,
				est.EstimatedCost, attempts, second.Err.Error(), started)
			return nil, &ExhaustedError{Attempts: attempts, LastErr: second.Err}
		}

		resp = second.Data
		modelUsed = second.ModelUsed
		inTokens += resp.Usage.InputTokens
		outTokens += resp.Usage.OutputTokens
		cost += g.costOf(resp)

		result, coerced = parsePlan(resp.Text)
		if !result.Success {
			errsJSON, _ := json.Marshal(result.Errors)
			g.recordFailure(genID, userID, modelID, model.StatusInvalidResponse,
				est.EstimatedCost, attempts, string(errsJSON), started)
			return nil, &InvalidResponseError{Errors: result.Errors, Reprompted: true}
		}
	}

	plan := *result.Data
	if plan.Goal == "" {
		plan.Goal = req.Goal
	}
	if plan.Difficulty == "" {
		plan.Difficulty = req.Difficulty
	}

	document, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan document: %w", err)
	}

	planID := uuid.New().String()
	now := time.Now().UTC()

	stored := &model.StoredPlan{
		ID:              planID,
		UserID:          userID,
		Name:            plan.Name,
		Goal:            plan.Goal,
		Difficulty:      plan.Difficulty,
		DurationWeeks:   plan.DurationWeeks,
		SessionsPerWeek: plan.SessionsPerWeek,
		Document:        string(document),
		ModelUsed:       modelUsed,
		GenerationID:    genID,
		CreatedAt:       now,
	}

	rec := &model.Generation{
		ID:               genID,
		UserID:           userID,
		ModelRequested:   modelID,
		ModelUsed:        modelUsed,
		Status:           model.StatusSucceeded,
		InputTokens:      inTokens,
		OutputTokens:     outTokens,
		EstimatedCostUSD: est.EstimatedCost,
		ActualCostUSD:    cost,
		AttemptCount:     len(attempts),
		AttemptsJSON:     marshalAttempts(attempts),
		Coerced:          coerced,
		Reprompted:       reprompted,
		LatencyMS:        time.Since(started).Milliseconds(),
		CreatedAt:        now,
	}

	if err := g.repo.Plans().Create(ctx, stored); err != nil {
		// Tokens were spent either way; the accounting record lands
		// even when the plan row does not.
		rec.ErrorText = fmt.Sprintf("persist plan: %v", err)
		g.ingestor.Record(rec)
		return nil, fmt.Errorf("persist plan: %w", err)
	}

	rec.PlanID = sql.NullString{String: planID, Valid: true}
	g.ingestor.Record(rec)

	g.logger.Info("Plan generated",
		zap.String("plan_id", planID),
		zap.String("model", modelUsed),
		zap.Int("attempts", len(attempts)),
		zap.Bool("coerced", coerced),
		zap.Bool("reprompted", reprompted),
		zap.Int64("latency_ms", rec.LatencyMS))

	return &Generated{
		PlanID:       planID,
		GenerationID: genID,
		Plan:         plan,
		ModelUsed:    modelUsed,
		InputTokens:  inTokens,
		OutputTokens: outTokens,
		CostUSD:      cost,
		Coerced:      coerced,
		Reprompted:   reprompted,
		Attempts:     attempts,
		CreatedAt:    now,
	}, nil
}

// call wires the gateway into the retry orchestrator. MaxTokens is
// re-derived per attempt because fallback can land on a model with a
// smaller output window.
func (g *Generator) call(ctx context.Context, system, user, modelID string, b budget.Budget) retry.Outcome[*llm.Response] {
	op := func(ctx context.Context, m string) (*llm.Response, error) {
		maxTokens := b.MaxOutputTokens
		if mc := g.catalog.Lookup(m); mc.MaxOutputTokens > 0 && mc.MaxOutputTokens < maxTokens {
			maxTokens = mc.MaxOutputTokens
		}
		return g.gateway.Complete(ctx, &llm.Request{
			Model:       m,
			System:      system,
			User:        user,
			MaxTokens:   maxTokens,
			Temperature: generationTemperature,
		})
	}
	return retry.Do(ctx, op, modelID, g.retryCfg, g.logger)
}

// parsePlan tries the strict pass first, then the coercion pass. When
// both fail it returns the post-coercion errors: those are the ones a
// corrective re-prompt can still fix.
func parsePlan(text string) (processing.Result[Plan], bool) {
	strict := processing.Parse[Plan](text)
	if strict.Success {
		return strict, false
	}

	relaxed := processing.CoerceAndValidate[Plan](text, CoercionRules)
	if relaxed.Success {
		return relaxed, true
	}
	return relaxed, false
}

func (g *Generator) recordFailure(genID, userID, modelRequested, status string,
	estimatedCost float64, attempts []retry.Attempt, errText string, started time.Time) {

	g.ingestor.Record(&model.Generation{
		ID:               genID,
		UserID:           userID,
		ModelRequested:   modelRequested,
		Status:           status,
		EstimatedCostUSD: estimatedCost,
		AttemptCount:     len(attempts),
		AttemptsJSON:     marshalAttempts(attempts),
		ErrorText:        errText,
		LatencyMS:        time.Since(started).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	})
}

func (g *Generator) costOf(resp *llm.Response) float64 {
	mc := g.catalog.Lookup(resp.Model)
	return float64(resp.Usage.InputTokens)/1000*mc.InputPricePer1K +
		float64(resp.Usage.OutputTokens)/1000*mc.OutputPricePer1K
}

func marshalAttempts(attempts []retry.Attempt) string {
	if len(attempts) == 0 {
		return "[]"
	}
	data, err := json.Marshal(attempts)
	if err != nil {
		return "[]"
	}
	return string(data)
}
