package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poolchaos/personalfit-api/internal/store"
	"github.com/poolchaos/personalfit-api/internal/store/model"
	"github.com/poolchaos/personalfit-api/internal/store/sqlite"
	"github.com/poolchaos/personalfit-api/internal/workout"
)

// Seeds a local database with an API key and a couple of workout plans
// so the list and usage endpoints have something to show. The raw key
// is printed exactly once; only its hash is stored.
func main() {
	dsn := flag.String("dsn", "personalfit.db", "sqlite database path")
	user := flag.String("user", "", "user id to attach the key to (random when empty)")
	name := flag.String("name", "Development Key", "display name for the key")
	plans := flag.Bool("plans", true, "insert sample plans alongside the key")
	flag.Parse()

	repo, err := sqlite.NewSQLiteStorage(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	userID := *user
	if userID == "" {
		userID = uuid.New().String()
	}

	rawKey := "pf-" + strings.ReplaceAll(uuid.New().String(), "-", "")
	hash := sha256.Sum256([]byte(rawKey))

	key := &model.APIKey{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      *name,
		KeyHash:   hex.EncodeToString(hash[:]),
		KeyPrefix: rawKey[:7],
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.APIKeys().Create(ctx, key); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Created API key for user %s\n", userID)
	fmt.Printf("  %s\n", rawKey)
	fmt.Println("Store it now; the raw key is not recoverable from the database.")

	if !*plans {
		return
	}

	n, err := seedPlans(ctx, repo, userID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Inserted %d sample plans\n", n)
}

// seedPlans writes a plan document plus its generation record for each
// sample, the same shape a real generation leaves behind.
func seedPlans(ctx context.Context, repo store.Repository, userID string) (int, error) {
	for i, plan := range samplePlans() {
		doc, err := json.Marshal(plan)
		if err != nil {
			return i, err
		}

		planID := uuid.New().String()
		genID := uuid.New().String()
		createdAt := time.Now().UTC().Add(-time.Duration(i*24) * time.Hour)

		stored := &model.StoredPlan{
			ID:              planID,
			UserID:          userID,
			Name:            plan.Name,
			Goal:            plan.Goal,
			Difficulty:      plan.Difficulty,
			DurationWeeks:   plan.DurationWeeks,
			SessionsPerWeek: plan.SessionsPerWeek,
			Document:        string(doc),
			ModelUsed:       "gpt-4o",
			GenerationID:    genID,
			CreatedAt:       createdAt,
		}
		if err := repo.Plans().Create(ctx, stored); err != nil {
			return i, err
		}

		gen := &model.Generation{
			ID:               genID,
			UserID:           userID,
			PlanID:           sql.NullString{String: planID, Valid: true},
			ModelRequested:   "gpt-4o",
			ModelUsed:        "gpt-4o",
			Status:           model.StatusSucceeded,
			InputTokens:      900 + i*120,
			OutputTokens:     750 + i*80,
			EstimatedCostUSD: 0.014,
			ActualCostUSD:    0.016,
			AttemptCount:     1,
			AttemptsJSON:     "[]",
			LatencyMS:        int64(2400 + i*300),
			CreatedAt:        createdAt,
		}
		if err := repo.Generations().Create(ctx, gen); err != nil {
			return i, err
		}
	}
	return len(samplePlans()), nil
}

func samplePlans() []workout.Plan {
	return []workout.Plan{
		{
			Name:            "Foundation Strength",
			Description:     "Three-day full-body block for building base strength.",
			Goal:            "strength",
			Difficulty:      "beginner",
			DurationWeeks:   8,
			SessionsPerWeek: 3,
			Sessions: []workout.Session{
				{
					DayOfWeek:       1,
					Name:            "Full Body A",
					DurationMinutes: 55,
					WarmUp: []workout.Exercise{
						{Name: "Rowing Machine", Category: "cardio", DurationSeconds: 300},
					},
					MainWorkout: []workout.Exercise{
						{Name: "Goblet Squat", Category: "strength", Sets: 3, Reps: "8-12", RestSeconds: 90, Equipment: []string{"dumbbell"}},
						{Name: "Push-Up", Category: "strength", Sets: 3, Reps: "AMRAP", RestSeconds: 60},
						{Name: "Bent-Over Row", Category: "strength", Sets: 3, Reps: "10", RestSeconds: 90, Equipment: []string{"barbell"}},
					},
					CoolDown: []workout.Exercise{
						{Name: "Hamstring Stretch", Category: "flexibility", DurationSeconds: 120},
					},
				},
				{
					DayOfWeek:       3,
					Name:            "Full Body B",
					DurationMinutes: 55,
					MainWorkout: []workout.Exercise{
						{Name: "Romanian Deadlift", Category: "strength", Sets: 3, Reps: "8-10", RestSeconds: 120, Equipment: []string{"barbell"}},
						{Name: "Overhead Press", Category: "strength", Sets: 3, Reps: "6-8", RestSeconds: 120, Equipment: []string{"barbell"}},
						{Name: "Plank", Category: "core", Sets: 3, DurationSeconds: 45, RestSeconds: 60},
					},
				},
				{
					DayOfWeek:       5,
					Name:            "Full Body C",
					DurationMinutes: 50,
					MainWorkout: []workout.Exercise{
						{Name: "Walking Lunge", Category: "strength", Sets: 3, Reps: "10 per leg", RestSeconds: 90},
						{Name: "Lat Pulldown", Category: "strength", Sets: 3, Reps: "10-12", RestSeconds: 90, Equipment: []string{"cable machine"}},
						{Name: "Farmer Carry", Category: "core", Sets: 3, DurationSeconds: 40, RestSeconds: 90, Equipment: []string{"dumbbell"}},
					},
				},
			},
		},
		{
			Name:            "Conditioning Kickstart",
			Description:     "Short endurance block mixing intervals and steady work.",
			Goal:            "endurance",
			Difficulty:      "intermediate",
			DurationWeeks:   4,
			SessionsPerWeek: 2,
			Sessions: []workout.Session{
				{
					DayOfWeek:       2,
					Name:            "Intervals",
					DurationMinutes: 40,
					MainWorkout: []workout.Exercise{
						{Name: "Bike Sprints", Category: "cardio", Sets: 8, DurationSeconds: 30, RestSeconds: 90, Equipment: []string{"stationary bike"}},
						{Name: "Burpees", Category: "cardio", Sets: 4, Reps: "12", RestSeconds: 60},
					},
				},
				{
					DayOfWeek:       6,
					Name:            "Steady State",
					DurationMinutes: 45,
					MainWorkout: []workout.Exercise{
						{Name: "Run", Category: "cardio", DurationSeconds: 2400, Notes: "Conversational pace."},
					},
					CoolDown: []workout.Exercise{
						{Name: "Calf Stretch", Category: "flexibility", DurationSeconds: 90},
					},
				},
			},
		},
	}
}
