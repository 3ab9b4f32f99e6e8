package coach

import (
	"context"
	"math"
	"testing"
	"time"

	"peakform/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var genEpoch = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

func testProfile(daysPerWeek int) Profile {
	return Profile{
		UserID:       primitive.NewObjectID(),
		FitnessLevel: "intermediate",
		Goals:        domain.Goals{Primary: "strength"},
		Constraints: domain.Constraints{
			Equipment:   []string{"barbell"},
			DaysPerWeek: daysPerWeek,
		},
	}
}

func TestGeneratePlan(t *testing.T) {
	g := NewRuleBasedGenerator()
	plan, err := g.GeneratePlan(context.Background(), testProfile(3), PlanTemplate{
		Title:       "Strength Base",
		WorkoutType: "Squat",
		Weeks:       8,
		BaseLoad:    100,
		StartDate:   genEpoch,
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if plan.Status != domain.PlanDraft {
		t.Errorf("status = %s, want draft", plan.Status)
	}
	if len(plan.Weeks) != 8 {
		t.Fatalf("weeks = %d, want 8", len(plan.Weeks))
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("generated plan invalid: %v", err)
	}

	// 3 days per week on the preferred Mon/Wed/Fri slots.
	for _, week := range plan.Weeks {
		if len(week.Workouts) != 3 {
			t.Fatalf("week %d has %d workouts, want 3", week.WeekNumber, len(week.Workouts))
		}
		for _, want := range []int{1, 3, 5} {
			if _, ok := week.WorkoutOnDay(want); !ok {
				t.Errorf("week %d missing workout on day %d", week.WeekNumber, want)
			}
		}
	}

	// Default deload weeks every fourth week.
	if got := plan.Progression.DeloadWeeks; len(got) != 2 || got[0] != 4 || got[1] != 8 {
		t.Errorf("deload weeks = %v, want [4 8]", got)
	}

	// Week 2's main lift is heavier than week 1's; week 5 follows the
	// week-4 deload cut.
	week1 := mainLoad(t, plan, 1)
	week2 := mainLoad(t, plan, 2)
	week4 := mainLoad(t, plan, 4)
	week5 := mainLoad(t, plan, 5)
	if week2 <= week1 {
		t.Errorf("week 2 load %v not above week 1 load %v", week2, week1)
	}
	if !almostEqual(week5, week4*0.85) {
		t.Errorf("week 5 load = %v, want 15%% below week 4's %v", week5, week4)
	}
}

func mainLoad(t *testing.T, plan domain.WorkoutPlan, week int) float64 {
	t.Helper()
	for _, w := range plan.Weeks {
		if w.WeekNumber != week {
			continue
		}
		for _, a := range w.Workouts[0].Activities {
			if a.Type == domain.ActivityExercise && a.SetScheme != nil {
				return a.SetScheme.Load
			}
		}
	}
	t.Fatalf("no main lift found in week %d", week)
	return 0
}

func TestGeneratePlanDefaults(t *testing.T) {
	g := NewRuleBasedGenerator()
	profile := testProfile(0) // no availability stated
	profile.Constraints.Equipment = nil

	plan, err := g.GeneratePlan(context.Background(), profile, PlanTemplate{
		Title:       "Bodyweight Basics",
		WorkoutType: "Push-up",
		Weeks:       2,
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if got := len(plan.Weeks[0].Workouts); got != 3 {
		t.Errorf("default days per week = %d, want 3", got)
	}
	// No equipment means the main work falls back to bodyweight volume.
	if load := mainLoad(t, plan, 1); load != 0 {
		t.Errorf("bodyweight load = %v, want 0", load)
	}

	if _, err := g.GeneratePlan(context.Background(), profile, PlanTemplate{Title: "", Weeks: 2}); err == nil {
		t.Error("expected error for missing title")
	}
	if _, err := g.GeneratePlan(context.Background(), profile, PlanTemplate{Title: "X", Weeks: 0}); err == nil {
		t.Error("expected error for zero weeks")
	}
}

func TestAdjustPlan(t *testing.T) {
	g := NewRuleBasedGenerator()
	plan, err := g.GeneratePlan(context.Background(), testProfile(2), PlanTemplate{
		Title:       "Adjustable",
		WorkoutType: "Deadlift",
		Weeks:       3,
		BaseLoad:    100,
		StartDate:   genEpoch,
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	plan, err = plan.Activate(genEpoch)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}

	// Complete the first workout so adjustment must leave it untouched.
	completedID := plan.Weeks[0].Workouts[0].ID
	plan, err = plan.CompleteWorkout(completedID, primitive.NewObjectID(), genEpoch)
	if err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	before := mainLoad(t, plan, 2)

	adjusted, err := g.AdjustPlan(context.Background(), plan, Feedback{TooEasy: true}, 0.5)
	if err != nil {
		t.Fatalf("AdjustPlan: %v", err)
	}

	// TooEasy overrides the score: factor 1.05.
	after := mainLoad(t, adjusted, 2)
	if !almostEqual(after, before*1.05) {
		t.Errorf("adjusted load = %v, want %v", after, before*1.05)
	}

	// The completed slot keeps its original prescription.
	var completedLoad float64
	for _, a := range adjusted.Weeks[0].Workouts[0].Activities {
		if a.SetScheme != nil {
			completedLoad = a.SetScheme.Load
		}
	}
	var originalLoad float64
	for _, a := range plan.Weeks[0].Workouts[0].Activities {
		if a.SetScheme != nil {
			originalLoad = a.SetScheme.Load
		}
	}
	if completedLoad != originalLoad {
		t.Errorf("completed workout load changed: %v -> %v", originalLoad, completedLoad)
	}

	// TooHard eases everything 5%.
	eased, err := g.AdjustPlan(context.Background(), plan, Feedback{TooHard: true}, 0.9)
	if err != nil {
		t.Fatalf("AdjustPlan eased: %v", err)
	}
	if got := mainLoad(t, eased, 2); !almostEqual(got, before*0.95) {
		t.Errorf("eased load = %v, want %v", got, before*0.95)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
