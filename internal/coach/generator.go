package coach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peakform/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile describes the athlete the generator builds a plan for.
type Profile struct {
	UserID       primitive.ObjectID
	FitnessLevel string // "beginner", "intermediate", "advanced"
	Goals        domain.Goals
	Constraints  domain.Constraints
}

// PlanTemplate parameterizes plan generation.
type PlanTemplate struct {
	Title       string
	WorkoutType string
	Weeks       int
	BaseLoad    float64 // starting load in kg for the main lifts
	StartDate   time.Time
	Progression domain.ProgressionStrategy
}

// Feedback is the athlete's qualitative input to a plan adjustment.
type Feedback struct {
	TooHard bool
	TooEasy bool
	Notes   string
}

// Generator is the plan-generation port. The AI-backed implementation
// lives outside this repository; RuleBasedGenerator below is the
// built-in default. Returned plans are treated as untrusted input by the
// plan service and re-validated structurally before being accepted.
type Generator interface {
	GeneratePlan(ctx context.Context, profile Profile, template PlanTemplate) (domain.WorkoutPlan, error)
	AdjustPlan(ctx context.Context, plan domain.WorkoutPlan, feedback Feedback, recentPerformance float64) (domain.WorkoutPlan, error)
}

// Days workouts land on, in priority order: Mon, Wed, Fri, Sat, Tue, Thu, Sun.
var preferredDays = []int{1, 3, 5, 6, 2, 4, 0}

// RuleBasedGenerator builds multi-week draft plans from a goal template
// using the progression strategy calculator, no AI involved.
type RuleBasedGenerator struct{}

// NewRuleBasedGenerator creates the built-in generator.
func NewRuleBasedGenerator() *RuleBasedGenerator {
	return &RuleBasedGenerator{}
}

// GeneratePlan builds a draft plan: one weekly schedule per week, with
// workouts spread over the athlete's available days and loads advanced
// week over week by the progression strategy (deload weeks included).
func (g *RuleBasedGenerator) GeneratePlan(_ context.Context, profile Profile, template PlanTemplate) (domain.WorkoutPlan, error) {
	if template.Weeks < 1 {
		return domain.WorkoutPlan{}, errors.New("plan template requires at least one week")
	}
	if template.Title == "" {
		return domain.WorkoutPlan{}, errors.New("plan template requires a title")
	}
	daysPerWeek := profile.Constraints.DaysPerWeek
	if daysPerWeek < 1 {
		daysPerWeek = 3
	}
	if daysPerWeek > 7 {
		daysPerWeek = 7
	}
	baseLoad := template.BaseLoad
	if baseLoad <= 0 {
		baseLoad = 40
	}
	start := template.StartDate
	if start.IsZero() {
		start = time.Now().UTC().Truncate(24 * time.Hour)
	}

	strategy := template.Progression
	if strategy.Type == "" {
		strategy.Type = domain.ProgressionLinear
	}
	if len(strategy.DeloadWeeks) == 0 && template.Weeks >= 4 {
		// Every fourth week is a recovery week by default.
		for w := 4; w <= template.Weeks; w += 4 {
			strategy.DeloadWeeks = append(strategy.DeloadWeeks, w)
		}
	}

	plan := domain.WorkoutPlan{
		UserID:      profile.UserID,
		Title:       template.Title,
		Status:      domain.PlanDraft,
		Position:    domain.PlanPosition{Week: 1, Day: 0},
		Goals:       profile.Goals,
		Progression: strategy,
		Constraints: profile.Constraints,
		StartDate:   start,
	}

	load := baseLoad
	for weekNum := 1; weekNum <= template.Weeks; weekNum++ {
		weekStart := start.AddDate(0, 0, (weekNum-1)*7)
		week := domain.WeeklySchedule{
			WeekNumber:     weekNum,
			StartDate:      weekStart,
			EndDate:        weekStart.AddDate(0, 0, 6),
			Focus:          weekFocus(strategy, weekNum),
			TargetWorkouts: daysPerWeek,
		}
		for i := 0; i < daysPerWeek; i++ {
			day := preferredDays[i]
			workout := domain.WorkoutTemplate{
				ID:            primitive.NewObjectID(),
				Title:         fmt.Sprintf("%s - week %d, session %d", template.WorkoutType, weekNum, i+1),
				WeekNumber:    weekNum,
				DayOfWeek:     day,
				ScheduledDate: weekStart.AddDate(0, 0, day),
				Status:        domain.WorkoutScheduled,
				Activities:    buildActivities(template.WorkoutType, load, profile.Constraints),
			}
			var err error
			week, err = week.AddWorkout(workout)
			if err != nil {
				return domain.WorkoutPlan{}, err
			}
		}
		plan.Weeks = append(plan.Weeks, week)
		load = strategy.NextLoad(load, weekNum)
	}

	if err := plan.Validate(); err != nil {
		return domain.WorkoutPlan{}, err
	}
	return plan, nil
}

// AdjustPlan rescales the loads of all still-scheduled workouts from
// the athlete's recent performance score and feedback: a score of 0
// eases loads 5%, a score of 1 raises them 5%. Completed slots are
// untouched: history is not reinterpreted.
func (g *RuleBasedGenerator) AdjustPlan(_ context.Context, plan domain.WorkoutPlan, feedback Feedback, recentPerformance float64) (domain.WorkoutPlan, error) {
	score := recentPerformance
	if feedback.TooHard {
		score = 0
	} else if feedback.TooEasy {
		score = 1
	}
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	factor := 0.95 + score*0.1

	out := plan
	out.Weeks = append([]domain.WeeklySchedule(nil), plan.Weeks...)
	for wi, week := range out.Weeks {
		if week.WeekNumber < plan.Position.Week {
			continue
		}
		newWeek := week
		newWeek.Workouts = append([]domain.WorkoutTemplate(nil), week.Workouts...)
		for ti, workout := range newWeek.Workouts {
			if workout.Status != domain.WorkoutScheduled {
				continue
			}
			adjusted := workout
			adjusted.Activities = append([]domain.Activity(nil), workout.Activities...)
			for ai, activity := range adjusted.Activities {
				if activity.SetScheme == nil {
					continue
				}
				scheme := *activity.SetScheme
				scheme.Load = scheme.Load * factor
				adjusted.Activities[ai].SetScheme = &scheme
			}
			newWeek.Workouts[ti] = adjusted
		}
		out.Weeks[wi] = newWeek
	}
	return out, nil
}

// weekFocus labels a week for the dashboard.
func weekFocus(s domain.ProgressionStrategy, week int) string {
	switch {
	case s.IsDeloadWeek(week):
		return "recovery"
	case s.IsTestWeek(week):
		return "performance test"
	default:
		return "progressive overload"
	}
}

// buildActivities assembles a workout's blocks: warmup, main work
// scaled to the current load, and a cooldown. Injured movements are
// not filtered here; the constraints only shape equipment choice.
func buildActivities(workoutType string, load float64, constraints domain.Constraints) []domain.Activity {
	hasEquipment := len(constraints.Equipment) > 0

	main := domain.Activity{
		Name:            workoutType,
		Type:            domain.ActivityExercise,
		Instructions:    "Work at a controlled tempo; stop two reps short of failure.",
		IntensityFactor: 1.0,
		SetScheme:       &domain.SetScheme{Sets: 4, Reps: 8, Load: load},
	}
	if hasEquipment {
		main.Equipment = append([]string(nil), constraints.Equipment...)
	} else {
		main.SetScheme = &domain.SetScheme{Sets: 4, Reps: 12, Load: 0}
	}

	return []domain.Activity{
		{
			Name:            "Warmup",
			Type:            domain.ActivityWarmup,
			Instructions:    "Easy raise of heart rate plus dynamic mobility.",
			DurationSeconds: 600,
			IntensityFactor: 0.5,
		},
		main,
		{
			Name:            "Intervals",
			Type:            domain.ActivityInterval,
			IntensityFactor: 1.2,
			Intervals:       []domain.Interval{{WorkSeconds: 40, RestSeconds: 20, Repeats: 6}},
		},
		{
			Name:            "Cooldown",
			Type:            domain.ActivityCooldown,
			Instructions:    "Static stretching for the muscles worked.",
			DurationSeconds: 300,
			IntensityFactor: 0.5,
		},
	}
}
