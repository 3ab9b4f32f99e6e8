package service

import (
	"context"
	"errors"
	"time"

	"peakform/coach-app/internal/coach"
	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/events"
	"peakform/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("workout plan not found")
	ErrPlanAccessDenied = errors.New("access denied to this workout plan")
	ErrNoActivePlan     = errors.New("user has no active workout plan")
	ErrActivePlanExists = errors.New("user already has an active workout plan")
	ErrPlanConflict     = errors.New("plan was modified concurrently, reload and retry")
	ErrPlanGeneration   = errors.New("plan generation failed")
	ErrWorkoutNotInPlan = errors.New("workout not found in plan")
	ErrRecordNotFound   = errors.New("completed workout record not found")
)

// PlanService drives the workout plan aggregate: generation through the
// coach port, the lifecycle commands, and day-to-day navigation. Every
// command loads the plan, applies the pure domain transition, and saves
// with the repository's versioned write; nothing is retried here.
type PlanService interface {
	GeneratePlan(ctx context.Context, profile coach.Profile, template coach.PlanTemplate) (*domain.WorkoutPlan, error)
	AdjustPlan(ctx context.Context, userID, planID primitive.ObjectID, feedback coach.Feedback, recentPerformance float64) (*domain.WorkoutPlan, error)
	GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error)
	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error)
	ActivatePlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	PausePlan(ctx context.Context, userID, planID primitive.ObjectID, reason string) (*domain.WorkoutPlan, error)
	ResumePlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	AbandonPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	CompleteWorkout(ctx context.Context, userID, planID, workoutID, recordID primitive.ObjectID) (*domain.WorkoutPlan, error)
	AdvanceDay(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	TodayWorkout(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutTemplate, error)
	WorkoutForDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.WorkoutTemplate, error)
}

// planService implements the PlanService interface.
type planService struct {
	planRepo  repository.WorkoutPlanRepository
	generator coach.Generator
	publisher events.Publisher
	now       func() time.Time
}

// NewPlanService creates a new instance of planService.
func NewPlanService(planRepo repository.WorkoutPlanRepository, generator coach.Generator, publisher events.Publisher) PlanService {
	return &planService{
		planRepo:  planRepo,
		generator: generator,
		publisher: publisher,
		now:       time.Now,
	}
}

// GeneratePlan asks the coach port for a draft plan, re-validates it
// structurally (the generator output is not trusted blindly), and saves
// the draft.
func (s *planService) GeneratePlan(ctx context.Context, profile coach.Profile, template coach.PlanTemplate) (*domain.WorkoutPlan, error) {
	if profile.UserID == primitive.NilObjectID {
		return nil, errors.New("user ID is required to generate a plan")
	}
	plan, err := s.generator.GeneratePlan(ctx, profile, template)
	if err != nil {
		return nil, ErrPlanGeneration
	}
	plan.UserID = profile.UserID
	plan.Status = domain.PlanDraft
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	planID, err := s.planRepo.Create(ctx, &plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return &plan, nil
}

// AdjustPlan runs the coach port's adjustment over the owned plan and
// saves the result, publishing PlanAdjusted.
func (s *planService) AdjustPlan(ctx context.Context, userID, planID primitive.ObjectID, feedback coach.Feedback, recentPerformance float64) (*domain.WorkoutPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	adjusted, err := s.generator.AdjustPlan(ctx, *plan, feedback, recentPerformance)
	if err != nil {
		return nil, ErrPlanGeneration
	}
	if err := adjusted.Validate(); err != nil {
		return nil, err
	}
	if err := s.savePlan(ctx, &adjusted); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       events.PlanAdjusted,
		OccurredAt: s.now(),
		UserID:     userID.Hex(),
		PlanID:     planID.Hex(),
	})
	return &adjusted, nil
}

// GetPlan retrieves one plan, enforcing ownership.
func (s *planService) GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.ownedPlan(ctx, userID, planID)
}

// GetPlans retrieves all plans for a user, newest first.
func (s *planService) GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutPlan, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID cannot be nil")
	}
	return s.planRepo.GetByUserID(ctx, userID)
}

// GetActivePlan retrieves the user's single active plan.
func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	return plan, nil
}

// ActivatePlan transitions a draft to active and publishes PlanActivated.
// The repository's partial unique index rejects a second active plan.
func (s *planService) ActivatePlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.transition(ctx, userID, planID, events.PlanActivated, func(p domain.WorkoutPlan) (domain.WorkoutPlan, error) {
		return p.Activate(s.now())
	})
}

// PausePlan suspends an active plan and publishes PlanPaused.
func (s *planService) PausePlan(ctx context.Context, userID, planID primitive.ObjectID, reason string) (*domain.WorkoutPlan, error) {
	return s.transition(ctx, userID, planID, events.PlanPaused, func(p domain.WorkoutPlan) (domain.WorkoutPlan, error) {
		return p.Pause(reason, s.now())
	})
}

// ResumePlan reactivates a paused plan and publishes PlanResumed.
func (s *planService) ResumePlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.transition(ctx, userID, planID, events.PlanResumed, func(p domain.WorkoutPlan) (domain.WorkoutPlan, error) {
		return p.Resume(s.now())
	})
}

// AbandonPlan terminates a plan and publishes PlanAbandoned.
func (s *planService) AbandonPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.transition(ctx, userID, planID, events.PlanAbandoned, func(p domain.WorkoutPlan) (domain.WorkoutPlan, error) {
		return p.Abandon(s.now())
	})
}

// CompleteWorkout marks the plan slot complete against its durable
// record and publishes WorkoutCompleted.
func (s *planService) CompleteWorkout(ctx context.Context, userID, planID, workoutID, recordID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.transition(ctx, userID, planID, events.WorkoutCompleted, func(p domain.WorkoutPlan) (domain.WorkoutPlan, error) {
		return p.CompleteWorkout(workoutID, recordID, s.now())
	})
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, ErrWorkoutNotInPlan
		}
		return nil, err
	}
	return plan, nil
}

// AdvanceDay moves the position cursor forward. When the cursor runs
// off the last defined week the plan auto-completes, which is announced
// as PlanCompleted instead of the generic transition event.
func (s *planService) AdvanceDay(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	next, err := plan.AdvanceDay(s.now())
	if err != nil {
		return nil, err
	}
	if err := s.savePlan(ctx, &next); err != nil {
		return nil, err
	}
	if next.Status == domain.PlanCompleted {
		s.publisher.Publish(ctx, events.Event{
			Type:       events.PlanCompleted,
			OccurredAt: s.now(),
			UserID:     userID.Hex(),
			PlanID:     planID.Hex(),
		})
	}
	return &next, nil
}

// TodayWorkout resolves the workout at the active plan's position
// cursor. A nil template with nil error means a rest day.
func (s *planService) TodayWorkout(ctx context.Context, userID primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	plan, err := s.GetActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	workout, ok := plan.CurrentWorkout()
	if !ok {
		return nil, nil // rest day
	}
	return &workout, nil
}

// WorkoutForDate resolves the workout scheduled on the given date.
func (s *planService) WorkoutForDate(ctx context.Context, userID primitive.ObjectID, date time.Time) (*domain.WorkoutTemplate, error) {
	plan, err := s.GetActivePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	workout, ok := plan.WorkoutForDate(date)
	if !ok {
		return nil, nil // rest day
	}
	return &workout, nil
}

// transition is the shared load-apply-save-publish path for plan
// lifecycle commands.
func (s *planService) transition(ctx context.Context, userID, planID primitive.ObjectID, eventType events.Type, apply func(domain.WorkoutPlan) (domain.WorkoutPlan, error)) (*domain.WorkoutPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	next, err := apply(*plan)
	if err != nil {
		return nil, err
	}
	if err := s.savePlan(ctx, &next); err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		OccurredAt: s.now(),
		UserID:     userID.Hex(),
		PlanID:     planID.Hex(),
	})
	return &next, nil
}

// ownedPlan loads a plan and checks the caller owns it.
func (s *planService) ownedPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.UserID != userID {
		return nil, ErrPlanAccessDenied
	}
	return plan, nil
}

// savePlan maps the repository's conflict sentinels onto service errors.
func (s *planService) savePlan(ctx context.Context, plan *domain.WorkoutPlan) error {
	err := s.planRepo.Save(ctx, plan)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrPlanConflict
	case errors.Is(err, repository.ErrDuplicateActive):
		return ErrActivePlanExists
	case errors.Is(err, repository.ErrNotFound):
		return ErrPlanNotFound
	default:
		return err
	}
}
