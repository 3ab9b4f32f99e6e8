package service

import (
	"context"
	"errors"
	"log"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/events"
	"peakform/coach-app/internal/repository"
	"peakform/coach-app/internal/session"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSessionNotFound  = errors.New("live session not found")
	ErrNoWorkoutToday   = errors.New("no workout scheduled today")
	ErrSessionOwnerOnly = errors.New("only the session owner can do that")
)

// StartSessionInput describes an ad-hoc session start. Plan-based
// sessions take their activities from today's scheduled workout instead.
type StartSessionInput struct {
	WorkoutType     string
	Activities      []domain.Activity
	IsMultiplayer   bool
	MaxParticipants int
	AllowSpectators bool
}

// SessionService owns the live-session path: spawning the per-session
// actor, proxying participant commands to it, and turning a finished
// session into a durable CompletedWorkout plus a completed plan slot.
type SessionService interface {
	StartFromPlan(ctx context.Context, userID primitive.ObjectID, ownerName string, multiplayer bool, maxParticipants int) (*domain.WorkoutSession, error)
	StartAdHoc(ctx context.Context, userID primitive.ObjectID, ownerName string, input StartSessionInput) (*domain.WorkoutSession, error)
	Join(ctx context.Context, sessionID string, participantID primitive.ObjectID, name string) (*domain.WorkoutSession, error)
	Leave(ctx context.Context, sessionID string, participantID primitive.ObjectID) (*domain.WorkoutSession, error)
	Pause(ctx context.Context, sessionID string, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	Resume(ctx context.Context, sessionID string, userID primitive.ObjectID) (*domain.WorkoutSession, error)
	CompleteActivity(ctx context.Context, sessionID string, userID primitive.ObjectID, record domain.PerformanceRecord) (*domain.WorkoutSession, error)
	Abandon(ctx context.Context, sessionID string, userID primitive.ObjectID, reason string) (*domain.WorkoutSession, error)
	Status(ctx context.Context, sessionID string) (*domain.WorkoutSession, error)
	SubscribeProgress(sessionID string) (<-chan domain.LiveProgress, func(), error)
	History(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CompletedWorkout, error)
}

// sessionService implements the SessionService interface.
type sessionService struct {
	manager       *session.Manager
	planRepo      repository.WorkoutPlanRepository
	completedRepo repository.CompletedWorkoutRepository
	publisher     events.Publisher
	defaultCap    int
	now           func() time.Time
}

// NewSessionService creates a new instance of sessionService.
// defaultCapacity is the multiplayer capacity applied when a request
// does not choose one; zero falls through to the domain default.
func NewSessionService(manager *session.Manager, planRepo repository.WorkoutPlanRepository, completedRepo repository.CompletedWorkoutRepository, publisher events.Publisher, defaultCapacity int) SessionService {
	return &sessionService{
		manager:       manager,
		planRepo:      planRepo,
		completedRepo: completedRepo,
		publisher:     publisher,
		defaultCap:    defaultCapacity,
		now:           time.Now,
	}
}

func (s *sessionService) capacity(requested int) int {
	if requested <= 0 {
		return s.defaultCap
	}
	return requested
}

// StartFromPlan starts a live session for today's workout in the user's
// active plan, linking the session back to the originating slot so the
// plan can be marked complete afterwards.
func (s *sessionService) StartFromPlan(ctx context.Context, userID primitive.ObjectID, ownerName string, multiplayer bool, maxParticipants int) (*domain.WorkoutSession, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	workout, ok := plan.CurrentWorkout()
	if !ok {
		return nil, ErrNoWorkoutToday
	}

	sess, err := domain.NewSession(userID.Hex(), workout.Title, workout.Activities, domain.SessionConfig{
		IsMultiplayer:   multiplayer,
		MaxParticipants: s.capacity(maxParticipants),
	})
	if err != nil {
		return nil, err
	}
	planID := plan.ID
	templateID := workout.ID
	sess.PlanID = &planID
	sess.TemplateID = &templateID

	return s.spawn(ctx, sess, userID, ownerName)
}

// StartAdHoc starts a live session outside any plan.
func (s *sessionService) StartAdHoc(ctx context.Context, userID primitive.ObjectID, ownerName string, input StartSessionInput) (*domain.WorkoutSession, error) {
	sess, err := domain.NewSession(userID.Hex(), input.WorkoutType, input.Activities, domain.SessionConfig{
		IsMultiplayer:   input.IsMultiplayer,
		MaxParticipants: s.capacity(input.MaxParticipants),
		AllowSpectators: input.AllowSpectators,
	})
	if err != nil {
		return nil, err
	}
	return s.spawn(ctx, sess, userID, ownerName)
}

func (s *sessionService) spawn(ctx context.Context, sess domain.WorkoutSession, userID primitive.ObjectID, ownerName string) (*domain.WorkoutSession, error) {
	snapshot, err := s.manager.Spawn(ctx, sess, ownerName)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       events.SessionStarted,
		OccurredAt: s.now(),
		UserID:     userID.Hex(),
		SessionID:  snapshot.ID,
	})
	return &snapshot, nil
}

// Join adds a participant to a multiplayer session.
func (s *sessionService) Join(ctx context.Context, sessionID string, participantID primitive.ObjectID, name string) (*domain.WorkoutSession, error) {
	return s.command(ctx, sessionID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return sess.Join(participantID.Hex(), name, now)
	})
}

// Leave marks a participant inactive.
func (s *sessionService) Leave(ctx context.Context, sessionID string, participantID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return s.command(ctx, sessionID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return sess.Leave(participantID.Hex(), now)
	})
}

// Pause suspends the session. Owner-only command.
func (s *sessionService) Pause(ctx context.Context, sessionID string, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return s.ownerCommand(ctx, sessionID, userID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return sess.Pause(now)
	})
}

// Resume continues a paused session. Owner-only command.
func (s *sessionService) Resume(ctx context.Context, sessionID string, userID primitive.ObjectID) (*domain.WorkoutSession, error) {
	return s.ownerCommand(ctx, sessionID, userID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return sess.Resume(now)
	})
}

// CompleteActivity records one finished activity. When it was the last
// one, the session has auto-completed and the durable record plus the
// plan-slot completion are handled here before the actor is reaped.
func (s *sessionService) CompleteActivity(ctx context.Context, sessionID string, userID primitive.ObjectID, record domain.PerformanceRecord) (*domain.WorkoutSession, error) {
	snapshot, err := s.ownerCommand(ctx, sessionID, userID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return sess.CompleteActivity(record, now)
	})
	if err != nil {
		return nil, err
	}
	if snapshot.State == domain.SessionCompleted {
		s.finalize(ctx, snapshot, userID)
	}
	return snapshot, nil
}

// Abandon terminates the session. Owner-only command.
func (s *sessionService) Abandon(ctx context.Context, sessionID string, userID primitive.ObjectID, reason string) (*domain.WorkoutSession, error) {
	snapshot, err := s.ownerCommand(ctx, sessionID, userID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return sess.Abandon(reason, now)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       events.SessionAbandoned,
		OccurredAt: s.now(),
		UserID:     userID.Hex(),
		SessionID:  sessionID,
		Reason:     reason,
	})
	return snapshot, nil
}

// Status returns the current session snapshot.
func (s *sessionService) Status(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	actor, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	snapshot, err := actor.Snapshot(ctx)
	if err != nil {
		return nil, mapActorErr(err)
	}
	return &snapshot, nil
}

// SubscribeProgress registers a live-progress observer for a session.
func (s *sessionService) SubscribeProgress(sessionID string) (<-chan domain.LiveProgress, func(), error) {
	actor, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, nil, ErrSessionNotFound
	}
	ch, cancel, err := actor.Subscribe(0)
	if err != nil {
		return nil, nil, mapActorErr(err)
	}
	return ch, cancel, nil
}

// History returns the user's completed-workout records.
func (s *sessionService) History(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.CompletedWorkout, error) {
	return s.completedRepo.GetByUserID(ctx, userID, limit)
}

// command routes a raw session command through the actor.
func (s *sessionService) command(ctx context.Context, sessionID string, cmd session.Command) (*domain.WorkoutSession, error) {
	snapshot, err := s.manager.Do(ctx, sessionID, cmd)
	if err != nil {
		return nil, mapActorErr(err)
	}
	return &snapshot, nil
}

// ownerCommand is command plus an owner check inside the actor, so the
// check and the transition are a single serialized step.
func (s *sessionService) ownerCommand(ctx context.Context, sessionID string, userID primitive.ObjectID, cmd session.Command) (*domain.WorkoutSession, error) {
	owner := userID.Hex()
	return s.command(ctx, sessionID, func(sess domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		if sess.OwnerID != owner {
			return sess, ErrSessionOwnerOnly
		}
		return cmd(sess, now)
	})
}

// finalize turns a completed session into its durable record and marks
// the originating plan slot complete. Failures here are logged, not
// surfaced: the athlete's workout already happened and the session's
// own completion must not be rolled back.
func (s *sessionService) finalize(ctx context.Context, snapshot *domain.WorkoutSession, userID primitive.ObjectID) {
	record, err := domain.BuildCompletedWorkout(*snapshot, userID)
	if err != nil {
		log.Printf("ERROR: building completed workout for session %s: %v", snapshot.ID, err)
		return
	}
	recordID, err := s.completedRepo.Create(ctx, &record)
	if err != nil {
		log.Printf("ERROR: saving completed workout for session %s: %v", snapshot.ID, err)
		return
	}

	s.publisher.Publish(ctx, events.Event{
		Type:       events.SessionCompleted,
		OccurredAt: s.now(),
		UserID:     userID.Hex(),
		SessionID:  snapshot.ID,
		RecordID:   recordID.Hex(),
	})

	if snapshot.PlanID == nil || snapshot.TemplateID == nil {
		return // ad-hoc session, no plan slot to complete
	}
	plan, err := s.planRepo.GetByID(ctx, *snapshot.PlanID)
	if err != nil {
		log.Printf("ERROR: loading plan %s to complete workout: %v", snapshot.PlanID.Hex(), err)
		return
	}
	next, err := plan.CompleteWorkout(*snapshot.TemplateID, recordID, s.now())
	if err != nil {
		log.Printf("ERROR: completing workout %s in plan %s: %v", snapshot.TemplateID.Hex(), plan.ID.Hex(), err)
		return
	}
	if err := s.planRepo.Save(ctx, &next); err != nil {
		log.Printf("ERROR: saving plan %s after workout completion: %v", plan.ID.Hex(), err)
		return
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       events.WorkoutCompleted,
		OccurredAt: s.now(),
		UserID:     userID.Hex(),
		PlanID:     plan.ID.Hex(),
		WorkoutID:  snapshot.TemplateID.Hex(),
		RecordID:   recordID.Hex(),
	})
}

// mapActorErr converts actor transport errors to service errors.
func mapActorErr(err error) error {
	if errors.Is(err, session.ErrActorStopped) || errors.Is(err, session.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}
