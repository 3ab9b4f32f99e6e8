package service

import (
	"context"
	"sync"
	"testing"

	"peakform/coach-app/internal/coach"
	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/events"
	"peakform/coach-app/internal/repository"
	"peakform/coach-app/internal/session"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeCompletedRepo stores durable workout records in memory.
type fakeCompletedRepo struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]domain.CompletedWorkout
}

func newFakeCompletedRepo() *fakeCompletedRepo {
	return &fakeCompletedRepo{records: make(map[primitive.ObjectID]domain.CompletedWorkout)}
}

func (r *fakeCompletedRepo) Create(_ context.Context, record *domain.CompletedWorkout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	record.ID = id
	r.records[id] = *record
	return id, nil
}

func (r *fakeCompletedRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CompletedWorkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (r *fakeCompletedRepo) GetByUserID(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.CompletedWorkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CompletedWorkout
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func newSessionService(t *testing.T) (SessionService, *fakePlanRepo, *fakeCompletedRepo, *fakePublisher) {
	t.Helper()
	planRepo := newFakePlanRepo()
	completedRepo := newFakeCompletedRepo()
	pub := &fakePublisher{}
	svc := NewSessionService(session.NewManager(16), planRepo, completedRepo, pub, 8)
	return svc, planRepo, completedRepo, pub
}

func adHocInput(activities int) StartSessionInput {
	var acts []domain.Activity
	for i := 0; i < activities; i++ {
		acts = append(acts, domain.Activity{Name: "Block", Type: domain.ActivityExercise, DurationSeconds: 60})
	}
	return StartSessionInput{WorkoutType: "circuit", Activities: acts}
}

func TestStartAdHocSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _, pub := newSessionService(t)
	userID := primitive.NewObjectID()

	sess, err := svc.StartAdHoc(ctx, userID, "Alex", adHocInput(3))
	if err != nil {
		t.Fatalf("StartAdHoc: %v", err)
	}
	if sess.State != domain.SessionInProgress {
		t.Errorf("state = %s, want in_progress", sess.State)
	}
	if sess.PlanID != nil {
		t.Error("ad-hoc session should not reference a plan")
	}
	if !pub.has(events.SessionStarted) {
		t.Error("SessionStarted not published")
	}

	// Empty activity list is rejected before any actor is spawned.
	if _, err := svc.StartAdHoc(ctx, userID, "Alex", adHocInput(0)); !domain.IsKind(err, domain.KindValidation) {
		t.Errorf("empty activities: got %v, want validation error", err)
	}
}

func TestMultiplayerCapacityDefaultsFromService(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newSessionService(t)
	userID := primitive.NewObjectID()

	input := adHocInput(2)
	input.IsMultiplayer = true
	sess, err := svc.StartAdHoc(ctx, userID, "Alex", input)
	if err != nil {
		t.Fatalf("StartAdHoc: %v", err)
	}
	if sess.Config.MaxParticipants != 8 {
		t.Errorf("capacity = %d, want the configured default 8", sess.Config.MaxParticipants)
	}

	input.MaxParticipants = 2
	sess, err = svc.StartAdHoc(ctx, userID, "Alex", input)
	if err != nil {
		t.Fatalf("StartAdHoc with explicit capacity: %v", err)
	}
	if sess.Config.MaxParticipants != 2 {
		t.Errorf("capacity = %d, want the requested 2", sess.Config.MaxParticipants)
	}
}

func TestStartFromPlanLinksOrigin(t *testing.T) {
	ctx := context.Background()
	svc, planRepo, _, _ := newSessionService(t)
	userID := primitive.NewObjectID()

	// No active plan yet.
	if _, err := svc.StartFromPlan(ctx, userID, "Alex", false, 0); err != ErrNoActivePlan {
		t.Fatalf("got %v, want ErrNoActivePlan", err)
	}

	plan := activePlanFixture(t, planRepo, userID)

	// Position week 1 day 0 is a rest day: no session to start.
	if _, err := svc.StartFromPlan(ctx, userID, "Alex", false, 0); err != ErrNoWorkoutToday {
		t.Fatalf("rest day: got %v, want ErrNoWorkoutToday", err)
	}

	// Move the cursor onto Monday's workout.
	advanced, err := plan.AdvanceDay(svcEpoch)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}
	if err := planRepo.Save(ctx, &advanced); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sess, err := svc.StartFromPlan(ctx, userID, "Alex", false, 0)
	if err != nil {
		t.Fatalf("StartFromPlan: %v", err)
	}
	if sess.PlanID == nil || *sess.PlanID != plan.ID {
		t.Errorf("session plan ref = %v, want %s", sess.PlanID, plan.ID.Hex())
	}
	workout, _ := advanced.CurrentWorkout()
	if sess.TemplateID == nil || *sess.TemplateID != workout.ID {
		t.Errorf("session template ref = %v, want %s", sess.TemplateID, workout.ID.Hex())
	}
	if len(sess.Activities) != len(workout.Activities) {
		t.Errorf("session activities = %d, want %d", len(sess.Activities), len(workout.Activities))
	}
}

// activePlanFixture generates and activates a one-week plan directly
// through the repo fakes.
func activePlanFixture(t *testing.T, planRepo *fakePlanRepo, userID primitive.ObjectID) domain.WorkoutPlan {
	t.Helper()
	ctx := context.Background()
	g := coach.NewRuleBasedGenerator()
	plan, err := g.GeneratePlan(ctx, coach.Profile{
		UserID:      userID,
		Constraints: domain.Constraints{DaysPerWeek: 3, Equipment: []string{"dumbbells"}},
	}, coach.PlanTemplate{
		Title:       "Session Fixture",
		WorkoutType: "Press",
		Weeks:       1,
		BaseLoad:    30,
		StartDate:   svcEpoch,
	})
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if _, err := planRepo.Create(ctx, &plan); err != nil {
		t.Fatalf("Create: %v", err)
	}
	active, err := plan.Activate(svcEpoch)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := planRepo.Save(ctx, &active); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return active
}

func TestCompleteSessionFinalizes(t *testing.T) {
	ctx := context.Background()
	svc, planRepo, completedRepo, pub := newSessionService(t)
	userID := primitive.NewObjectID()

	plan := activePlanFixture(t, planRepo, userID)
	advanced, err := plan.AdvanceDay(svcEpoch)
	if err != nil {
		t.Fatalf("AdvanceDay: %v", err)
	}
	if err := planRepo.Save(ctx, &advanced); err != nil {
		t.Fatalf("Save: %v", err)
	}

	sess, err := svc.StartFromPlan(ctx, userID, "Alex", false, 0)
	if err != nil {
		t.Fatalf("StartFromPlan: %v", err)
	}

	// Work through every activity; the last one completes the session.
	var final *domain.WorkoutSession
	for i := 0; i < len(sess.Activities); i++ {
		final, err = svc.CompleteActivity(ctx, sess.ID, userID, domain.PerformanceRecord{DurationSeconds: 60})
		if err != nil {
			t.Fatalf("CompleteActivity %d: %v", i, err)
		}
	}
	if final.State != domain.SessionCompleted {
		t.Fatalf("state = %s, want completed", final.State)
	}

	// A durable record exists.
	records, err := completedRepo.GetByUserID(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	record := records[0]
	if record.SessionID != sess.ID {
		t.Errorf("record session = %s, want %s", record.SessionID, sess.ID)
	}
	if len(record.Activities) != len(sess.Activities) {
		t.Errorf("record activities = %d, want %d", len(record.Activities), len(sess.Activities))
	}

	// The originating plan slot is marked complete.
	reloaded, err := planRepo.GetByID(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	slot, ok := reloaded.Weeks[0].WorkoutOnDay(1)
	if !ok {
		t.Fatal("plan slot on day 1 missing")
	}
	if slot.Status != domain.WorkoutCompleted {
		t.Errorf("plan slot status = %s, want completed", slot.Status)
	}
	if slot.RecordID == nil || *slot.RecordID != record.ID {
		t.Errorf("plan slot record = %v, want %s", slot.RecordID, record.ID.Hex())
	}
	if reloaded.Weeks[0].WorkoutsCompleted != 1 {
		t.Errorf("completed counter = %d, want 1", reloaded.Weeks[0].WorkoutsCompleted)
	}

	for _, want := range []events.Type{events.SessionStarted, events.SessionCompleted, events.WorkoutCompleted} {
		if !pub.has(want) {
			t.Errorf("%s not published", want)
		}
	}

	// The session actor was reaped after completion.
	if _, err := svc.Status(ctx, sess.ID); err != ErrSessionNotFound {
		t.Errorf("status after completion: got %v, want ErrSessionNotFound", err)
	}

	// History returns the durable record.
	history, err := svc.History(ctx, userID, 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history = %d records, want 1", len(history))
	}
}

func TestAbandonSession(t *testing.T) {
	ctx := context.Background()
	svc, _, completedRepo, pub := newSessionService(t)
	userID := primitive.NewObjectID()

	sess, err := svc.StartAdHoc(ctx, userID, "Alex", adHocInput(3))
	if err != nil {
		t.Fatalf("StartAdHoc: %v", err)
	}

	abandoned, err := svc.Abandon(ctx, sess.ID, userID, "too tired")
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if abandoned.State != domain.SessionAbandoned {
		t.Errorf("state = %s, want abandoned", abandoned.State)
	}
	if !pub.has(events.SessionAbandoned) {
		t.Error("SessionAbandoned not published")
	}

	// No durable record for an abandoned session.
	records, err := completedRepo.GetByUserID(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestOwnerOnlyCommands(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newSessionService(t)
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	input := adHocInput(3)
	input.IsMultiplayer = true
	input.MaxParticipants = 3
	sess, err := svc.StartAdHoc(ctx, owner, "Alex", input)
	if err != nil {
		t.Fatalf("StartAdHoc: %v", err)
	}
	if _, err := svc.Join(ctx, sess.ID, other, "Sam"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := svc.Pause(ctx, sess.ID, other); err != ErrSessionOwnerOnly {
		t.Errorf("pause by participant: got %v, want ErrSessionOwnerOnly", err)
	}
	if _, err := svc.Abandon(ctx, sess.ID, other, "nope"); err != ErrSessionOwnerOnly {
		t.Errorf("abandon by participant: got %v, want ErrSessionOwnerOnly", err)
	}
	if _, err := svc.Pause(ctx, sess.ID, owner); err != nil {
		t.Errorf("pause by owner: %v", err)
	}
}

func TestMultiplayerSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _, completedRepo, _ := newSessionService(t)
	owner := primitive.NewObjectID()
	friend := primitive.NewObjectID()
	third := primitive.NewObjectID()

	input := adHocInput(2)
	input.IsMultiplayer = true
	input.MaxParticipants = 2
	sess, err := svc.StartAdHoc(ctx, owner, "Alex", input)
	if err != nil {
		t.Fatalf("StartAdHoc: %v", err)
	}

	joined, err := svc.Join(ctx, sess.ID, friend, "Sam")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(joined.Participants))
	}

	// Capacity reached.
	if _, err := svc.Join(ctx, sess.ID, third, "Kim"); !domain.IsKind(err, domain.KindConflict) {
		t.Errorf("over-capacity join: got %v, want conflict", err)
	}

	ch, cancel, err := svc.SubscribeProgress(sess.ID)
	if err != nil {
		t.Fatalf("SubscribeProgress: %v", err)
	}
	defer cancel()

	for i := 0; i < 2; i++ {
		if _, err := svc.CompleteActivity(ctx, sess.ID, owner, domain.PerformanceRecord{}); err != nil {
			t.Fatalf("CompleteActivity %d: %v", i, err)
		}
	}

	// The stream drains to closure once the session completes.
	sawUpdate := false
	for range ch {
		sawUpdate = true
	}
	if !sawUpdate {
		t.Error("no progress updates seen before the stream closed")
	}

	records, err := completedRepo.GetByUserID(ctx, owner, 10)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	names := records[0].ParticipantNames
	if len(names) != 2 {
		t.Errorf("participant names = %v, want both Alex and Sam", names)
	}
}
