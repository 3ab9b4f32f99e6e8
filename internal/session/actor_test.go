package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"peakform/coach-app/internal/domain"
)

func testSession(t *testing.T, activities int) domain.WorkoutSession {
	t.Helper()
	var acts []domain.Activity
	for i := 0; i < activities; i++ {
		acts = append(acts, domain.Activity{Name: "Block", Type: domain.ActivityExercise, DurationSeconds: 60})
	}
	sess, err := domain.NewSession("owner-1", "strength", acts, domain.SessionConfig{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestActorAppliesCommandsSerially(t *testing.T) {
	ctx := context.Background()
	m := NewManager(16)

	initial := testSession(t, 100)
	snapshot, err := m.Spawn(ctx, initial, "Alex")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if snapshot.State != domain.SessionInProgress {
		t.Fatalf("state after spawn = %s", snapshot.State)
	}

	// Fire 50 concurrent complete-activity commands. Serialized by the
	// actor, every one must land on a distinct activity index.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
				return s.CompleteActivity(domain.PerformanceRecord{}, now)
			})
			if err != nil {
				t.Errorf("CompleteActivity: %v", err)
			}
		}()
	}
	wg.Wait()

	actor, err := m.Get(initial.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	final, err := actor.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if final.CurrentActivityIndex != 50 {
		t.Errorf("index = %d, want 50", final.CurrentActivityIndex)
	}
	if len(final.CompletedActivities) != 50 {
		t.Fatalf("records = %d, want 50", len(final.CompletedActivities))
	}
	seen := make(map[int]bool, 50)
	for _, r := range final.CompletedActivities {
		if seen[r.ActivityIndex] {
			t.Fatalf("activity index %d recorded twice", r.ActivityIndex)
		}
		seen[r.ActivityIndex] = true
	}
}

func TestActorRejectsInvalidTransition(t *testing.T) {
	ctx := context.Background()
	m := NewManager(16)

	initial := testSession(t, 3)
	if _, err := m.Spawn(ctx, initial, "Alex"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// Resume without a pause is a state error; the snapshot is unchanged.
	_, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return s.Resume(now)
	})
	if !domain.IsKind(err, domain.KindState) {
		t.Fatalf("got %v, want state error", err)
	}

	actor, err := m.Get(initial.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	snapshot, err := actor.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.State != domain.SessionInProgress {
		t.Errorf("rejected command changed state to %s", snapshot.State)
	}
}

func TestSubscribeReceivesProgress(t *testing.T) {
	ctx := context.Background()
	m := NewManager(16)

	initial := testSession(t, 2)
	if _, err := m.Spawn(ctx, initial, "Alex"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	actor, err := m.Get(initial.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	ch, cancel, err := actor.Subscribe(8)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if _, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return s.CompleteActivity(domain.PerformanceRecord{}, now)
	}); err != nil {
		t.Fatalf("CompleteActivity: %v", err)
	}

	select {
	case progress := <-ch:
		if progress.SessionID != initial.ID {
			t.Errorf("progress session = %s, want %s", progress.SessionID, initial.ID)
		}
		if progress.ActivityIndex != 1 {
			t.Errorf("progress index = %d, want 1", progress.ActivityIndex)
		}
	case <-time.After(time.Second):
		t.Fatal("no progress update within 1s")
	}
}

func TestTerminalSessionIsReaped(t *testing.T) {
	ctx := context.Background()
	m := NewManager(16)

	initial := testSession(t, 1)
	if _, err := m.Spawn(ctx, initial, "Alex"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if m.Live() != 1 {
		t.Fatalf("live = %d, want 1", m.Live())
	}

	actor, err := m.Get(initial.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	ch, cancel, err := actor.Subscribe(8)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	snapshot, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return s.CompleteActivity(domain.PerformanceRecord{}, now)
	})
	if err != nil {
		t.Fatalf("CompleteActivity: %v", err)
	}
	if snapshot.State != domain.SessionCompleted {
		t.Fatalf("state = %s, want completed", snapshot.State)
	}

	// The subscriber channel closes once the actor shuts down.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				goto reaped
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed within 1s")
		}
	}
reaped:
	if m.Live() != 0 {
		t.Errorf("live = %d after terminal session, want 0", m.Live())
	}
	if _, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, _ time.Time) (domain.WorkoutSession, error) {
		return s, nil
	}); err != ErrSessionNotFound {
		t.Errorf("command after reap: got %v, want ErrSessionNotFound", err)
	}
}

func TestSpawnUnstartableSessionDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	m := NewManager(4)

	initial := testSession(t, 2)
	initial, err := initial.Start("Alex", time.Now())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	initial, err = initial.Abandon("changed my mind", time.Now())
	if err != nil {
		t.Fatalf("Abandon: %v", err)
	}

	if _, err := m.Spawn(ctx, initial, "Alex"); !domain.IsKind(err, domain.KindState) {
		t.Fatalf("Spawn terminal session: got %v, want state error", err)
	}

	deadline := time.Now().Add(time.Second)
	for m.Live() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("live = %d after failed spawn, want 0", m.Live())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error) {
		return s, nil
	}); err != ErrSessionNotFound {
		t.Errorf("Do after failed spawn: got %v, want ErrSessionNotFound", err)
	}
}

func TestShutdownAbandonsLiveSessions(t *testing.T) {
	ctx := context.Background()
	m := NewManager(16)

	first := testSession(t, 3)
	second := testSession(t, 3)
	if _, err := m.Spawn(ctx, first, "Alex"); err != nil {
		t.Fatalf("Spawn first: %v", err)
	}
	if _, err := m.Spawn(ctx, second, "Sam"); err != nil {
		t.Fatalf("Spawn second: %v", err)
	}

	m.Shutdown(ctx)

	// Reaping happens in the actors' terminal callbacks; give them a
	// moment to drain.
	deadline := time.Now().Add(time.Second)
	for m.Live() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("live = %d after shutdown, want 0", m.Live())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDoHonorsContext(t *testing.T) {
	m := NewManager(1)
	initial := testSession(t, 3)
	if _, err := m.Spawn(context.Background(), initial, "Alex"); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	// Wedge the actor on a slow command, then fill its one-slot mailbox,
	// so the next Do can only unblock via its context.
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = m.Do(context.Background(), initial.ID, func(s domain.WorkoutSession, _ time.Time) (domain.WorkoutSession, error) {
			close(entered)
			<-release
			return s, nil
		})
	}()
	<-entered
	go func() {
		_, _ = m.Do(context.Background(), initial.ID, func(s domain.WorkoutSession, _ time.Time) (domain.WorkoutSession, error) {
			return s, nil
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := m.Do(ctx, initial.ID, func(s domain.WorkoutSession, _ time.Time) (domain.WorkoutSession, error) {
		return s, nil
	})
	if err != context.DeadlineExceeded {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
	close(release)
}
