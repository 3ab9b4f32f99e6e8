package domain

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testWeek(t *testing.T, number int) WeeklySchedule {
	t.Helper()
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, (number-1)*7)
	return WeeklySchedule{
		WeekNumber:     number,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 6),
		TargetWorkouts: 3,
	}
}

func testTemplate(t *testing.T, week, day int, weekStart time.Time) WorkoutTemplate {
	t.Helper()
	return WorkoutTemplate{
		ID:            primitive.NewObjectID(),
		Title:         "Strength A",
		WeekNumber:    week,
		DayOfWeek:     day,
		ScheduledDate: weekStart.AddDate(0, 0, day),
		Status:        WorkoutScheduled,
		Activities:    []Activity{{Name: "Squat", Type: ActivityExercise, DurationSeconds: 600}},
	}
}

func TestAddWorkout(t *testing.T) {
	week := testWeek(t, 1)

	week, err := week.AddWorkout(testTemplate(t, 1, 1, week.StartDate))
	if err != nil {
		t.Fatalf("AddWorkout: %v", err)
	}
	if len(week.Workouts) != 1 {
		t.Fatalf("got %d workouts, want 1", len(week.Workouts))
	}

	// Same day slot is a conflict.
	if _, err := week.AddWorkout(testTemplate(t, 1, 1, week.StartDate)); !IsKind(err, KindConflict) {
		t.Errorf("duplicate day: got %v, want conflict", err)
	}

	// Wrong week number.
	if _, err := week.AddWorkout(testTemplate(t, 2, 2, week.StartDate)); !IsKind(err, KindConflict) {
		t.Errorf("wrong week: got %v, want conflict", err)
	}

	// Day out of range.
	if _, err := week.AddWorkout(testTemplate(t, 1, 7, week.StartDate)); !IsKind(err, KindValidation) {
		t.Errorf("day 7: got %v, want validation", err)
	}

	// Date outside the week's range.
	bad := testTemplate(t, 1, 2, week.StartDate)
	bad.ScheduledDate = week.EndDate.AddDate(0, 0, 3)
	if _, err := week.AddWorkout(bad); !IsKind(err, KindValidation) {
		t.Errorf("out-of-range date: got %v, want validation", err)
	}
}

func TestRemoveWorkout(t *testing.T) {
	week := testWeek(t, 1)
	tpl := testTemplate(t, 1, 1, week.StartDate)
	week, err := week.AddWorkout(tpl)
	if err != nil {
		t.Fatalf("AddWorkout: %v", err)
	}

	if _, err := week.RemoveWorkout(primitive.NewObjectID()); !IsKind(err, KindNotFound) {
		t.Errorf("unknown id: got %v, want not found", err)
	}

	removed, err := week.RemoveWorkout(tpl.ID)
	if err != nil {
		t.Fatalf("RemoveWorkout: %v", err)
	}
	if len(removed.Workouts) != 0 {
		t.Errorf("got %d workouts after remove, want 0", len(removed.Workouts))
	}
	// Original value is untouched.
	if len(week.Workouts) != 1 {
		t.Errorf("original schedule mutated: %d workouts", len(week.Workouts))
	}

	// Completed workouts cannot be removed.
	done, err := tpl.MarkCompleted(primitive.NewObjectID())
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	week.Workouts[0] = done
	if _, err := week.RemoveWorkout(tpl.ID); !IsKind(err, KindState) {
		t.Errorf("remove completed: got %v, want state error", err)
	}
}

func TestMarkCompletedOnlyOnce(t *testing.T) {
	week := testWeek(t, 1)
	tpl := testTemplate(t, 1, 1, week.StartDate)
	recordID := primitive.NewObjectID()

	done, err := tpl.MarkCompleted(recordID)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if done.Status != WorkoutCompleted || done.RecordID == nil || *done.RecordID != recordID {
		t.Errorf("completed workout = %+v", done)
	}
	if _, err := done.MarkCompleted(recordID); !IsKind(err, KindState) {
		t.Errorf("second complete: got %v, want state error", err)
	}
	if _, err := done.MarkSkipped(); !IsKind(err, KindState) {
		t.Errorf("skip after complete: got %v, want state error", err)
	}
}

func TestCompletionRate(t *testing.T) {
	week := testWeek(t, 1)
	if got := week.CompletionRate(); got != 0 {
		t.Errorf("empty week rate = %v, want 0", got)
	}
	for _, day := range []int{1, 3, 5, 0} {
		var err error
		week, err = week.AddWorkout(testTemplate(t, 1, day, week.StartDate))
		if err != nil {
			t.Fatalf("AddWorkout day %d: %v", day, err)
		}
	}
	week = week.incrementCompleted()
	if got := week.CompletionRate(); got != 0.25 {
		t.Errorf("rate = %v, want 0.25", got)
	}
}

func TestWeekStatus(t *testing.T) {
	week := testWeek(t, 1)
	var err error
	for _, day := range []int{1, 3, 5} {
		week, err = week.AddWorkout(testTemplate(t, 1, day, week.StartDate))
		if err != nil {
			t.Fatalf("AddWorkout: %v", err)
		}
	}

	// Mid-week with all three remaining and three days left: still on track.
	now := week.StartDate.AddDate(0, 0, 3)
	status := week.Status(now)
	if status.DaysRemaining != 3 || status.WorkoutsRemaining != 3 || !status.OnTrack {
		t.Errorf("mid-week status = %+v", status)
	}

	// One day left, three workouts remaining: off track.
	status = week.Status(week.EndDate.AddDate(0, 0, -1))
	if status.OnTrack {
		t.Errorf("late-week status = %+v, want off track", status)
	}

	// Past the week's end nothing remains to be done in time.
	status = week.Status(week.EndDate.AddDate(0, 0, 1))
	if status.DaysRemaining != 0 || status.OnTrack {
		t.Errorf("post-week status = %+v", status)
	}
}
