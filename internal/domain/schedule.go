package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus tracks the lifecycle of a scheduled workout slot.
type WorkoutStatus string

const (
	WorkoutScheduled WorkoutStatus = "scheduled"
	WorkoutCompleted WorkoutStatus = "completed"
	WorkoutSkipped   WorkoutStatus = "skipped"
)

// WorkoutTemplate is one scheduled workout within a weekly schedule,
// pinned to a day of week (0=Sunday .. 6=Saturday).
type WorkoutTemplate struct {
	ID            primitive.ObjectID  `bson:"id" json:"id"`
	Title         string              `bson:"title" json:"title"`
	WeekNumber    int                 `bson:"weekNumber" json:"weekNumber"`
	DayOfWeek     int                 `bson:"dayOfWeek" json:"dayOfWeek"`
	ScheduledDate time.Time           `bson:"scheduledDate" json:"scheduledDate"`
	Status        WorkoutStatus       `bson:"status" json:"status"`
	Activities    []Activity          `bson:"activities" json:"activities"`
	RecordID      *primitive.ObjectID `bson:"recordId,omitempty" json:"recordId,omitempty"` // completed-workout record, set on completion
}

// MarkCompleted transitions a scheduled workout to completed, linking the
// durable completed-workout record. Only scheduled workouts can complete;
// completed and skipped slots are immutable history.
func (t WorkoutTemplate) MarkCompleted(recordID primitive.ObjectID) (WorkoutTemplate, error) {
	if t.Status != WorkoutScheduled {
		return t, newError(KindState, "workout %s is %s, only scheduled workouts can be completed", t.ID.Hex(), t.Status)
	}
	out := t
	out.Status = WorkoutCompleted
	out.RecordID = &recordID
	return out, nil
}

// MarkSkipped transitions a scheduled workout to skipped.
func (t WorkoutTemplate) MarkSkipped() (WorkoutTemplate, error) {
	if t.Status != WorkoutScheduled {
		return t, newError(KindState, "workout %s is %s, only scheduled workouts can be skipped", t.ID.Hex(), t.Status)
	}
	out := t
	out.Status = WorkoutSkipped
	return out, nil
}

// TotalDuration sums the planned durations of the workout's activities.
func (t WorkoutTemplate) TotalDuration() time.Duration {
	var total time.Duration
	for _, a := range t.Activities {
		total += a.TotalDuration()
	}
	return total
}

// WeeklySchedule owns one week's workout slots. At most one workout per
// day of week; the completed counter is driven only by the owning plan.
type WeeklySchedule struct {
	WeekNumber        int               `bson:"weekNumber" json:"weekNumber"`
	StartDate         time.Time         `bson:"startDate" json:"startDate"`
	EndDate           time.Time         `bson:"endDate" json:"endDate"`
	Focus             string            `bson:"focus,omitempty" json:"focus,omitempty"`
	TargetWorkouts    int               `bson:"targetWorkouts" json:"targetWorkouts"`
	Workouts          []WorkoutTemplate `bson:"workouts" json:"workouts"`
	WorkoutsCompleted int               `bson:"workoutsCompleted" json:"workoutsCompleted"`
}

// AddWorkout returns the schedule with the template appended. It fails
// when the template belongs to another week, its day slot is already
// occupied, or its scheduled date falls outside the week's range.
func (w WeeklySchedule) AddWorkout(t WorkoutTemplate) (WeeklySchedule, error) {
	if t.WeekNumber != w.WeekNumber {
		return w, newError(KindConflict, "workout is for week %d, schedule is week %d", t.WeekNumber, w.WeekNumber)
	}
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return w, newError(KindValidation, "day of week %d out of range 0-6", t.DayOfWeek)
	}
	if _, ok := w.WorkoutOnDay(t.DayOfWeek); ok {
		return w, newError(KindConflict, "day %d of week %d already has a workout", t.DayOfWeek, w.WeekNumber)
	}
	if t.ScheduledDate.Before(w.StartDate) || t.ScheduledDate.After(w.EndDate) {
		return w, newError(KindValidation, "scheduled date %s outside week %d range", t.ScheduledDate.Format("2006-01-02"), w.WeekNumber)
	}
	out := w
	out.Workouts = append(append([]WorkoutTemplate(nil), w.Workouts...), t)
	return out, nil
}

// RemoveWorkout returns the schedule without the identified workout.
// Completed workouts are immutable history and cannot be removed.
func (w WeeklySchedule) RemoveWorkout(id primitive.ObjectID) (WeeklySchedule, error) {
	for i, t := range w.Workouts {
		if t.ID != id {
			continue
		}
		if t.Status == WorkoutCompleted {
			return w, newError(KindState, "workout %s is completed and cannot be removed", id.Hex())
		}
		out := w
		out.Workouts = append(append([]WorkoutTemplate(nil), w.Workouts[:i]...), w.Workouts[i+1:]...)
		return out, nil
	}
	return w, newError(KindNotFound, "workout %s not found in week %d", id.Hex(), w.WeekNumber)
}

// WorkoutOnDay returns the workout scheduled on the given day, if any.
func (w WeeklySchedule) WorkoutOnDay(day int) (WorkoutTemplate, bool) {
	for _, t := range w.Workouts {
		if t.DayOfWeek == day {
			return t, true
		}
	}
	return WorkoutTemplate{}, false
}

// incrementCompleted bumps the completed counter. Called exclusively by
// the owning plan when it marks a contained workout complete.
func (w WeeklySchedule) incrementCompleted() WeeklySchedule {
	out := w
	out.WorkoutsCompleted++
	return out
}

// CompletionRate returns completed/total for the week, 0 when the week
// has no workouts.
func (w WeeklySchedule) CompletionRate() float64 {
	if len(w.Workouts) == 0 {
		return 0
	}
	return float64(w.WorkoutsCompleted) / float64(len(w.Workouts))
}

// WeekStatus is a read-only coaching signal describing how the week is
// tracking against its remaining days.
type WeekStatus struct {
	DaysRemaining     int  `json:"daysRemaining"`
	WorkoutsRemaining int  `json:"workoutsRemaining"`
	OnTrack           bool `json:"onTrack"`
}

// Status reports days and workouts remaining as of now, and whether the
// remaining workouts still fit in the remaining days.
func (w WeeklySchedule) Status(now time.Time) WeekStatus {
	daysRemaining := 0
	if now.Before(w.EndDate) {
		daysRemaining = int(w.EndDate.Sub(now).Hours() / 24)
	}
	workoutsRemaining := len(w.Workouts) - w.WorkoutsCompleted
	if workoutsRemaining < 0 {
		workoutsRemaining = 0
	}
	onTrack := workoutsRemaining <= daysRemaining
	return WeekStatus{
		DaysRemaining:     daysRemaining,
		WorkoutsRemaining: workoutsRemaining,
		OnTrack:           onTrack,
	}
}
