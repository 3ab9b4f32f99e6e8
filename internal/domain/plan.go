package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanStatus tracks the lifecycle of a workout plan.
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanAbandoned PlanStatus = "abandoned"
)

// PlanPosition is the (week, day) cursor tracking the user's current
// place in an active plan. Weeks are 1-indexed, days 0-6.
type PlanPosition struct {
	Week int `bson:"week" json:"week"`
	Day  int `bson:"day" json:"day"`
}

// Goals describes what the plan is working toward. Opaque to the plan
// engine beyond being stored and handed to the coach generator.
type Goals struct {
	Primary     string  `bson:"primary" json:"primary"`
	TargetValue float64 `bson:"targetValue,omitempty" json:"targetValue,omitempty"`
	Notes       string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Constraints captures equipment, injuries and availability the
// generator must respect.
type Constraints struct {
	Equipment   []string `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Injuries    []string `bson:"injuries,omitempty" json:"injuries,omitempty"`
	DaysPerWeek int      `bson:"daysPerWeek,omitempty" json:"daysPerWeek,omitempty"`
}

// WorkoutPlan is the aggregate composing weeks, position cursor,
// progression strategy and constraints. All commands are value-semantics:
// they return a new plan and never mutate in place. The position cursor
// is advanced explicitly rather than derived from the wall clock, so
// paused plans do not silently skip days and manual catch-up stays
// possible without reinterpreting history.
type WorkoutPlan struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Title       string              `bson:"title" json:"title"`
	Status      PlanStatus          `bson:"status" json:"status"`
	Weeks       []WeeklySchedule    `bson:"weeks" json:"weeks"`
	Position    PlanPosition        `bson:"position" json:"position"`
	Goals       Goals               `bson:"goals" json:"goals"`
	Progression ProgressionStrategy `bson:"progression" json:"progression"`
	Constraints Constraints         `bson:"constraints" json:"constraints"`
	StartDate   time.Time           `bson:"startDate" json:"startDate"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	PauseReason string              `bson:"pauseReason,omitempty" json:"pauseReason,omitempty"`
	Version     int64               `bson:"version" json:"version"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the structural invariants the plan engine relies on:
// weeks numbered 1..N contiguously, day slots unique within each week,
// and an in-range position cursor. Plans arriving from the coach
// generator are re-validated here before being accepted.
func (p WorkoutPlan) Validate() error {
	if p.Title == "" {
		return newError(KindValidation, "plan title cannot be empty")
	}
	for i, week := range p.Weeks {
		if week.WeekNumber != i+1 {
			return newError(KindValidation, "weeks must be numbered contiguously from 1, got %d at index %d", week.WeekNumber, i)
		}
		if !week.StartDate.Before(week.EndDate) {
			return newError(KindValidation, "week %d start date is not before its end date", week.WeekNumber)
		}
		if week.TargetWorkouts < 0 {
			return newError(KindValidation, "week %d has negative target workouts", week.WeekNumber)
		}
		seen := make(map[int]bool, len(week.Workouts))
		for _, t := range week.Workouts {
			if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
				return newError(KindValidation, "week %d workout on day %d out of range 0-6", week.WeekNumber, t.DayOfWeek)
			}
			if seen[t.DayOfWeek] {
				return newError(KindConflict, "week %d has two workouts on day %d", week.WeekNumber, t.DayOfWeek)
			}
			seen[t.DayOfWeek] = true
		}
	}
	if p.Position.Day < 0 || p.Position.Day > 6 {
		return newError(KindValidation, "position day %d out of range 0-6", p.Position.Day)
	}
	if p.Status == PlanActive {
		if _, ok := p.week(p.Position.Week); !ok {
			return newError(KindValidation, "position references week %d which does not exist", p.Position.Week)
		}
	}
	return nil
}

// Activate moves a draft plan into the active state. A plan with no
// weeks cannot be activated.
func (p WorkoutPlan) Activate(now time.Time) (WorkoutPlan, error) {
	if p.Status != PlanDraft {
		return p, newError(KindState, "cannot activate a %s plan, only drafts", p.Status)
	}
	if len(p.Weeks) == 0 {
		return p, newError(KindValidation, "cannot activate a plan with no weeks")
	}
	out := p
	out.Status = PlanActive
	if out.Position.Week < 1 {
		out.Position = PlanPosition{Week: 1, Day: 0}
	}
	out.UpdatedAt = now
	return out, nil
}

// Pause suspends an active plan, recording the reason.
func (p WorkoutPlan) Pause(reason string, now time.Time) (WorkoutPlan, error) {
	if p.Status != PlanActive {
		return p, newError(KindState, "cannot pause a %s plan", p.Status)
	}
	out := p
	out.Status = PlanPaused
	out.PauseReason = reason
	out.UpdatedAt = now
	return out, nil
}

// Resume reactivates a paused plan.
func (p WorkoutPlan) Resume(now time.Time) (WorkoutPlan, error) {
	if p.Status != PlanPaused {
		return p, newError(KindState, "cannot resume a %s plan", p.Status)
	}
	out := p
	out.Status = PlanActive
	out.PauseReason = ""
	out.UpdatedAt = now
	return out, nil
}

// Abandon terminates the plan from any non-terminal state.
func (p WorkoutPlan) Abandon(now time.Time) (WorkoutPlan, error) {
	switch p.Status {
	case PlanDraft, PlanActive, PlanPaused:
		out := p
		out.Status = PlanAbandoned
		out.UpdatedAt = now
		return out, nil
	default:
		return p, newError(KindState, "cannot abandon a %s plan", p.Status)
	}
}

// CompleteWorkout marks the identified workout complete, linking the
// durable completed-workout record and bumping the owning week's
// completed counter. Completing an already-completed or skipped workout
// fails; the week counter only ever increases.
func (p WorkoutPlan) CompleteWorkout(workoutID, recordID primitive.ObjectID, now time.Time) (WorkoutPlan, error) {
	for wi, week := range p.Weeks {
		for ti, t := range week.Workouts {
			if t.ID != workoutID {
				continue
			}
			completed, err := t.MarkCompleted(recordID)
			if err != nil {
				return p, err
			}
			newWorkouts := append([]WorkoutTemplate(nil), week.Workouts...)
			newWorkouts[ti] = completed
			newWeek := week
			newWeek.Workouts = newWorkouts
			newWeek = newWeek.incrementCompleted()

			newWeeks := append([]WeeklySchedule(nil), p.Weeks...)
			newWeeks[wi] = newWeek
			out := p
			out.Weeks = newWeeks
			out.UpdatedAt = now
			return out, nil
		}
	}
	return p, newError(KindNotFound, "workout %s not found in plan %s", workoutID.Hex(), p.ID.Hex())
}

// AdvanceDay moves the position cursor one day forward, carrying into
// the next week after day 6. Advancing past the last defined week is the
// plan's natural terminal condition: the plan auto-completes rather than
// erroring.
func (p WorkoutPlan) AdvanceDay(now time.Time) (WorkoutPlan, error) {
	if p.Status != PlanActive {
		return p, newError(KindState, "cannot advance a %s plan", p.Status)
	}
	next := p.Position
	next.Day++
	if next.Day > 6 {
		next.Day = 0
		next.Week++
	}
	out := p
	out.UpdatedAt = now
	if _, ok := p.week(next.Week); !ok {
		out.Status = PlanCompleted
		end := now
		out.EndDate = &end
		return out, nil
	}
	out.Position = next
	return out, nil
}

// CurrentWorkout resolves the workout at the position cursor, reporting
// false on a rest day.
func (p WorkoutPlan) CurrentWorkout() (WorkoutTemplate, bool) {
	week, ok := p.week(p.Position.Week)
	if !ok {
		return WorkoutTemplate{}, false
	}
	return week.WorkoutOnDay(p.Position.Day)
}

// WorkoutForDate resolves the workout scheduled on an arbitrary date,
// reporting false when the date falls outside the plan or on a rest day.
func (p WorkoutPlan) WorkoutForDate(date time.Time) (WorkoutTemplate, bool) {
	for _, week := range p.Weeks {
		if date.Before(week.StartDate) || date.After(week.EndDate) {
			continue
		}
		day := int(date.Sub(week.StartDate).Hours() / 24)
		if day < 0 || day > 6 {
			continue
		}
		return week.WorkoutOnDay(day)
	}
	return WorkoutTemplate{}, false
}

// CurrentWeek returns the weekly schedule at the position cursor.
func (p WorkoutPlan) CurrentWeek() (WeeklySchedule, bool) {
	return p.week(p.Position.Week)
}

// week looks up a weekly schedule by its 1-indexed number.
func (p WorkoutPlan) week(number int) (WeeklySchedule, bool) {
	for _, w := range p.Weeks {
		if w.WeekNumber == number {
			return w, true
		}
	}
	return WeeklySchedule{}, false
}

// IsTerminal reports whether the plan has reached a terminal status.
func (p WorkoutPlan) IsTerminal() bool {
	return p.Status == PlanCompleted || p.Status == PlanAbandoned
}
