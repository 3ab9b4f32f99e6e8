package domain

import "time"

// ActivityType classifies a single block within a workout.
type ActivityType string

const (
	ActivityWarmup   ActivityType = "warmup"
	ActivityExercise ActivityType = "exercise"
	ActivityCardio   ActivityType = "cardio"
	ActivityInterval ActivityType = "interval"
	ActivityStretch  ActivityType = "stretch"
	ActivityCooldown ActivityType = "cooldown"
)

// Bounds for the intensity factor. Values outside this range are treated
// as no-ops by the transforms below rather than errors; UI-exposed ranges
// are expected to be validated by the caller.
const (
	MinIntensityFactor = 0.5
	MaxIntensityFactor = 1.5

	// intensityStep is the increment used by Harder/Easier.
	intensityStep = 0.1
)

// Interval describes one work/rest cycle within an interval activity.
type Interval struct {
	WorkSeconds int `bson:"workSeconds" json:"workSeconds"`
	RestSeconds int `bson:"restSeconds" json:"restSeconds"`
	Repeats     int `bson:"repeats" json:"repeats"`
}

// SetScheme describes a sets/reps/load prescription for a strength activity.
type SetScheme struct {
	Sets int     `bson:"sets" json:"sets"`
	Reps int     `bson:"reps" json:"reps"`
	Load float64 `bson:"load" json:"load"` // kg, 0 for bodyweight
}

// Activity is one block of a workout: a named exercise, cardio segment,
// interval set, or mobility piece. Pure value; all transforms return a
// new Activity and never mutate in place.
type Activity struct {
	Name            string       `bson:"name" json:"name"`
	Type            ActivityType `bson:"type" json:"type"`
	Instructions    string       `bson:"instructions,omitempty" json:"instructions,omitempty"`
	DurationSeconds int          `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	IntensityFactor float64      `bson:"intensityFactor,omitempty" json:"intensityFactor,omitempty"`
	Equipment       []string     `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Intervals       []Interval   `bson:"intervals,omitempty" json:"intervals,omitempty"`
	SetScheme       *SetScheme   `bson:"setScheme,omitempty" json:"setScheme,omitempty"`
}

// TotalDuration returns the full planned duration of the block: the base
// duration plus every interval's work and rest time across repeats.
func (a Activity) TotalDuration() time.Duration {
	seconds := a.DurationSeconds
	for _, iv := range a.Intervals {
		repeats := iv.Repeats
		if repeats < 1 {
			repeats = 1
		}
		seconds += (iv.WorkSeconds + iv.RestSeconds) * repeats
	}
	return time.Duration(seconds) * time.Second
}

// EquipmentNeeded returns the deduplicated equipment list for the block.
func (a Activity) EquipmentNeeded() []string {
	seen := make(map[string]bool, len(a.Equipment))
	var needed []string
	for _, item := range a.Equipment {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		needed = append(needed, item)
	}
	return needed
}

// RequiresEquipment reports whether the block needs any equipment at all.
func (a Activity) RequiresEquipment() bool {
	return len(a.EquipmentNeeded()) > 0
}

// WithIntensity returns a copy of the activity at the given intensity
// factor, scaling the set load accordingly. An out-of-range factor leaves
// the activity unchanged (permissive no-op, not an error).
func (a Activity) WithIntensity(factor float64) Activity {
	if factor < MinIntensityFactor || factor > MaxIntensityFactor {
		return a
	}
	out := a
	out.IntensityFactor = factor
	if a.SetScheme != nil {
		scheme := *a.SetScheme
		scheme.Load = a.SetScheme.Load * factor
		out.SetScheme = &scheme
	}
	return out
}

// Harder returns the activity bumped one intensity step up, clamping at
// the maximum (a no-op when already at the top of the range).
func (a Activity) Harder() Activity {
	current := a.IntensityFactor
	if current == 0 {
		current = 1.0
	}
	next := current + intensityStep
	if next > MaxIntensityFactor {
		return a
	}
	return a.WithIntensity(next)
}

// Easier returns the activity bumped one intensity step down, clamping at
// the minimum.
func (a Activity) Easier() Activity {
	current := a.IntensityFactor
	if current == 0 {
		current = 1.0
	}
	next := current - intensityStep
	if next < MinIntensityFactor {
		return a
	}
	return a.WithIntensity(next)
}
