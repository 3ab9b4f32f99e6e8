package domain

import "math"

// ProgressionType selects how weekly training load is advanced.
type ProgressionType string

const (
	ProgressionLinear     ProgressionType = "linear"
	ProgressionUndulating ProgressionType = "undulating"
	ProgressionAdaptive   ProgressionType = "adaptive"
)

// Default weekly increase fractions per metric, used when the strategy
// does not supply one.
const (
	defaultLoadIncrease     = 0.025
	defaultVolumeIncrease   = 0.03
	defaultDistanceIncrease = 0.05
	defaultPaceImprovement  = 0.01

	// Deload-week multipliers. Pace gets slower on purpose.
	deloadLoadFactor     = 0.85
	deloadVolumeFactor   = 0.75
	deloadDistanceFactor = 0.9
	deloadPaceFactor     = 1.02

	// minPaceFloor guards against runaway pace improvement (unit-less).
	minPaceFloor = 100
)

// ProgressionStrategy is a pure value describing how load/volume/distance
// progress week over week. No identity; safe to copy.
type ProgressionStrategy struct {
	Type           ProgressionType `bson:"type" json:"type"`
	WeeklyIncrease float64         `bson:"weeklyIncrease,omitempty" json:"weeklyIncrease,omitempty"`
	MaxIncrease    *float64        `bson:"maxIncrease,omitempty" json:"maxIncrease,omitempty"`
	MinIncrease    *float64        `bson:"minIncrease,omitempty" json:"minIncrease,omitempty"`
	DeloadWeeks    []int           `bson:"deloadWeeks,omitempty" json:"deloadWeeks,omitempty"`
	TestWeeks      []int           `bson:"testWeeks,omitempty" json:"testWeeks,omitempty"`
}

// IsDeloadWeek reports whether the given week number is a designated
// recovery week.
func (s ProgressionStrategy) IsDeloadWeek(week int) bool {
	for _, w := range s.DeloadWeeks {
		if w == week {
			return true
		}
	}
	return false
}

// IsTestWeek reports whether the given week number is flagged for
// performance testing rather than normal progression.
func (s ProgressionStrategy) IsTestWeek(week int) bool {
	for _, w := range s.TestWeeks {
		if w == week {
			return true
		}
	}
	return false
}

// NextLoad computes the training load for the coming week. Deload weeks
// cut the load by 15%; otherwise the load grows by the weekly increase
// fraction, capped by MaxIncrease when set. Total over its domain: no
// input produces an error.
func (s ProgressionStrategy) NextLoad(currentLoad float64, week int) float64 {
	if s.IsDeloadWeek(week) {
		return currentLoad * deloadLoadFactor
	}
	increase := s.WeeklyIncrease
	if increase == 0 {
		increase = defaultLoadIncrease
	}
	delta := currentLoad * increase
	if s.MaxIncrease != nil && delta > *s.MaxIncrease {
		delta = *s.MaxIncrease
	}
	return currentLoad + delta
}

// AdaptiveLoad computes next week's load scaled by a performance score in
// [0,1]: a score of 1 yields the full weekly increase, 0 yields half of
// it. The scaled delta is clamped to the [MinIncrease, MaxIncrease]
// bounds when present. Strategies that are not adaptive delegate to
// NextLoad; the score is clamped rather than rejected.
func (s ProgressionStrategy) AdaptiveLoad(currentLoad float64, week int, performanceScore float64) float64 {
	if s.Type != ProgressionAdaptive {
		return s.NextLoad(currentLoad, week)
	}
	if s.IsDeloadWeek(week) {
		return currentLoad * deloadLoadFactor
	}
	score := performanceScore
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	increase := s.WeeklyIncrease
	if increase == 0 {
		increase = defaultLoadIncrease
	}
	delta := currentLoad * increase * (0.5 + score*0.5)
	if s.MinIncrease != nil && delta < *s.MinIncrease {
		delta = *s.MinIncrease
	}
	if s.MaxIncrease != nil && delta > *s.MaxIncrease {
		delta = *s.MaxIncrease
	}
	return currentLoad + delta
}

// NextVolume computes next week's training volume (sets, reps, minutes).
func (s ProgressionStrategy) NextVolume(currentVolume float64, week int) float64 {
	if s.IsDeloadWeek(week) {
		return currentVolume * deloadVolumeFactor
	}
	increase := s.WeeklyIncrease
	if increase == 0 {
		increase = defaultVolumeIncrease
	}
	return currentVolume * (1 + increase)
}

// NextDistance computes next week's distance, rounded to whole units.
func (s ProgressionStrategy) NextDistance(currentDistance float64, week int) float64 {
	if s.IsDeloadWeek(week) {
		return math.Round(currentDistance * deloadDistanceFactor)
	}
	increase := s.WeeklyIncrease
	if increase == 0 {
		increase = defaultDistanceIncrease
	}
	return math.Round(currentDistance * (1 + increase))
}

// NextPace computes next week's target pace, where lower is better.
// Deload weeks ease the pace slightly; normal weeks tighten it by the
// improvement rate, floored to guard against runaway improvement.
func (s ProgressionStrategy) NextPace(currentPace float64, week int) float64 {
	if s.IsDeloadWeek(week) {
		return currentPace * deloadPaceFactor
	}
	rate := defaultPaceImprovement
	if s.WeeklyIncrease != 0 {
		rate = s.WeeklyIncrease
	}
	next := currentPace * (1 - rate)
	if next < minPaceFloor {
		return minPaceFloor
	}
	return next
}
