package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletedWorkout is the durable record built from a session's final
// performance data. The live session itself is discarded once this
// record exists; downstream collaborators (achievements, streaks, coach
// context) read this, never the session.
type CompletedWorkout struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID             *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	TemplateID         *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"`
	SessionID          string              `bson:"sessionId" json:"sessionId"`
	WorkoutType        string              `bson:"workoutType" json:"workoutType"`
	StartedAt          time.Time           `bson:"startedAt" json:"startedAt"`
	CompletedAt        time.Time           `bson:"completedAt" json:"completedAt"`
	TotalPausedSeconds int                 `bson:"totalPausedSeconds" json:"totalPausedSeconds"`
	Activities         []PerformanceRecord `bson:"activities" json:"activities"`
	ParticipantNames   []string            `bson:"participantNames,omitempty" json:"participantNames,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
}

// BuildCompletedWorkout derives the durable record from a completed
// session. Sessions in any other state are rejected.
func BuildCompletedWorkout(s WorkoutSession, userID primitive.ObjectID) (CompletedWorkout, error) {
	if s.State != SessionCompleted {
		return CompletedWorkout{}, newError(KindState, "cannot build a record from a %s session", s.State)
	}
	record := CompletedWorkout{
		UserID:             userID,
		PlanID:             s.PlanID,
		TemplateID:         s.TemplateID,
		SessionID:          s.ID,
		WorkoutType:        s.WorkoutType,
		TotalPausedSeconds: s.TotalPausedSeconds,
		Activities:         append([]PerformanceRecord(nil), s.CompletedActivities...),
	}
	if s.StartedAt != nil {
		record.StartedAt = *s.StartedAt
	}
	if s.CompletedAt != nil {
		record.CompletedAt = *s.CompletedAt
	}
	for _, p := range s.Participants {
		record.ParticipantNames = append(record.ParticipantNames, p.Name)
	}
	return record, nil
}

// Duration returns the active workout time, pauses excluded.
func (c CompletedWorkout) Duration() time.Duration {
	total := c.CompletedAt.Sub(c.StartedAt) - time.Duration(c.TotalPausedSeconds)*time.Second
	if total < 0 {
		return 0
	}
	return total
}
