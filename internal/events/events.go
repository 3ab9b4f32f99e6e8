package events

import (
	"context"
	"log"
	"time"
)

// Type names a fact the core announces to downstream collaborators
// (achievements, streak counters, coach context).
type Type string

const (
	PlanActivated    Type = "plan.activated"
	PlanPaused       Type = "plan.paused"
	PlanResumed      Type = "plan.resumed"
	PlanAbandoned    Type = "plan.abandoned"
	PlanCompleted    Type = "plan.completed"
	PlanAdjusted     Type = "plan.adjusted"
	WorkoutCompleted Type = "workout.completed"
	SessionStarted   Type = "session.started"
	SessionCompleted Type = "session.completed"
	SessionAbandoned Type = "session.abandoned"
)

// Publisher is the outbound event port. Publishing is fire-and-forget
// from the core's perspective; the core never subscribes to anything.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Event is a single published fact. Ids are carried as strings so the
// event surface stays independent of the persistence id type.
type Event struct {
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	UserID     string    `json:"userId,omitempty"`
	PlanID     string    `json:"planId,omitempty"`
	WorkoutID  string    `json:"workoutId,omitempty"`
	SessionID  string    `json:"sessionId,omitempty"`
	RecordID   string    `json:"recordId,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// LogPublisher writes events to the application log. It stands in for a
// real broker until one is wired up by the integrating system.
type LogPublisher struct{}

// NewLogPublisher creates a log-backed publisher.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish logs the event. Never fails; fire-and-forget by contract.
func (p *LogPublisher) Publish(_ context.Context, event Event) {
	log.Printf("EVENT: %s plan=%s session=%s workout=%s user=%s", event.Type, event.PlanID, event.SessionID, event.WorkoutID, event.UserID)
}
