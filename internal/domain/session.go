package domain

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionState tracks the lifecycle of a live workout session.
type SessionState string

const (
	SessionPreparing  SessionState = "preparing"
	SessionInProgress SessionState = "in_progress"
	SessionPaused     SessionState = "paused"
	SessionCompleted  SessionState = "completed"
	SessionAbandoned  SessionState = "abandoned"
)

// DefaultMaxParticipants applies when a multiplayer session is created
// without an explicit capacity.
const DefaultMaxParticipants = 4

// Participant is one person in a live session.
type Participant struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
	Active   bool      `json:"active"`
}

// PerformanceRecord captures what actually happened for one completed
// activity within a session.
type PerformanceRecord struct {
	ActivityIndex   int                `json:"activityIndex"`
	ActivityName    string             `json:"activityName"`
	DurationSeconds int                `json:"durationSeconds"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	CompletedAt     time.Time          `json:"completedAt"`
}

// SessionConfig controls multiplayer behavior for a session.
type SessionConfig struct {
	IsMultiplayer         bool `json:"isMultiplayer"`
	MaxParticipants       int  `json:"maxParticipants"`
	AllowSpectators       bool `json:"allowSpectators"`
	AutoAdvanceActivities bool `json:"autoAdvanceActivities"`
}

// LiveProgress is the derived, frequently-updated snapshot of a
// session's current activity and elapsed time, broadcast to observers.
type LiveProgress struct {
	SessionID         string       `json:"sessionId"`
	State             SessionState `json:"state"`
	ActivityIndex     int          `json:"activityIndex"`
	TotalActivities   int          `json:"totalActivities"`
	ActivityStartedAt *time.Time   `json:"activityStartedAt,omitempty"`
	ElapsedSeconds    int          `json:"elapsedSeconds"`
}

// WorkoutSession is the state machine for one live workout attempt. Like
// the plan aggregate, every command returns a complete new session value;
// the session actor holds the authoritative copy and swaps it on each
// accepted command. Sessions are discarded after the durable
// completed-workout record is built; they are never archived themselves.
type WorkoutSession struct {
	ID                   string              `json:"id"`
	OwnerID              string              `json:"ownerId"`
	WorkoutType          string              `json:"workoutType"`
	State                SessionState        `json:"state"`
	Activities           []Activity          `json:"activities"`
	CompletedActivities  []PerformanceRecord `json:"completedActivities"`
	CurrentActivityIndex int                 `json:"currentActivityIndex"`
	Config               SessionConfig       `json:"configuration"`
	Participants         []Participant       `json:"participants"`

	// Origin links back to the plan slot this session was started from,
	// absent for ad-hoc workouts.
	PlanID     *primitive.ObjectID `json:"planId,omitempty"`
	TemplateID *primitive.ObjectID `json:"templateId,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	PausedAt    *time.Time `json:"pausedAt,omitempty"`
	ResumedAt   *time.Time `json:"resumedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	AbandonedAt *time.Time `json:"abandonedAt,omitempty"`

	AbandonReason      string `json:"abandonReason,omitempty"`
	TotalPausedSeconds int    `json:"totalPausedSeconds"`

	// activityStartedAt marks when the current activity began. Resume
	// shifts it forward by the pause duration so elapsed time never
	// counts time spent paused.
	ActivityStartedAt *time.Time `json:"activityStartedAt,omitempty"`
}

// NewSession creates a session in the preparing state. The owner is
// registered as a participant only once Start is called. A session with
// no planned activities is rejected.
func NewSession(ownerID, workoutType string, activities []Activity, cfg SessionConfig) (WorkoutSession, error) {
	if ownerID == "" {
		return WorkoutSession{}, newError(KindValidation, "session owner id cannot be empty")
	}
	if len(activities) == 0 {
		return WorkoutSession{}, newError(KindValidation, "session requires at least one activity")
	}
	if cfg.IsMultiplayer && cfg.MaxParticipants <= 0 {
		cfg.MaxParticipants = DefaultMaxParticipants
	}
	return WorkoutSession{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		WorkoutType: workoutType,
		State:       SessionPreparing,
		Activities:  append([]Activity(nil), activities...),
		Config:      cfg,
	}, nil
}

// Start moves the session into progress and places the owner at the
// head of the roster. Participants who joined while the session was
// still preparing keep their seats.
func (s WorkoutSession) Start(ownerName string, now time.Time) (WorkoutSession, error) {
	if s.State != SessionPreparing {
		return s, newError(KindState, "cannot start a %s session", s.State)
	}
	out := s
	out.State = SessionInProgress
	out.StartedAt = &now
	out.ActivityStartedAt = &now
	if !s.hasParticipant(s.OwnerID) {
		roster := make([]Participant, 0, len(s.Participants)+1)
		roster = append(roster, Participant{
			ID:       s.OwnerID,
			Name:     ownerName,
			JoinedAt: now,
			Active:   true,
		})
		out.Participants = append(roster, s.Participants...)
	}
	return out, nil
}

func (s WorkoutSession) hasParticipant(id string) bool {
	for _, p := range s.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// rosterSize counts seats that are taken, including the owner's seat
// while it is still reserved before Start claims it.
func (s WorkoutSession) rosterSize() int {
	n := len(s.Participants)
	if !s.hasParticipant(s.OwnerID) {
		n++
	}
	return n
}

// CanJoin reports whether another participant could join right now.
func (s WorkoutSession) CanJoin() bool {
	if !s.Config.IsMultiplayer || s.IsTerminal() {
		return false
	}
	return s.rosterSize() < s.Config.MaxParticipants
}

// Join adds a participant to a multiplayer session. Single-player
// sessions reject all joins regardless of capacity.
func (s WorkoutSession) Join(participantID, participantName string, now time.Time) (WorkoutSession, error) {
	if !s.Config.IsMultiplayer {
		return s, newError(KindState, "session %s is single-player", s.ID)
	}
	if s.IsTerminal() {
		return s, newError(KindState, "session %s is %s", s.ID, s.State)
	}
	if s.rosterSize() >= s.Config.MaxParticipants {
		return s, newError(KindConflict, "session %s is full (%d participants)", s.ID, s.Config.MaxParticipants)
	}
	for _, p := range s.Participants {
		if p.ID == participantID {
			return s, newError(KindConflict, "participant %s already joined session %s", participantID, s.ID)
		}
	}
	out := s
	out.Participants = append(append([]Participant(nil), s.Participants...), Participant{
		ID:       participantID,
		Name:     participantName,
		JoinedAt: now,
		Active:   true,
	})
	return out, nil
}

// Leave marks a participant inactive. The roster is append-only so the
// activity feed keeps everyone who ever joined.
func (s WorkoutSession) Leave(participantID string, now time.Time) (WorkoutSession, error) {
	if s.IsTerminal() {
		return s, newError(KindState, "session %s is %s", s.ID, s.State)
	}
	for i, p := range s.Participants {
		if p.ID != participantID {
			continue
		}
		if !p.Active {
			return s, newError(KindState, "participant %s already left session %s", participantID, s.ID)
		}
		out := s
		out.Participants = append([]Participant(nil), s.Participants...)
		out.Participants[i].Active = false
		return out, nil
	}
	return s, newError(KindNotFound, "participant %s not in session %s", participantID, s.ID)
}

// Pause suspends an in-progress session.
func (s WorkoutSession) Pause(now time.Time) (WorkoutSession, error) {
	if s.State != SessionInProgress {
		return s, newError(KindState, "cannot pause a %s session", s.State)
	}
	out := s
	out.State = SessionPaused
	out.PausedAt = &now
	return out, nil
}

// Resume continues a paused session, accumulating the paused time so it
// never counts toward activity duration.
func (s WorkoutSession) Resume(now time.Time) (WorkoutSession, error) {
	if s.State != SessionPaused {
		return s, newError(KindState, "cannot resume a %s session", s.State)
	}
	out := s
	out.State = SessionInProgress
	out.ResumedAt = &now
	if s.PausedAt != nil {
		paused := now.Sub(*s.PausedAt)
		out.TotalPausedSeconds += int(paused.Seconds())
		if s.ActivityStartedAt != nil {
			shifted := s.ActivityStartedAt.Add(paused)
			out.ActivityStartedAt = &shifted
		}
	}
	out.PausedAt = nil
	return out, nil
}

// CompleteActivity appends the performance record and advances the
// activity pointer. Completing the last planned activity is the only
// path to the completed state: finishing the final set finishes the
// workout, with no separate command.
func (s WorkoutSession) CompleteActivity(record PerformanceRecord, now time.Time) (WorkoutSession, error) {
	if s.State != SessionInProgress {
		return s, newError(KindState, "cannot complete an activity in a %s session", s.State)
	}
	record.ActivityIndex = s.CurrentActivityIndex
	if record.ActivityName == "" && s.CurrentActivityIndex < len(s.Activities) {
		record.ActivityName = s.Activities[s.CurrentActivityIndex].Name
	}
	record.CompletedAt = now

	out := s
	out.CompletedActivities = append(append([]PerformanceRecord(nil), s.CompletedActivities...), record)
	out.CurrentActivityIndex = s.CurrentActivityIndex + 1
	if out.CurrentActivityIndex >= len(s.Activities) {
		out.State = SessionCompleted
		out.CompletedAt = &now
		out.ActivityStartedAt = nil
	} else {
		out.ActivityStartedAt = &now
	}
	return out, nil
}

// Abandon terminates the session from any non-terminal state. A second
// abandon fails closed rather than succeeding silently, preserving a
// clear audit trail.
func (s WorkoutSession) Abandon(reason string, now time.Time) (WorkoutSession, error) {
	if s.IsTerminal() {
		return s, newError(KindState, "session %s is already %s", s.ID, s.State)
	}
	out := s
	out.State = SessionAbandoned
	out.AbandonedAt = &now
	out.AbandonReason = reason
	return out, nil
}

// CurrentActivity returns the activity at the pointer, reporting false
// once every activity has been completed.
func (s WorkoutSession) CurrentActivity() (Activity, bool) {
	if s.CurrentActivityIndex < 0 || s.CurrentActivityIndex >= len(s.Activities) {
		return Activity{}, false
	}
	return s.Activities[s.CurrentActivityIndex], true
}

// CompletionPercentage returns progress through the planned activities
// as a percentage, 0 for an empty plan by convention.
func (s WorkoutSession) CompletionPercentage() float64 {
	if len(s.Activities) == 0 {
		return 0
	}
	return float64(len(s.CompletedActivities)) / float64(len(s.Activities)) * 100
}

// ActiveParticipants returns everyone currently in the session.
func (s WorkoutSession) ActiveParticipants() []Participant {
	var active []Participant
	for _, p := range s.Participants {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

// IsTerminal reports whether the session has finished or been abandoned.
func (s WorkoutSession) IsTerminal() bool {
	return s.State == SessionCompleted || s.State == SessionAbandoned
}

// Progress builds the live-progress projection as of now. Paused time is
// excluded from the elapsed count.
func (s WorkoutSession) Progress(now time.Time) LiveProgress {
	lp := LiveProgress{
		SessionID:         s.ID,
		State:             s.State,
		ActivityIndex:     s.CurrentActivityIndex,
		TotalActivities:   len(s.Activities),
		ActivityStartedAt: s.ActivityStartedAt,
	}
	if s.ActivityStartedAt != nil {
		ref := now
		if s.State == SessionPaused && s.PausedAt != nil {
			ref = *s.PausedAt
		}
		if elapsed := ref.Sub(*s.ActivityStartedAt); elapsed > 0 {
			lp.ElapsedSeconds = int(elapsed.Seconds())
		}
	}
	return lp
}
