package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"peakform/coach-app/internal/domain"

	"github.com/google/uuid"
)

// ErrActorStopped is returned for commands sent after the actor has
// shut down (its session reached a terminal state and was reaped).
var ErrActorStopped = errors.New("session actor stopped")

// Command transforms a session snapshot into its successor. Commands
// are pure; the actor applies them one at a time, so no two commands
// for the same session ever execute concurrently.
type Command func(s domain.WorkoutSession, now time.Time) (domain.WorkoutSession, error)

// envelope carries one command through the mailbox together with its
// reply channel.
type envelope struct {
	cmd   Command
	reply chan result
}

type result struct {
	snapshot domain.WorkoutSession
	err      error
}

// subscriber is a live-progress observer registered with the actor.
type subscriber struct {
	id string
	ch chan domain.LiveProgress
}

// Actor owns one live workout session. All mutation happens inside its
// run loop; callers only ever see complete snapshots, never partial
// updates. The actor is addressed by session id through the Manager.
type Actor struct {
	id        string
	mailbox   chan envelope
	subscribe chan subscriber
	cancelSub chan string
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once

	now func() time.Time
}

// newActor spins up the run loop for the given initial session value.
// onTerminal fires exactly once, after the session reaches a terminal
// state and the final snapshot has been broadcast.
func newActor(initial domain.WorkoutSession, mailboxSize int, now func() time.Time, onTerminal func(id string)) *Actor {
	if mailboxSize <= 0 {
		mailboxSize = 16
	}
	if now == nil {
		now = time.Now
	}
	a := &Actor{
		id:        initial.ID,
		mailbox:   make(chan envelope, mailboxSize),
		subscribe: make(chan subscriber),
		cancelSub: make(chan string),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		now:       now,
	}
	go a.run(initial, onTerminal)
	return a
}

// ID returns the session id the actor is responsible for.
func (a *Actor) ID() string {
	return a.id
}

// Do submits a command and waits for the resulting snapshot. Both the
// submission and the wait honor ctx cancellation.
func (a *Actor) Do(ctx context.Context, cmd Command) (domain.WorkoutSession, error) {
	env := envelope{cmd: cmd, reply: make(chan result, 1)}
	select {
	case a.mailbox <- env:
	case <-a.done:
		return domain.WorkoutSession{}, ErrActorStopped
	case <-ctx.Done():
		return domain.WorkoutSession{}, ctx.Err()
	}
	select {
	case res := <-env.reply:
		return res.snapshot, res.err
	case <-a.done:
		// The command may have been the one that finished the session,
		// in which case its reply was buffered before shutdown.
		select {
		case res := <-env.reply:
			return res.snapshot, res.err
		default:
			return domain.WorkoutSession{}, ErrActorStopped
		}
	case <-ctx.Done():
		return domain.WorkoutSession{}, ctx.Err()
	}
}

// Snapshot returns the current session state without mutating it.
func (a *Actor) Snapshot(ctx context.Context) (domain.WorkoutSession, error) {
	return a.Do(ctx, func(s domain.WorkoutSession, _ time.Time) (domain.WorkoutSession, error) {
		return s, nil
	})
}

// Subscribe registers a live-progress observer. The returned cancel
// func must be called when the observer goes away; slow observers have
// updates dropped rather than blocking the actor.
func (a *Actor) Subscribe(buffer int) (<-chan domain.LiveProgress, func(), error) {
	if buffer <= 0 {
		buffer = 8
	}
	sub := subscriber{id: uuid.NewString(), ch: make(chan domain.LiveProgress, buffer)}
	select {
	case a.subscribe <- sub:
	case <-a.done:
		return nil, nil, ErrActorStopped
	}
	cancel := func() {
		select {
		case a.cancelSub <- sub.id:
		case <-a.done:
		}
	}
	return sub.ch, cancel, nil
}

// run is the single-writer loop. It applies commands serially against
// the authoritative snapshot and broadcasts live progress after every
// accepted command.
func (a *Actor) run(state domain.WorkoutSession, onTerminal func(id string)) {
	subs := make(map[string]chan domain.LiveProgress)
	defer func() {
		close(a.done)
		for _, ch := range subs {
			close(ch)
		}
		if onTerminal != nil {
			onTerminal(a.id)
		}
	}()

	for {
		select {
		case env := <-a.mailbox:
			now := a.now()
			next, err := env.cmd(state, now)
			if err != nil {
				env.reply <- result{snapshot: state, err: err}
				continue
			}
			state = next
			env.reply <- result{snapshot: state}
			progress := state.Progress(now)
			for _, ch := range subs {
				select {
				case ch <- progress:
				default: // drop rather than stall the session
				}
			}
			if state.IsTerminal() {
				return
			}
		case sub := <-a.subscribe:
			subs[sub.id] = sub.ch
		case id := <-a.cancelSub:
			if ch, ok := subs[id]; ok {
				close(ch)
				delete(subs, id)
			}
		case <-a.stop:
			return
		}
	}
}

// halt tears the run loop down without a state transition. Used when
// the actor was registered for a session that could not start.
func (a *Actor) halt() {
	a.stopOnce.Do(func() { close(a.stop) })
}
