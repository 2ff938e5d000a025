// Package notify carries the user-facing transient notifications the stores
// emit as an observable side effect of their transitions.
package notify

import (
	"context"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Event is one transient notification. UserID is empty for events that are
// not tied to an authenticated account.
type Event struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	UserID  string `json:"-"`
}

// Notifier receives store notifications. Publish must not block the store's
// operation; implementations drop events they cannot deliver.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder collects events for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}
