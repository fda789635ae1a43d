package services

import (
	"sync"

	"github.com/google/uuid"
)

// Event types published on the bus
const (
	EventSignedIn          = "signed_in"
	EventSignedOut         = "signed_out"
	EventExpenseAdded      = "expense_added"
	EventAdjustmentAdded   = "adjustment_added"
	EventCollaboratorAdded = "collaborator_added"
	EventGoalDeleted       = "goal_deleted"
)

// Event is a change notification. GoalID is uuid.Nil for auth events and
// SessionID is set only for them.
type Event struct {
	Type      string
	UserID    uuid.UUID
	SessionID uuid.UUID
	GoalID    uuid.UUID
	Data      interface{}
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Events is the process-wide bus
var Events = NewBus()

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, sid := range b.order {
				if sid == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}
