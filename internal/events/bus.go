// Package events fans out row-change notifications to in-process observers
// and, optionally, to an external broker.
package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Action is the kind of row change
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes one row change
type Event struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Table  string    `json:"table"`
	Action Action    `json:"action"`
	RowID  string    `json:"row_id"`
	At     time.Time `json:"at"`
}

// Subject is the broker routing key, zlatko.<user>.<table>.<action>
func (e Event) Subject() string {
	return strings.Join([]string{"zlatko", token(e.UserID), token(e.Table), token(string(e.Action))}, ".")
}

func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", "#", "_", " ", "_").Replace(s)
}

// Publisher accepts change notifications
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Forwarder ships events to an external broker
type Forwarder interface {
	Forward(ctx context.Context, e Event) error
	Close() error
}

type subscription struct {
	userID string
	ch     chan Event
}

// Bus delivers every published event to the subscribers of its user and to
// the forwarder. Delivery never blocks the publisher: a subscriber whose
// buffer is full misses the event.
type Bus struct {
	mu        sync.RWMutex
	subs      map[uint64]*subscription
	nextID    uint64
	forwarder Forwarder
	now       func() time.Time
}

// NewBus creates a bus. forwarder may be nil.
func NewBus(forwarder Forwarder) *Bus {
	return &Bus{
		subs:      make(map[uint64]*subscription),
		forwarder: forwarder,
		now:       time.Now,
	}
}

// Subscribe registers an observer of userID's changes. The returned cancel
// function unregisters it and closes the channel.
func (b *Bus) Subscribe(userID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	sub := &subscription{userID: userID, ch: make(chan Event, buffer)}
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = b.now().UTC()
	}

	b.mu.RLock()
	for _, sub := range b.subs {
		if sub.userID != e.UserID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			logrus.WithFields(logrus.Fields{"user_id": e.UserID, "table": e.Table}).Warn("Subscriber buffer full, dropping event")
		}
	}
	b.mu.RUnlock()

	if b.forwarder != nil {
		if err := b.forwarder.Forward(ctx, e); err != nil {
			logrus.Warnf("Failed to forward event %s: %v", e.Subject(), err)
		}
	}
}

// Subscribers returns the number of active subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes the forwarder. Subscriptions are released by their owners.
func (b *Bus) Close() error {
	if b.forwarder != nil {
		return b.forwarder.Close()
	}
	return nil
}
