package stream

import (
	"context"
	"sync"
)

// Table identifies the logical store a change event originated from.
type Table string

const (
	TableNotifications Table = "notifications"
	TablePreferences   Table = "app_preferences"
	TableSchedules     Table = "batch_schedules"
	TableFeedback      Table = "user_feedback"
	TableFlags         Table = "flags"
)

// Op is the kind of mutation that produced a change event.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is a store change notification delivered to subscribers.
type Event struct {
	Table Table
	Op    Op
}

// Broadcaster fans store change events out to all live subscribers. Each
// subscriber owns a buffered channel; a subscriber that falls behind loses
// events rather than blocking writers, which is safe because consumers
// re-read the full current state on every signal.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Broadcaster) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber whose channel is closed when ctx ends.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}
