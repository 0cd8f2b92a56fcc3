package memory

import (
	"context"
	"sync"

	"course-authoring-service/internal/domain"
)

// EventBus is an in-memory implementation of app.EventBus.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan domain.CourseEvent]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[int64]map[chan domain.CourseEvent]struct{}),
	}
}

// Subscribe returns a channel that receives events of one course.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *EventBus) Subscribe(_ context.Context, courseID int64) (<-chan domain.CourseEvent, func(), error) {
	ch := make(chan domain.CourseEvent, 8)

	b.mu.Lock()
	subs, ok := b.subscribers[courseID]
	if !ok {
		subs = make(map[chan domain.CourseEvent]struct{})
		b.subscribers[courseID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs, ok := b.subscribers[courseID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(b.subscribers, courseID)
		}
	}
	return ch, cancel, nil
}

// Publish delivers event to every subscriber of its course without blocking.
func (b *EventBus) Publish(_ context.Context, event domain.CourseEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers[event.CourseID] {
		deliver(ch, event)
	}
}

// SubscriberCount reports the live subscribers of a course.
func (b *EventBus) SubscriberCount(courseID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[courseID])
}

// deliver drops the oldest queued event when a slow subscriber's buffer is full.
func deliver(ch chan domain.CourseEvent, event domain.CourseEvent) {
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- event
	}
}
