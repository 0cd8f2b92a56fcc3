package memory

import (
	"context"
	"sync"
)

// CourseLocker serializes mutations per course inside one process.
// A slot lives only while someone holds or waits for it.
type CourseLocker struct {
	mu    sync.Mutex
	slots map[int64]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewCourseLocker() *CourseLocker {
	return &CourseLocker{slots: make(map[int64]*lockSlot)}
}

// Lock blocks until the course is free or ctx is done.
func (l *CourseLocker) Lock(ctx context.Context, courseID int64) (func(), error) {
	slot := l.acquire(courseID)
	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(courseID, slot)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(courseID, slot)
		})
	}, nil
}

func (l *CourseLocker) acquire(courseID int64) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[courseID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[courseID] = slot
	}
	slot.refs++
	return slot
}

func (l *CourseLocker) release(courseID int64, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, courseID)
	}
}

func (l *CourseLocker) slotCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
