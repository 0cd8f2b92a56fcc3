package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"course-authoring-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// EventBus fans course events out across instances through Redis pub/sub.
// Each course has its own channel: course:{id}:events.
type EventBus struct {
	client *redis.Client
}

func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

// Publish is best-effort; live events are advisory and the course view stays authoritative.
func (b *EventBus) Publish(ctx context.Context, event domain.CourseEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_ = b.client.Publish(ctx, eventsChannel(event.CourseID), data).Err()
}

// Subscribe returns a channel that receives events of one course.
// The caller must invoke the returned cancel function to avoid leaks.
func (b *EventBus) Subscribe(ctx context.Context, courseID int64) (<-chan domain.CourseEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, eventsChannel(courseID))
	// Wait for the subscription confirmation so no event published afterwards is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe course events: %w", err)
	}

	out := make(chan domain.CourseEvent, 8)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.CourseEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				default:
					// drop the oldest queued event instead of blocking the reader
					select {
					case <-out:
					default:
					}
					out <- event
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}
	return out, cancel, nil
}

func eventsChannel(courseID int64) string {
	return "course:" + strconv.FormatInt(courseID, 10) + ":events"
}
