package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while the lock still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// CourseLocker is a distributed per-course mutex: SET course:{id}:lock {token} NX PX ttl.
// The ttl bounds how long a crashed holder can block other instances; a live holder renews
// the lease every ttl/3 until it unlocks.
type CourseLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewCourseLocker(client *redis.Client, ttl time.Duration) *CourseLocker {
	return &CourseLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// Lock polls until the lock is acquired or ctx is done.
func (l *CourseLocker) Lock(ctx context.Context, courseID int64) (func(), error) {
	key := lockKey(courseID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire course lock: %w", err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go l.renew(key, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed
			_ = releaseScript.Run(context.Background(), l.client, []string{key}, token).Err()
		})
	}, nil
}

func (l *CourseLocker) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			held, err := renewScript.Run(context.Background(), l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			if err == nil && held == 0 {
				// lease lost; nothing left to renew
				return
			}
		}
	}
}

func lockKey(courseID int64) string {
	return "course:" + strconv.FormatInt(courseID, 10) + ":lock"
}
