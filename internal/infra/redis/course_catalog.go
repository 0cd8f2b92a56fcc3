package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"course-authoring-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CourseLoader builds course views from the backing store.
type CourseLoader interface {
	LoadCourse(ctx context.Context, courseID int64) (domain.CourseView, error)
}

// fillScript stores a view only while course:{id}:version still holds the version the
// fill read before loading. Invalidate bumps the version, so late fills are dropped.
var fillScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if current == false then
	current = "0"
end
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// CourseCatalog caches course views in Redis and falls back to a loader on cache miss.
// Views are stored as JSON at course:{id}:view; course:{id}:version counts invalidations.
type CourseCatalog struct {
	client *redis.Client
	loader CourseLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewCourseCatalog(client *redis.Client, loader CourseLoader, ttl time.Duration) *CourseCatalog {
	return &CourseCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CourseCatalog) GetCourse(ctx context.Context, courseID int64) (domain.CourseView, error) {
	key := viewKey(courseID)
	if view, ok := c.cached(ctx, key); ok {
		return view, nil
	}

	version := c.version(ctx, courseID)
	result, err, _ := c.sf.Do(key+"@"+version, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if view, ok := c.cached(ctx, key); ok {
			return view, nil
		}

		view, err := c.loader.LoadCourse(ctx, courseID)
		if err != nil {
			return domain.CourseView{}, err
		}

		data, err := json.Marshal(view)
		if err != nil {
			return domain.CourseView{}, err
		}
		// best-effort fill; a failed or rejected write only costs a reload
		keys := []string{key, versionKey(courseID)}
		_ = fillScript.Run(ctx, c.client, keys, version, data, c.ttlWithJitter().Milliseconds()).Err()
		return view, nil
	})
	if err != nil {
		return domain.CourseView{}, err
	}
	return result.(domain.CourseView), nil
}

// Invalidate drops the cached view so the next read reloads it.
func (c *CourseCatalog) Invalidate(ctx context.Context, courseID int64) {
	_, _ = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(courseID))
		pipe.Del(ctx, viewKey(courseID))
		return nil
	})
}

// version returns the current invalidation count; a missing key reads as "0".
func (c *CourseCatalog) version(ctx context.Context, courseID int64) string {
	v, err := c.client.Get(ctx, versionKey(courseID)).Result()
	if err != nil {
		return "0"
	}
	return v
}

func (c *CourseCatalog) cached(ctx context.Context, key string) (domain.CourseView, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; other errors fall through to the loader too
		return domain.CourseView{}, false
	}
	var view domain.CourseView
	if err := json.Unmarshal(raw, &view); err != nil {
		return domain.CourseView{}, false
	}
	return view, true
}

func viewKey(courseID int64) string {
	return "course:" + strconv.FormatInt(courseID, 10) + ":view"
}

func versionKey(courseID int64) string {
	return "course:" + strconv.FormatInt(courseID, 10) + ":version"
}

func (c *CourseCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
