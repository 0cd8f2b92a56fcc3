package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"course-authoring-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CourseLoader builds course views from the backing store.
type CourseLoader interface {
	LoadCourse(ctx context.Context, courseID int64) (domain.CourseView, error)
}

// CourseCatalog caches course views with TTL to avoid reloading whole aggregates.
type CourseCatalog struct {
	loader CourseLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedCourse
	// gens is bumped by Invalidate; a fill only stores its view if the generation it started
	// under is still current.
	gens map[int64]uint64
}

type cachedCourse struct {
	view      domain.CourseView
	expiresAt time.Time
}

func NewCourseCatalog(loader CourseLoader, ttl time.Duration) *CourseCatalog {
	return &CourseCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedCourse),
		gens:   make(map[int64]uint64),
	}
}

func (c *CourseCatalog) GetCourse(ctx context.Context, courseID int64) (domain.CourseView, error) {
	if view, ok := c.lookup(courseID); ok {
		return view, nil
	}

	gen := c.generation(courseID)
	// Callers arriving after an Invalidate must not join a fill that started before it.
	sfKey := catalogKey(courseID) + "@" + strconv.FormatUint(gen, 10)
	result, err, _ := c.sf.Do(sfKey, func() (interface{}, error) {
		if view, ok := c.lookup(courseID); ok {
			return view, nil
		}

		view, err := c.loader.LoadCourse(ctx, courseID)
		if err != nil {
			return domain.CourseView{}, err
		}

		c.mu.Lock()
		if c.gens[courseID] == gen {
			c.cache[courseID] = cachedCourse{
				view:      view,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return view, nil
	})
	if err != nil {
		return domain.CourseView{}, err
	}
	return result.(domain.CourseView), nil
}

// Invalidate drops the cached view so the next read reloads it.
func (c *CourseCatalog) Invalidate(_ context.Context, courseID int64) {
	c.mu.Lock()
	delete(c.cache, courseID)
	c.gens[courseID]++
	c.mu.Unlock()
}

func (c *CourseCatalog) generation(courseID int64) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[courseID]
}

func (c *CourseCatalog) lookup(courseID int64) (domain.CourseView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[courseID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.CourseView{}, false
	}
	return entry.view, true
}

func (c *CourseCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func catalogKey(courseID int64) string {
	return "course:" + strconv.FormatInt(courseID, 10)
}
