package memory

import (
	"context"
	"sort"
	"sync"

	"course-authoring-service/internal/domain"
)

// CourseRepository is an in-memory implementation of app.CourseRepository.
// It stores deep copies, so callers never share state with the store.
type CourseRepository struct {
	mu       sync.RWMutex
	nextID   int64
	courses  map[int64]domain.CourseRecord
	optionID int64
	taskID   int64
}

func NewCourseRepository() *CourseRepository {
	return &CourseRepository{courses: make(map[int64]domain.CourseRecord)}
}

func (r *CourseRepository) Create(_ context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	course.ID = r.nextID
	r.courses[course.ID] = r.assignIDsLocked(course.Record())
	return nil
}

func (r *CourseRepository) Get(_ context.Context, courseID int64) (*domain.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.courses[courseID]
	if !ok {
		return nil, domain.ErrCourseNotFound
	}
	return domain.RestoreCourse(rec), nil
}

func (r *CourseRepository) Save(_ context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[course.ID]; !ok {
		return domain.ErrCourseNotFound
	}
	r.courses[course.ID] = r.assignIDsLocked(course.Record())
	return nil
}

func (r *CourseRepository) List(_ context.Context) ([]domain.CourseListItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]domain.CourseListItem, 0, len(r.courses))
	for _, rec := range r.courses {
		items = append(items, domain.ListItemOf(domain.RestoreCourse(rec)))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// Put stores a record as-is, bypassing the aggregate; tests use it to seed invalid states.
func (r *CourseRepository) Put(rec domain.CourseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID > r.nextID {
		r.nextID = rec.ID
	}
	r.courses[rec.ID] = r.assignIDsLocked(domain.RestoreCourse(rec).Record())
}

// assignIDsLocked gives fresh tasks and options an identity, like a database would on insert.
func (r *CourseRepository) assignIDsLocked(rec domain.CourseRecord) domain.CourseRecord {
	for i := range rec.Tasks {
		rec.Tasks[i].CourseID = rec.ID
		if rec.Tasks[i].ID == 0 {
			r.taskID++
			rec.Tasks[i].ID = r.taskID
		}
		for _, o := range rec.Tasks[i].Options {
			if o.ID == 0 {
				r.optionID++
				o.ID = r.optionID
			}
		}
	}
	return rec
}
