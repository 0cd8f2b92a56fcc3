package app

import (
	"context"
	"time"

	"course-authoring-service/internal/domain"
	"course-authoring-service/internal/logger"
)

// CourseRepository persists whole course aggregates (course + ordered tasks + options).
type CourseRepository interface {
	// Create stores a new course and assigns its ID.
	Create(ctx context.Context, course *domain.Course) error
	Get(ctx context.Context, courseID int64) (*domain.Course, error)
	// Save replaces the stored aggregate atomically.
	Save(ctx context.Context, course *domain.Course) error
	List(ctx context.Context) ([]domain.CourseListItem, error)
}

// UserDirectory resolves principals (in-memory, Postgres, etc).
type UserDirectory interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// CourseCatalog serves cached course views.
type CourseCatalog interface {
	GetCourse(ctx context.Context, courseID int64) (domain.CourseView, error)
	Invalidate(ctx context.Context, courseID int64)
}

// CourseLocker serializes mutations of a single course.
type CourseLocker interface {
	Lock(ctx context.Context, courseID int64) (unlock func(), err error)
}

// EventBus fans out course events to live subscribers.
type EventBus interface {
	Publish(ctx context.Context, event domain.CourseEvent)
	Subscribe(ctx context.Context, courseID int64) (<-chan domain.CourseEvent, func(), error)
}

// OptionInput is an option as received from callers.
type OptionInput struct {
	Text    string
	Correct bool
}

// NewTask is a request to add a task of any variant.
type NewTask struct {
	CourseID  int64
	Type      domain.TaskType
	Statement string
	Order     int
	Options   []OptionInput
}

// CourseService contains the course authoring use cases.
type CourseService struct {
	courses CourseRepository
	users   UserDirectory
	catalog CourseCatalog
	locker  CourseLocker
	events  EventBus
	log     *logger.Logger
	now     func() time.Time
}

func NewCourseService(courses CourseRepository, users UserDirectory, catalog CourseCatalog, locker CourseLocker, events EventBus, log *logger.Logger) *CourseService {
	return NewCourseServiceWithClock(courses, users, catalog, locker, events, log, time.Now)
}

// NewCourseServiceWithClock is used by tests to control course and publish timestamps.
func NewCourseServiceWithClock(courses CourseRepository, users UserDirectory, catalog CourseCatalog, locker CourseLocker, events EventBus, log *logger.Logger, now func() time.Time) *CourseService {
	return &CourseService{
		courses: courses,
		users:   users,
		catalog: catalog,
		locker:  locker,
		events:  events,
		log:     log.With("service", "CourseService"),
		now:     now,
	}
}

// CreateCourse checks the instructor capability and stores a new BUILDING course.
func (s *CourseService) CreateCourse(ctx context.Context, instructorID int64, title, description string) (int64, error) {
	instructor, err := s.users.GetUser(ctx, instructorID)
	if err != nil {
		return 0, err
	}
	course, err := domain.NewCourse(title, description, instructor, s.now())
	if err != nil {
		return 0, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return 0, err
	}
	s.log.Info("course created", "course_id", course.ID, "instructor_id", instructorID)
	return course.ID, nil
}

func (s *CourseService) ListCourses(ctx context.Context) ([]domain.CourseListItem, error) {
	return s.courses.List(ctx)
}

func (s *CourseService) GetCourse(ctx context.Context, courseID int64) (domain.CourseView, error) {
	return s.catalog.GetCourse(ctx, courseID)
}

func (s *CourseService) AddOpenTextTask(ctx context.Context, courseID int64, statement string, order int) error {
	return s.AddTask(ctx, NewTask{CourseID: courseID, Type: domain.TaskOpenText, Statement: statement, Order: order})
}

func (s *CourseService) AddSingleChoiceTask(ctx context.Context, courseID int64, statement string, order int, options []OptionInput) error {
	return s.AddTask(ctx, NewTask{CourseID: courseID, Type: domain.TaskSingleChoice, Statement: statement, Order: order, Options: options})
}

func (s *CourseService) AddMultipleChoiceTask(ctx context.Context, courseID int64, statement string, order int, options []OptionInput) error {
	return s.AddTask(ctx, NewTask{CourseID: courseID, Type: domain.TaskMultipleChoice, Statement: statement, Order: order, Options: options})
}

// AddTask runs the operation-layer checks (status, title clash, duplicate statement) and
// then delegates ordering and variant rules to the aggregate.
func (s *CourseService) AddTask(ctx context.Context, req NewTask) error {
	var taskCount int
	err := s.mutate(ctx, req.CourseID, func(course *domain.Course) error {
		if course.Status() != domain.StatusBuilding {
			return domain.ErrCourseNotBuilding
		}
		if course.Title == req.Statement {
			return domain.ErrStatementEqualsTitle
		}
		if course.HasTaskWithStatement(req.Statement) {
			return domain.ErrDuplicateStatement
		}
		if err := course.AddTask(req.Type, req.Statement, req.Order, toOptions(req.Options)); err != nil {
			return err
		}
		taskCount = len(course.Tasks())
		return nil
	})
	if err != nil {
		s.log.Debug("task rejected", "course_id", req.CourseID, "type", req.Type, "order", req.Order, "error", err)
		return err
	}

	s.events.Publish(ctx, domain.CourseEvent{
		Type:       domain.EventTaskAdded,
		CourseID:   req.CourseID,
		Statement:  req.Statement,
		TaskType:   req.Type,
		Order:      req.Order,
		TaskCount:  taskCount,
		OccurredAt: s.now(),
	})
	s.log.Info("task added", "course_id", req.CourseID, "type", req.Type, "order", req.Order)
	return nil
}

// PublishCourse validates readiness and moves the course to PUBLISHED.
func (s *CourseService) PublishCourse(ctx context.Context, courseID int64) error {
	var taskCount int
	now := s.now()
	err := s.mutate(ctx, courseID, func(course *domain.Course) error {
		if err := course.Publish(now); err != nil {
			return err
		}
		taskCount = len(course.Tasks())
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(ctx, domain.CourseEvent{
		Type:       domain.EventCoursePublished,
		CourseID:   courseID,
		TaskCount:  taskCount,
		OccurredAt: now,
	})
	s.log.Info("course published", "course_id", courseID)
	return nil
}

// Subscribe returns a channel of events for an existing course.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *CourseService) Subscribe(ctx context.Context, courseID int64) (<-chan domain.CourseEvent, func(), error) {
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		return nil, nil, err
	}
	return s.events.Subscribe(ctx, courseID)
}

// mutate loads, changes and saves one course under its lock. Nothing is saved when fn fails.
func (s *CourseService) mutate(ctx context.Context, courseID int64, fn func(*domain.Course) error) error {
	unlock, err := s.locker.Lock(ctx, courseID)
	if err != nil {
		return err
	}
	defer unlock()

	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if err := fn(course); err != nil {
		return err
	}
	if err := s.courses.Save(ctx, course); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx, courseID)
	return nil
}

func toOptions(inputs []OptionInput) []*domain.Option {
	if inputs == nil {
		return nil
	}
	out := make([]*domain.Option, len(inputs))
	for i, in := range inputs {
		out[i] = domain.NewOption(in.Text, in.Correct)
	}
	return out
}

// RepositoryLoader adapts a CourseRepository to the catalog loaders.
type RepositoryLoader struct {
	courses CourseRepository
}

func NewRepositoryLoader(courses CourseRepository) *RepositoryLoader {
	return &RepositoryLoader{courses: courses}
}

func (l *RepositoryLoader) LoadCourse(ctx context.Context, courseID int64) (domain.CourseView, error) {
	course, err := l.courses.Get(ctx, courseID)
	if err != nil {
		return domain.CourseView{}, err
	}
	return domain.ViewOf(course), nil
}
