package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"course-authoring-service/internal/app"
	"course-authoring-service/internal/domain"
	"course-authoring-service/internal/infra/memory"
	"course-authoring-service/internal/logger"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service *app.CourseService
	repo    *memory.CourseRepository
	events  *memory.EventBus
}

func newFixture() fixture {
	users := memory.NewStaticUserDirectory([]domain.User{
		{ID: 1, Name: "Paulo", Email: "paulo@alura.com.br", Role: domain.RoleInstructor},
		{ID: 2, Name: "Caio", Email: "caio@alura.com.br", Role: domain.RoleStudent},
	})
	repo := memory.NewCourseRepository()
	events := memory.NewEventBus()
	catalog := memory.NewCourseCatalog(app.NewRepositoryLoader(repo), time.Minute)
	service := app.NewCourseServiceWithClock(repo, users, catalog, memory.NewCourseLocker(), events, logger.Nop(),
		func() time.Time { return fixedNow })
	return fixture{service: service, repo: repo, events: events}
}

func singleChoice() []app.OptionInput {
	return []app.OptionInput{{Text: "extends", Correct: true}, {Text: "implements"}}
}

func multipleChoice() []app.OptionInput {
	return []app.OptionInput{{Text: "Encapsulation", Correct: true}, {Text: "Inheritance", Correct: true}, {Text: "Compilation"}}
}

func TestCreateCourseRequiresInstructor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.service.CreateCourse(ctx, 2, "Java OO", "Object orientation"); !errors.Is(err, domain.ErrNotInstructor) {
		t.Fatalf("expected ErrNotInstructor, got %v", err)
	}
	if _, err := f.service.CreateCourse(ctx, 99, "Java OO", "Object orientation"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	id, err := f.service.CreateCourse(ctx, 1, "Java OO", "Object orientation")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	view, err := f.service.GetCourse(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Status != domain.StatusBuilding || view.InstructorID != 1 || !view.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestAddTaskPreChecks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, err := f.service.CreateCourse(ctx, 1, "Java OO", "Object orientation")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.service.AddOpenTextTask(ctx, id, "Java OO", 1); !errors.Is(err, domain.ErrStatementEqualsTitle) {
		t.Fatalf("expected ErrStatementEqualsTitle, got %v", err)
	}
	if err := f.service.AddOpenTextTask(ctx, id, "Explain encapsulation", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.service.AddOpenTextTask(ctx, id, "Explain encapsulation", 2); !errors.Is(err, domain.ErrDuplicateStatement) {
		t.Fatalf("expected ErrDuplicateStatement, got %v", err)
	}
	if err := f.service.AddOpenTextTask(ctx, 404, "Explain encapsulation", 1); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestFailedTaskLeavesCourseUnchanged(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.service.CreateCourse(ctx, 1, "Java OO", "Object orientation")
	if err := f.service.AddOpenTextTask(ctx, id, "Explain encapsulation", 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	bad := []app.OptionInput{{Text: "extends", Correct: true}, {Text: "implements", Correct: true}}
	if err := f.service.AddSingleChoiceTask(ctx, id, "Which keyword extends?", 1, bad); !errors.Is(err, domain.ErrExactlyOneCorrect) {
		t.Fatalf("expected ErrExactlyOneCorrect, got %v", err)
	}
	if err := f.service.AddOpenTextTask(ctx, id, "Explain inheritance", 5); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}

	view, _ := f.service.GetCourse(ctx, id)
	if len(view.Tasks) != 1 || view.Tasks[0].Statement != "Explain encapsulation" || view.Tasks[0].Order != 1 {
		t.Fatalf("course changed after failed adds: %+v", view.Tasks)
	}
}

func TestPublishFlowAndEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.service.CreateCourse(ctx, 1, "Java OO", "Object orientation")

	events, cancel, err := f.service.Subscribe(ctx, id)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := f.service.PublishCourse(ctx, id); !errors.Is(err, domain.ErrMissingTaskType) {
		t.Fatalf("expected ErrMissingTaskType, got %v", err)
	}

	if err := f.service.AddOpenTextTask(ctx, id, "Explain encapsulation", 1); err != nil {
		t.Fatalf("open text: %v", err)
	}
	if err := f.service.AddSingleChoiceTask(ctx, id, "Which keyword extends?", 2, singleChoice()); err != nil {
		t.Fatalf("single choice: %v", err)
	}
	if err := f.service.AddMultipleChoiceTask(ctx, id, "Pick the pillars of OO", 1, multipleChoice()); err != nil {
		t.Fatalf("multiple choice: %v", err)
	}

	// Cached view must reflect every mutation.
	view, _ := f.service.GetCourse(ctx, id)
	if len(view.Tasks) != 3 || view.Tasks[0].Type != domain.TaskMultipleChoice || view.Tasks[2].Type != domain.TaskSingleChoice {
		t.Fatalf("unexpected order %+v", view.Tasks)
	}

	if err := f.service.PublishCourse(ctx, id); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.service.PublishCourse(ctx, id); !errors.Is(err, domain.ErrCourseAlreadyPublished) {
		t.Fatalf("expected ErrCourseAlreadyPublished, got %v", err)
	}
	if err := f.service.AddOpenTextTask(ctx, id, "Explain inheritance", 4); !errors.Is(err, domain.ErrCourseNotBuilding) {
		t.Fatalf("expected ErrCourseNotBuilding, got %v", err)
	}

	view, _ = f.service.GetCourse(ctx, id)
	if view.Status != domain.StatusPublished || view.PublishedAt == nil || !view.PublishedAt.Equal(fixedNow) {
		t.Fatalf("unexpected published view %+v", view)
	}

	want := []domain.EventType{domain.EventTaskAdded, domain.EventTaskAdded, domain.EventTaskAdded, domain.EventCoursePublished}
	for i, typ := range want {
		select {
		case evt := <-events:
			if evt.Type != typ || evt.CourseID != id {
				t.Fatalf("event %d: got %+v", i, evt)
			}
			if typ == domain.EventCoursePublished && evt.TaskCount != 3 {
				t.Fatalf("expected task count 3, got %d", evt.TaskCount)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestPublishRejectsGap(t *testing.T) {
	f := newFixture()
	f.repo.Put(domain.CourseRecord{
		ID:           10,
		Title:        "Gapped",
		InstructorID: 1,
		Status:       domain.StatusBuilding,
		Tasks: []domain.Task{
			{Type: domain.TaskOpenText, Statement: "First task", Position: 1},
			{Type: domain.TaskSingleChoice, Statement: "Second task", Position: 2, Options: []*domain.Option{
				domain.NewOption("extends", true), domain.NewOption("implements", false),
			}},
			{Type: domain.TaskMultipleChoice, Statement: "Fourth task", Position: 4, Options: []*domain.Option{
				domain.NewOption("Encapsulation", true), domain.NewOption("Inheritance", true), domain.NewOption("Compilation", false),
			}},
		},
	})
	if err := f.service.PublishCourse(context.Background(), 10); !errors.Is(err, domain.ErrNonContinuousOrder) {
		t.Fatalf("expected ErrNonContinuousOrder, got %v", err)
	}
}

func TestConcurrentAppendsStayDense(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id, _ := f.service.CreateCourse(ctx, 1, "Java OO", "Object orientation")

	statements := []string{"Task number one", "Task number two", "Task number three", "Task number four", "Task number five"}
	var wg sync.WaitGroup
	for _, s := range statements {
		wg.Add(1)
		go func(statement string) {
			defer wg.Done()
			// Inserting at 1 is always valid, so every call must succeed.
			if err := f.service.AddOpenTextTask(ctx, id, statement, 1); err != nil {
				t.Errorf("add %q: %v", statement, err)
			}
		}(s)
	}
	wg.Wait()

	view, _ := f.service.GetCourse(ctx, id)
	if len(view.Tasks) != len(statements) {
		t.Fatalf("expected %d tasks, got %d", len(statements), len(view.Tasks))
	}
	for i, task := range view.Tasks {
		if task.Order != i+1 {
			t.Fatalf("orders not dense: %+v", view.Tasks)
		}
	}
}

func TestListCourses(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first, _ := f.service.CreateCourse(ctx, 1, "Java OO", "Object orientation")
	second, _ := f.service.CreateCourse(ctx, 1, "Go Basics", "Goroutines and channels")

	items, err := f.service.ListCourses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != first || items[1].ID != second {
		t.Fatalf("unexpected list %+v", items)
	}
}

func TestSubscribeUnknownCourse(t *testing.T) {
	f := newFixture()
	if _, _, err := f.service.Subscribe(context.Background(), 77); !errors.Is(err, domain.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if f.events.SubscriberCount(77) != 0 {
		t.Fatalf("expected no subscriber for unknown course")
	}
}
