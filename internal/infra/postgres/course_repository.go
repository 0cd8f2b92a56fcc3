package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"course-authoring-service/internal/domain"
	"github.com/uptrace/bun"
)

type courseRow struct {
	bun.BaseModel `bun:"table:courses"`

	ID           int64      `bun:"id,pk,autoincrement"`
	Title        string     `bun:"title,notnull"`
	Description  string     `bun:"description"`
	InstructorID int64      `bun:"instructor_id,notnull"`
	Status       string     `bun:"status,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	PublishedAt  *time.Time `bun:"published_at"`
}

type taskRow struct {
	bun.BaseModel `bun:"table:tasks"`

	ID        int64  `bun:"id,pk,autoincrement"`
	CourseID  int64  `bun:"course_id,notnull"`
	Type      string `bun:"type,notnull"`
	Statement string `bun:"statement,notnull"`
	Position  int    `bun:"task_order,notnull"`
}

type optionRow struct {
	bun.BaseModel `bun:"table:options"`

	ID      int64  `bun:"id,pk,autoincrement"`
	TaskID  int64  `bun:"task_id,notnull"`
	Text    string `bun:"option_text,notnull"`
	Correct bool   `bun:"is_correct,notnull"`
	Seq     int    `bun:"seq,notnull"`
}

// CourseRepository persists course aggregates with bun. Save rewrites the task and option
// rows of a course inside one transaction, so a reload always sees a whole aggregate.
type CourseRepository struct {
	db *bun.DB
}

func NewCourseRepository(db *bun.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(ctx context.Context, course *domain.Course) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := toCourseRow(course.Record())
		row.ID = 0
		if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		course.ID = row.ID
		return insertTasks(ctx, tx, course.ID, course.Tasks())
	})
}

func (r *CourseRepository) Get(ctx context.Context, courseID int64) (*domain.Course, error) {
	var row courseRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", courseID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}

	var tasks []taskRow
	if err := r.db.NewSelect().Model(&tasks).
		Where("course_id = ?", courseID).
		Order("task_order ASC", "id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	optionsByTask := make(map[int64][]*domain.Option, len(tasks))
	if len(tasks) > 0 {
		ids := make([]int64, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		var opts []optionRow
		if err := r.db.NewSelect().Model(&opts).
			Where("task_id IN (?)", bun.In(ids)).
			Order("task_id ASC", "seq ASC").
			Scan(ctx); err != nil {
			return nil, fmt.Errorf("load options: %w", err)
		}
		for _, o := range opts {
			optionsByTask[o.TaskID] = append(optionsByTask[o.TaskID], &domain.Option{ID: o.ID, Text: o.Text, Correct: o.Correct})
		}
	}

	rec := domain.CourseRecord{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		InstructorID: row.InstructorID,
		Status:       domain.Status(row.Status),
		CreatedAt:    row.CreatedAt,
		PublishedAt:  row.PublishedAt,
		Tasks:        make([]domain.Task, 0, len(tasks)),
	}
	for _, t := range tasks {
		rec.Tasks = append(rec.Tasks, domain.Task{
			ID:        t.ID,
			CourseID:  t.CourseID,
			Type:      domain.TaskType(t.Type),
			Statement: t.Statement,
			Position:  t.Position,
			Options:   optionsByTask[t.ID],
		})
	}
	return domain.RestoreCourse(rec), nil
}

func (r *CourseRepository) Save(ctx context.Context, course *domain.Course) error {
	rec := course.Record()
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := toCourseRow(rec)
		res, err := tx.NewUpdate().Model(&row).
			Column("title", "description", "status", "published_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrCourseNotFound
		}

		if _, err := tx.NewDelete().Model((*optionRow)(nil)).
			Where("task_id IN (SELECT id FROM tasks WHERE course_id = ?)", rec.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		if _, err := tx.NewDelete().Model((*taskRow)(nil)).
			Where("course_id = ?", rec.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		return insertTasks(ctx, tx, rec.ID, rec.Tasks)
	})
}

func (r *CourseRepository) List(ctx context.Context) ([]domain.CourseListItem, error) {
	var rows []courseRow
	if err := r.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	items := make([]domain.CourseListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.CourseListItem{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Status:      domain.Status(row.Status),
		})
	}
	return items, nil
}

func insertTasks(ctx context.Context, tx bun.Tx, courseID int64, tasks []domain.Task) error {
	for _, t := range tasks {
		row := taskRow{
			CourseID:  courseID,
			Type:      string(t.Type),
			Statement: t.Statement,
			Position:  t.Position,
		}
		if _, err := tx.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if len(t.Options) == 0 {
			continue
		}
		opts := make([]optionRow, len(t.Options))
		for i, o := range t.Options {
			opts[i] = optionRow{TaskID: row.ID, Text: o.Text, Correct: o.Correct, Seq: i}
		}
		if _, err := tx.NewInsert().Model(&opts).Exec(ctx); err != nil {
			return fmt.Errorf("insert options: %w", err)
		}
	}
	return nil
}

func toCourseRow(rec domain.CourseRecord) courseRow {
	return courseRow{
		ID:           rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		InstructorID: rec.InstructorID,
		Status:       string(rec.Status),
		CreatedAt:    rec.CreatedAt,
		PublishedAt:  rec.PublishedAt,
	}
}
