package domain

import (
	"sort"
	"strings"
	"time"
)

// Status is the lifecycle state of a course.
type Status string

const (
	StatusBuilding  Status = "BUILDING"
	StatusPublished Status = "PUBLISHED"
)

// Course is the aggregate root owning an ordered, dense sequence of tasks.
type Course struct {
	ID           int64
	Title        string
	Description  string
	InstructorID int64
	CreatedAt    time.Time

	status      Status
	publishedAt *time.Time
	tasks       []Task
}

// NewCourse creates a course in BUILDING state. The instructor capability is checked here only.
func NewCourse(title, description string, instructor User, now time.Time) (*Course, error) {
	if !instructor.IsInstructor() {
		return nil, ErrNotInstructor
	}
	if strings.TrimSpace(title) == "" {
		return nil, ErrBlankTitle
	}
	return &Course{
		Title:        title,
		Description:  description,
		InstructorID: instructor.ID,
		CreatedAt:    now,
		status:       StatusBuilding,
	}, nil
}

// CourseRecord is the persisted shape of a course aggregate.
type CourseRecord struct {
	ID           int64
	Title        string
	Description  string
	InstructorID int64
	Status       Status
	CreatedAt    time.Time
	PublishedAt  *time.Time
	Tasks        []Task
}

// RestoreCourse rebuilds an aggregate from storage. Positions are kept as stored; options come back bound.
func RestoreCourse(rec CourseRecord) *Course {
	tasks := make([]Task, 0, len(rec.Tasks))
	for _, t := range rec.Tasks {
		t = t.clone()
		for _, o := range t.Options {
			o.bound = true
		}
		tasks = append(tasks, t)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Position < tasks[j].Position })

	status := rec.Status
	if status == "" {
		status = StatusBuilding
	}
	return &Course{
		ID:           rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		InstructorID: rec.InstructorID,
		CreatedAt:    rec.CreatedAt,
		status:       status,
		publishedAt:  copyTime(rec.PublishedAt),
		tasks:        tasks,
	}
}

// Record returns a deep copy of the aggregate suitable for storage.
func (c *Course) Record() CourseRecord {
	return CourseRecord{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		InstructorID: c.InstructorID,
		Status:       c.status,
		CreatedAt:    c.CreatedAt,
		PublishedAt:  copyTime(c.publishedAt),
		Tasks:        c.Tasks(),
	}
}

func (c *Course) Status() Status {
	return c.status
}

func (c *Course) PublishedAt() *time.Time {
	return copyTime(c.publishedAt)
}

func (c *Course) IsPublished() bool {
	return c.status == StatusPublished
}

// Tasks returns a copy of the tasks ordered by position.
func (c *Course) Tasks() []Task {
	out := make([]Task, len(c.tasks))
	for i, t := range c.tasks {
		out[i] = t.clone()
	}
	return out
}

// HasTaskWithStatement reports an exact statement match among the course's tasks.
func (c *Course) HasTaskWithStatement(statement string) bool {
	for _, t := range c.tasks {
		if t.Statement == statement {
			return true
		}
	}
	return false
}

func (c *Course) AddOpenTextTask(statement string, position int) error {
	return c.AddTask(TaskOpenText, statement, position, nil)
}

func (c *Course) AddSingleChoiceTask(statement string, position int, options []*Option) error {
	return c.AddTask(TaskSingleChoice, statement, position, options)
}

func (c *Course) AddMultipleChoiceTask(statement string, position int, options []*Option) error {
	return c.AddTask(TaskMultipleChoice, statement, position, options)
}

// AddTask validates the position, builds the variant and inserts it, shifting every task at or
// after position one step right. On error the course is left untouched.
func (c *Course) AddTask(typ TaskType, statement string, position int, options []*Option) error {
	if !insertable(c.tasks, position) {
		return ErrInvalidOrder
	}
	task, err := newTask(typ, statement, position, options)
	if err != nil {
		return err
	}
	task.CourseID = c.ID
	c.tasks = insertTask(c.tasks, task)
	return nil
}

// Publish moves the course to PUBLISHED once every readiness rule holds.
func (c *Course) Publish(now time.Time) error {
	if err := c.CheckPublishable(); err != nil {
		return err
	}
	c.status = StatusPublished
	c.publishedAt = &now
	return nil
}

// CheckPublishable evaluates, in order: status, task type coverage, position continuity.
func (c *Course) CheckPublishable() error {
	if c.IsPublished() {
		return ErrCourseAlreadyPublished
	}
	if !c.hasAllTaskTypes() {
		return ErrMissingTaskType
	}
	if !continuous(c.tasks) {
		return ErrNonContinuousOrder
	}
	return nil
}

func (c *Course) hasAllTaskTypes() bool {
	found := make(map[TaskType]bool, len(TaskTypes))
	for _, t := range c.tasks {
		found[t.Type] = true
	}
	for _, typ := range TaskTypes {
		if !found[typ] {
			return false
		}
	}
	return true
}

// insertable accepts 1 on an empty course, otherwise an existing position or max+1.
func insertable(tasks []Task, position int) bool {
	if len(tasks) == 0 {
		return position == 1
	}
	maxPos := 0
	for _, t := range tasks {
		if t.Position == position {
			return true
		}
		if t.Position > maxPos {
			maxPos = t.Position
		}
	}
	return position == maxPos+1
}

// insertTask returns a new slice, sorted by position, with task placed at its position and
// every task at or after it shifted by one. The input slice is not modified.
func insertTask(tasks []Task, task Task) []Task {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	out := make([]Task, 0, len(sorted)+1)
	inserted := false
	for _, t := range sorted {
		if !inserted && t.Position >= task.Position {
			out = append(out, task)
			inserted = true
		}
		if t.Position >= task.Position {
			t.Position++
		}
		out = append(out, t)
	}
	if !inserted {
		out = append(out, task)
	}
	return out
}

// continuous reports whether the sorted positions are exactly 1..N.
func continuous(tasks []Task) bool {
	positions := make([]int, len(tasks))
	for i, t := range tasks {
		positions[i] = t.Position
	}
	sort.Ints(positions)
	for i, p := range positions {
		if p != i+1 {
			return false
		}
	}
	return true
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
