package domain

import "time"

// OptionView is the read shape of an option.
type OptionView struct {
	ID      int64  `json:"id"`
	Option  string `json:"option"`
	Correct bool   `json:"isCorrect"`
}

// TaskView is the read shape of a task.
type TaskView struct {
	ID        int64        `json:"id"`
	Type      TaskType     `json:"type"`
	Statement string       `json:"statement"`
	Order     int          `json:"order"`
	Options   []OptionView `json:"options,omitempty"`
}

// CourseView is a snapshot of a course with its ordered tasks, cached by catalogs.
type CourseView struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	InstructorID int64      `json:"instructorId"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Tasks        []TaskView `json:"tasks"`
}

// CourseListItem is the summary returned when listing courses.
type CourseListItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// ViewOf snapshots a course aggregate.
func ViewOf(c *Course) CourseView {
	tasks := c.Tasks()
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		tv := TaskView{ID: t.ID, Type: t.Type, Statement: t.Statement, Order: t.Position}
		for _, o := range t.Options {
			tv.Options = append(tv.Options, OptionView{ID: o.ID, Option: o.Text, Correct: o.Correct})
		}
		views = append(views, tv)
	}
	return CourseView{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		InstructorID: c.InstructorID,
		Status:       c.Status(),
		CreatedAt:    c.CreatedAt,
		PublishedAt:  c.PublishedAt(),
		Tasks:        views,
	}
}

// ListItemOf summarizes a course.
func ListItemOf(c *Course) CourseListItem {
	return CourseListItem{ID: c.ID, Title: c.Title, Description: c.Description, Status: c.Status()}
}

// EventType names a course change pushed to live subscribers.
type EventType string

const (
	EventTaskAdded       EventType = "task_added"
	EventCoursePublished EventType = "course_published"
)

// CourseEvent is broadcast after a successful mutation.
type CourseEvent struct {
	Type       EventType `json:"type"`
	CourseID   int64     `json:"courseId"`
	Statement  string    `json:"statement,omitempty"`
	TaskType   TaskType  `json:"taskType,omitempty"`
	Order      int       `json:"order,omitempty"`
	TaskCount  int       `json:"taskCount"`
	OccurredAt time.Time `json:"occurredAt"`
}
