package domain

import (
	"strings"
	"unicode/utf8"
)

// TaskType tags the task variant.
type TaskType string

const (
	TaskOpenText       TaskType = "OPEN_TEXT"
	TaskSingleChoice   TaskType = "SINGLE_CHOICE"
	TaskMultipleChoice TaskType = "MULTIPLE_CHOICE"
)

// TaskTypes lists every variant a publishable course must contain.
var TaskTypes = []TaskType{TaskOpenText, TaskSingleChoice, TaskMultipleChoice}

const (
	minStatementLen = 4
	maxStatementLen = 255
)

// Option is a candidate answer of a choice task. It can be bound to one task only.
type Option struct {
	ID      int64
	Text    string
	Correct bool
	bound   bool
}

// NewOption returns an unbound option.
func NewOption(text string, correct bool) *Option {
	return &Option{Text: text, Correct: correct}
}

// Bound reports whether the option already belongs to a task.
func (o *Option) Bound() bool {
	return o.bound
}

func (o *Option) bind() error {
	if o.bound {
		return ErrOptionAlreadyBound
	}
	o.bound = true
	return nil
}

// Task is an ordered unit of content of a course. Options is nil for open text tasks.
type Task struct {
	ID        int64
	CourseID  int64
	Type      TaskType
	Statement string
	Position  int
	Options   []*Option
}

// choiceRules are the variant specific bounds applied by validateChoice.
type choiceRules struct {
	minOptions int
	maxOptions int
	correct    func(correct, incorrect int) error
}

var rulesByType = map[TaskType]*choiceRules{
	TaskOpenText: nil,
	TaskSingleChoice: {
		minOptions: 2,
		maxOptions: 5,
		correct: func(correct, _ int) error {
			if correct != 1 {
				return ErrExactlyOneCorrect
			}
			return nil
		},
	},
	TaskMultipleChoice: {
		minOptions: 3,
		maxOptions: 5,
		correct: func(correct, incorrect int) error {
			if correct < 2 {
				return ErrTooFewCorrect
			}
			if incorrect < 1 {
				return ErrNoIncorrect
			}
			return nil
		},
	},
}

// newTask validates and builds a task. Options are bound only when every rule passed.
func newTask(typ TaskType, statement string, position int, options []*Option) (Task, error) {
	rules, ok := rulesByType[typ]
	if !ok {
		return Task{}, ErrUnknownTaskType
	}
	if err := validateStatement(statement); err != nil {
		return Task{}, err
	}
	if rules == nil {
		return Task{Type: typ, Statement: statement, Position: position}, nil
	}
	if err := validateChoice(statement, options, rules); err != nil {
		return Task{}, err
	}
	for _, opt := range options {
		if opt.Bound() {
			return Task{}, ErrOptionAlreadyBound
		}
	}
	for _, opt := range options {
		_ = opt.bind()
	}
	return Task{
		Type:      typ,
		Statement: statement,
		Position:  position,
		Options:   append([]*Option(nil), options...),
	}, nil
}

func validateStatement(statement string) error {
	n := utf8.RuneCountInString(statement)
	if strings.TrimSpace(statement) == "" || n < minStatementLen || n > maxStatementLen {
		return ErrStatementLength
	}
	return nil
}

// validateChoice checks, in order: option count, blank texts, correctness counts,
// uniqueness, collision with the statement.
func validateChoice(statement string, options []*Option, rules *choiceRules) error {
	if len(options) < rules.minOptions || len(options) > rules.maxOptions {
		return ErrOptionCount
	}
	correct := 0
	for _, opt := range options {
		if opt == nil || strings.TrimSpace(opt.Text) == "" {
			return ErrBlankOption
		}
		if opt.Correct {
			correct++
		}
	}
	if err := rules.correct(correct, len(options)-correct); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, dup := seen[opt.Text]; dup {
			return ErrDuplicateOption
		}
		seen[opt.Text] = struct{}{}
	}
	if _, clash := seen[statement]; clash {
		return ErrOptionEqualsStatement
	}
	return nil
}

func (t Task) clone() Task {
	if t.Options != nil {
		opts := make([]*Option, len(t.Options))
		for i, o := range t.Options {
			c := *o
			opts[i] = &c
		}
		t.Options = opts
	}
	return t
}
