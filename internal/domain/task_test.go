package domain

import (
	"errors"
	"strings"
	"testing"
)

func opts(pairs ...any) []*Option {
	out := make([]*Option, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, NewOption(pairs[i].(string), pairs[i+1].(bool)))
	}
	return out
}

func TestSingleChoiceRules(t *testing.T) {
	cases := []struct {
		name      string
		statement string
		options   []*Option
		want      error
	}{
		{name: "valid", statement: "Which keyword?", options: opts("final", true, "const", false)},
		{name: "two correct", statement: "Which language?", options: opts("Java", true, "Python", true, "Ruby", false), want: ErrExactlyOneCorrect},
		{name: "no correct", statement: "Which language?", options: opts("Java", false, "Python", false), want: ErrExactlyOneCorrect},
		{name: "duplicate options", statement: "Which language?", options: opts("Java", true, "Java", false), want: ErrDuplicateOption},
		{name: "option equals statement", statement: "Which language?", options: opts("Which language?", true, "Java", false), want: ErrOptionEqualsStatement},
		{name: "too few options", statement: "Which language?", options: opts("Java", true), want: ErrOptionCount},
		{name: "too many options", statement: "Which language?", options: opts("a1", true, "a2", false, "a3", false, "a4", false, "a5", false, "a6", false), want: ErrOptionCount},
		{name: "blank option", statement: "Which language?", options: opts("Java", true, "  ", false), want: ErrBlankOption},
		{name: "short statement", statement: "Why", options: opts("Java", true, "Ruby", false), want: ErrStatementLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			course := newTestCourse(t)
			err := course.AddSingleChoiceTask(tc.statement, 1, tc.options)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if KindOf(err) != KindTaskContent {
				t.Fatalf("expected task content kind, got %s", KindOf(err))
			}
			if len(course.Tasks()) != 0 {
				t.Fatalf("course mutated by invalid task")
			}
			for _, o := range tc.options {
				if o.Bound() {
					t.Fatalf("option %q bound by invalid task", o.Text)
				}
			}
		})
	}
}

func TestMultipleChoiceRules(t *testing.T) {
	cases := []struct {
		name      string
		statement string
		options   []*Option
		want      error
	}{
		{name: "valid", statement: "Which are languages?", options: opts("Java", true, "Python", true, "Photoshop", false)},
		{name: "one correct", statement: "Which are languages?", options: opts("Java", true, "Spring", false, "Kotlin", false), want: ErrTooFewCorrect},
		{name: "no incorrect", statement: "Which are build tools?", options: opts("Maven", true, "Gradle", true, "Word", true), want: ErrNoIncorrect},
		{name: "duplicate options", statement: "Which are languages?", options: opts("Java", true, "Python", true, "Java", false), want: ErrDuplicateOption},
		{name: "option equals statement", statement: "Which are languages?", options: opts("Java", true, "Python", true, "Which are languages?", false), want: ErrOptionEqualsStatement},
		{name: "two options", statement: "Which are languages?", options: opts("Java", true, "Python", false), want: ErrOptionCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			course := newTestCourse(t)
			err := course.AddMultipleChoiceTask(tc.statement, 1, tc.options)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if got := course.Tasks()[0]; got.Type != TaskMultipleChoice || len(got.Options) != 3 {
					t.Fatalf("unexpected task %+v", got)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(course.Tasks()) != 0 {
				t.Fatalf("course mutated by invalid task")
			}
		})
	}
}

func TestCorrectnessCheckedBeforeUniqueness(t *testing.T) {
	course := newTestCourse(t)
	err := course.AddSingleChoiceTask("Which language?", 1, opts("Java", true, "Java", true))
	if !errors.Is(err, ErrExactlyOneCorrect) {
		t.Fatalf("expected correctness error first, got %v", err)
	}
	err = course.AddMultipleChoiceTask("Which language?", 1, opts("Java", true, "Java", false, "Which language?", false))
	if !errors.Is(err, ErrTooFewCorrect) {
		t.Fatalf("expected correctness error first, got %v", err)
	}
}

func TestOpenTextStatementLength(t *testing.T) {
	course := newTestCourse(t)
	if err := course.AddOpenTextTask(strings.Repeat("a", 256), 1); !errors.Is(err, ErrStatementLength) {
		t.Fatalf("expected statement length error, got %v", err)
	}
	if err := course.AddOpenTextTask(strings.Repeat("a", 255), 1); err != nil {
		t.Fatalf("expected 255 chars to pass: %v", err)
	}
	if err := course.AddOpenTextTask("ação", 2); err != nil {
		t.Fatalf("expected 4 runes to pass: %v", err)
	}
	if got := course.Tasks()[0]; got.Options != nil || got.Type != TaskOpenText {
		t.Fatalf("unexpected open text task %+v", got)
	}
}

func TestOptionBindingIsOneTime(t *testing.T) {
	course := newTestCourse(t)
	shared := opts("final", true, "const", false)
	if err := course.AddSingleChoiceTask("Which keyword?", 1, shared); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	for _, o := range shared {
		if !o.Bound() {
			t.Fatalf("option %q not bound", o.Text)
		}
	}

	err := course.AddSingleChoiceTask("Another keyword?", 2, shared)
	if !errors.Is(err, ErrOptionAlreadyBound) {
		t.Fatalf("expected binding error, got %v", err)
	}
	if KindOf(err) != KindBinding {
		t.Fatalf("expected binding kind, got %s", KindOf(err))
	}
	assertOrder(t, course, "Which keyword?")
}

func TestPartiallyBoundOptionsAreNotBound(t *testing.T) {
	course := newTestCourse(t)
	first := opts("final", true, "const", false)
	if err := course.AddSingleChoiceTask("Which keyword?", 1, first); err != nil {
		t.Fatalf("add: %v", err)
	}
	fresh := NewOption("static", false)
	mixed := []*Option{NewOption("var", true), fresh, first[1]}
	if err := course.AddSingleChoiceTask("Another keyword?", 2, mixed); !errors.Is(err, ErrOptionAlreadyBound) {
		t.Fatalf("expected binding error, got %v", err)
	}
	if fresh.Bound() {
		t.Fatalf("fresh option bound by failed insert")
	}
}

func TestUnknownTaskType(t *testing.T) {
	course := newTestCourse(t)
	if err := course.AddTask(TaskType("ESSAY"), "Write an essay", 1, nil); !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("expected unknown type, got %v", err)
	}
}

func TestKindOfUnknown(t *testing.T) {
	if KindOf(errors.New("boom")) != KindUnknown {
		t.Fatalf("expected unknown kind")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatalf("expected unknown kind for nil")
	}
}
