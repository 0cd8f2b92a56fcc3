package domain

import "errors"

// Kind classifies a domain failure independently of any transport.
type Kind string

const (
	KindOrdering     Kind = "ordering"
	KindTaskContent  Kind = "task_content"
	KindBinding      Kind = "binding"
	KindState        Kind = "state"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindUnknown      Kind = "unknown"
)

// Error is a classified domain failure. Sentinels below are compared by identity with errors.Is.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

var (
	// ErrInvalidOrder is returned when a task position is neither an existing position nor one past the end.
	ErrInvalidOrder = newError(KindOrdering, "the order has to be in an insertable position")

	// ErrStatementLength rejects statements outside 4..255 characters.
	ErrStatementLength = newError(KindTaskContent, "the statement must have between 4 and 255 characters")
	// ErrOptionCount rejects option lists outside the variant's bounds.
	ErrOptionCount = newError(KindTaskContent, "the activity has an invalid number of options")
	// ErrBlankOption rejects missing or blank option texts.
	ErrBlankOption = newError(KindTaskContent, "options must not be blank")
	// ErrExactlyOneCorrect is the single choice correctness rule.
	ErrExactlyOneCorrect = newError(KindTaskContent, "there must be exactly one correct option")
	// ErrTooFewCorrect is the multiple choice minimum of two correct options.
	ErrTooFewCorrect = newError(KindTaskContent, "there must be at least two correct options")
	// ErrNoIncorrect is the multiple choice minimum of one incorrect option.
	ErrNoIncorrect = newError(KindTaskContent, "there must be at least one incorrect option")
	// ErrDuplicateOption rejects repeated option texts within a task.
	ErrDuplicateOption = newError(KindTaskContent, "options must be unique")
	// ErrOptionEqualsStatement rejects an option text equal to the task statement.
	ErrOptionEqualsStatement = newError(KindTaskContent, "options must be different from the statement")
	// ErrUnknownTaskType rejects a task type outside the supported variants.
	ErrUnknownTaskType = newError(KindTaskContent, "unknown task type")

	// ErrOptionAlreadyBound signals an option reused across tasks; callers never trigger it with fresh options.
	ErrOptionAlreadyBound = newError(KindBinding, "option already bound to a task")

	// ErrCourseAlreadyPublished is returned when publishing a course twice.
	ErrCourseAlreadyPublished = newError(KindState, "course must be in BUILDING status to be published")
	// ErrMissingTaskType is returned when a course lacks at least one task of every type.
	ErrMissingTaskType = newError(KindState, "course must have at least one task of each type")
	// ErrNonContinuousOrder is returned when task positions are not exactly 1..N.
	ErrNonContinuousOrder = newError(KindState, "course must have all tasks in continuous order")
	// ErrCourseNotBuilding is returned when adding tasks to a published course.
	ErrCourseNotBuilding = newError(KindState, "course has to be in building phase to allow tasks registrations")

	// ErrBlankTitle rejects courses without a title.
	ErrBlankTitle = newError(KindValidation, "course title must not be blank")
	// ErrNotInstructor is the capability check failure at course creation.
	ErrNotInstructor = newError(KindValidation, "user is not an instructor")
	// ErrStatementEqualsTitle rejects a task statement equal to the course title.
	ErrStatementEqualsTitle = newError(KindValidation, "the task's statement is the same as the course title")

	// ErrDuplicateStatement rejects a statement already used by another task of the course.
	ErrDuplicateStatement = newError(KindConflict, "a task with the same statement already exists for this course")

	ErrCourseNotFound = newError(KindNotFound, "course doesn't exist")
	ErrUserNotFound   = newError(KindNotFound, "user doesn't exist")

	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = newError(KindUnauthorized, "invalid password")
	// ErrInvalidToken is returned for a missing, malformed or expired bearer token.
	ErrInvalidToken = newError(KindUnauthorized, "missing or invalid token")
	// ErrForbidden is returned when a principal lacks the required scope.
	ErrForbidden = newError(KindForbidden, "forbidden")
)
