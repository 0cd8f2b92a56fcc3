package http

import (
	"net/http"

	"course-authoring-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err inside the error envelope with the given status.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondDomainError maps a classified failure to its HTTP status.
// Unclassified errors are reported as 500 without leaking their text.
func RespondDomainError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := StatusFor(kind)
	if kind == domain.KindUnknown {
		_ = c.Error(err)
		RespondError(c, status, string(kind), errInternal)
		return
	}
	RespondError(c, status, string(kind), err)
}

// StatusFor is the HTTP status of an error kind.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindOrdering, domain.KindTaskContent, domain.KindState, domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type internalError struct{}

func (internalError) Error() string { return "internal error" }

var errInternal error = internalError{}
