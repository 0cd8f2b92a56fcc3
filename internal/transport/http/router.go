package http

import (
	"errors"
	"net/http"

	"course-authoring-service/internal/logger"
	"github.com/gin-gonic/gin"
)

var errBadCourseID = errors.New("course id must be a positive integer")

// NewRouter wires every route of the service.
func NewRouter(h *Handler, ws *WSHandler, log *logger.Logger, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), CORS(corsOrigins), RequestID(), RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.POST("/auth", h.Login)

	authed := r.Group("/", RequireAuth(h.auth))
	authed.GET("/course/all", h.ListCourses)
	authed.GET("/course/:id", h.GetCourse)
	authed.GET("/course/:id/events", ws.ServeEvents)

	instructor := authed.Group("/", RequireInstructor())
	instructor.POST("/course/new", h.CreateCourse)
	instructor.POST("/course/:id/publish", h.PublishCourse)
	instructor.POST("/task/new/opentext", h.NewOpenTextTask)
	instructor.POST("/task/new/singlechoice", h.NewSingleChoiceTask)
	instructor.POST("/task/new/multiplechoice", h.NewMultipleChoiceTask)

	return r
}
