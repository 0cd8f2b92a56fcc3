package http

import (
	"net/http"
	"strconv"

	"course-authoring-service/internal/app"
	"course-authoring-service/internal/domain"
	"course-authoring-service/internal/logger"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type newCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=4,max=255"`
}

type optionRequest struct {
	Option    string `json:"option" binding:"required,min=4,max=80"`
	IsCorrect *bool  `json:"isCorrect" binding:"required"`
}

type openTextRequest struct {
	CourseID  int64  `json:"courseId" binding:"required,gt=0"`
	Statement string `json:"statement" binding:"required,min=4,max=255"`
	Order     int    `json:"order" binding:"required,gt=0"`
}

type singleChoiceRequest struct {
	CourseID  int64           `json:"courseId" binding:"required,gt=0"`
	Statement string          `json:"statement" binding:"required,min=4,max=255"`
	Order     int             `json:"order" binding:"required,gt=0"`
	Options   []optionRequest `json:"options" binding:"required,min=2,max=5,dive"`
}

type multipleChoiceRequest struct {
	CourseID  int64           `json:"courseId" binding:"required,gt=0"`
	Statement string          `json:"statement" binding:"required,min=4,max=255"`
	Order     int             `json:"order" binding:"required,gt=0"`
	Options   []optionRequest `json:"options" binding:"required,min=3,max=5,dive"`
}

type taskCreatedResponse struct {
	CourseID int64 `json:"courseId"`
	Order    int   `json:"order"`
}

// Handler serves the course authoring REST API.
type Handler struct {
	courses *app.CourseService
	auth    *app.AuthService
	log     *logger.Logger
}

func NewHandler(courses *app.CourseService, authService *app.AuthService, log *logger.Logger) *Handler {
	return &Handler{courses: courses, auth: authService, log: log.With("handler", "CourseHandler")}
}

// POST /auth
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, ttl, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresIn: int64(ttl.Seconds())})
}

// POST /course/new
func (h *Handler) CreateCourse(c *gin.Context) {
	var req newCourseRequest
	if !bindJSON(c, &req) {
		return
	}
	p, _ := principalFrom(c)
	id, err := h.courses.CreateCourse(c.Request.Context(), p.UserID, req.Title, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// GET /course/all
func (h *Handler) ListCourses(c *gin.Context) {
	items, err := h.courses.ListCourses(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /course/:id
func (h *Handler) GetCourse(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	view, err := h.courses.GetCourse(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /course/:id/publish
func (h *Handler) PublishCourse(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}
	if err := h.courses.PublishCourse(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": domain.StatusPublished})
}

// POST /task/new/opentext
func (h *Handler) NewOpenTextTask(c *gin.Context) {
	var req openTextRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.courses.AddOpenTextTask(c.Request.Context(), req.CourseID, req.Statement, req.Order)
	h.taskCreated(c, req.CourseID, req.Order, err)
}

// POST /task/new/singlechoice
func (h *Handler) NewSingleChoiceTask(c *gin.Context) {
	var req singleChoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.courses.AddSingleChoiceTask(c.Request.Context(), req.CourseID, req.Statement, req.Order, toOptionInputs(req.Options))
	h.taskCreated(c, req.CourseID, req.Order, err)
}

// POST /task/new/multiplechoice
func (h *Handler) NewMultipleChoiceTask(c *gin.Context) {
	var req multipleChoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.courses.AddMultipleChoiceTask(c.Request.Context(), req.CourseID, req.Statement, req.Order, toOptionInputs(req.Options))
	h.taskCreated(c, req.CourseID, req.Order, err)
}

func (h *Handler) taskCreated(c *gin.Context, courseID int64, order int, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskCreatedResponse{CourseID: courseID, Order: order})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, string(domain.KindValidation), err)
		return false
	}
	return true
}

func courseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, string(domain.KindValidation), errBadCourseID)
		return 0, false
	}
	return id, true
}

func toOptionInputs(reqs []optionRequest) []app.OptionInput {
	out := make([]app.OptionInput, len(reqs))
	for i, r := range reqs {
		out[i] = app.OptionInput{Text: r.Option, Correct: *r.IsCorrect}
	}
	return out
}
