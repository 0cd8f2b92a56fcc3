package http

import (
	"net/http"

	"course-authoring-service/internal/app"
	"course-authoring-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler streams course events to websocket clients.
type WSHandler struct {
	service  *app.CourseService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.CourseService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log.With("handler", "WSHandler"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type string `json:"type"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeEvents handles GET /course/:id/events. The first frame is a snapshot of the
// course, followed by one "event" frame per change. Clients may send {"type":"ping"}.
func (h *WSHandler) ServeEvents(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Resolve the course before upgrading so unknown ids get a plain 404.
	updates, cancel, err := h.service.Subscribe(ctx, courseID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "course_id", courseID, "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// conn is written only from this goroutine.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", "course_id", courseID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case evt, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "event", Payload: evt}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if view, err := h.service.GetCourse(ctx, courseID); err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	} else {
		send <- outboundMessage[any]{Type: "snapshot", Payload: view}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
