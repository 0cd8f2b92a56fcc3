package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-authoring-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestCourseEventsStream(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "paulo@alura.com.br")
	id := env.createCourse(t, token, "Java OO")

	server := httptest.NewServer(env.router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/course/" + itoa(id) + "/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := readFrame(t, conn)
	if msg.Type != "snapshot" || msg.Payload["title"] != "Java OO" {
		t.Fatalf("expected snapshot first, got %+v", msg)
	}

	if err := env.courses.AddOpenTextTask(context.Background(), id, "Explain encapsulation", 1); err != nil {
		t.Fatalf("add task: %v", err)
	}
	msg = readFrame(t, conn)
	if msg.Type != "event" || msg.Payload["type"] != string(domain.EventTaskAdded) || msg.Payload["statement"] != "Explain encapsulation" {
		t.Fatalf("expected task_added event, got %+v", msg)
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg = readFrame(t, conn); msg.Type != "pong" {
		t.Fatalf("expected pong, got %+v", msg)
	}
}

func TestCourseEventsUnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "paulo@alura.com.br")

	server := httptest.NewServer(env.router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/course/42/events?token=" + token
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown course")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

type frame struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	var msg frame
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}
