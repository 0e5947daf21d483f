package http

import (
	"testing"
	"time"

	"cahier-service/internal/domain"
	"github.com/gorilla/websocket"
)

func dialPractice(t *testing.T, f *fixture, exerciseID, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + f.server.URL[len("http"):] + "/ws/practice?exerciseId=" + exerciseID + "&token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func TestPracticeAnswerFlow(t *testing.T) {
	f := newFixture(t)
	conn := dialPractice(t, f, f.exercise.ID, f.userToken)

	_, session := readNext(conn, t, "session")
	if session["exerciseId"] != f.exercise.ID {
		t.Fatalf("unexpected session payload %+v", session)
	}

	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": 1, "value": domain.AnswerTrue},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	_, result := readNext(conn, t, "answerResult")
	if result["correct"] != true {
		t.Fatalf("expected correct verdict, got %+v", result)
	}
	_, score := readNext(conn, t, "score")
	if score["correct"] != float64(1) || score["graded"] != float64(1) {
		t.Fatalf("unexpected score %+v", score)
	}

	if err := conn.WriteJSON(map[string]any{"type": "complete"}); err != nil {
		t.Fatalf("write complete: %v", err)
	}
	_, done := readNext(conn, t, "completed")
	if done["completed"] != true {
		t.Fatalf("expected completed session, got %+v", done)
	}
}

func TestPracticeResumesSavedAnswers(t *testing.T) {
	f := newFixture(t)

	conn := dialPractice(t, f, f.exercise.ID, f.userToken)
	readNext(conn, t, "session")
	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": 2, "value": domain.AnswerFalse},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(conn, t, "answerResult")
	readNext(conn, t, "score")
	conn.Close()

	// A fresh session starts from the autosaved state.
	conn = dialPractice(t, f, f.exercise.ID, f.userToken)
	_, session := readNext(conn, t, "session")
	answers, ok := session["answers"].(map[string]any)
	if !ok || answers["2"] != domain.AnswerFalse {
		t.Fatalf("expected resumed answers, got %+v", session)
	}
}

func TestPracticeRejectsUnknownExercise(t *testing.T) {
	f := newFixture(t)
	u := "ws" + f.server.URL[len("http"):] + "/ws/practice?exerciseId=missing&token=" + f.userToken
	if _, _, err := websocket.DefaultDialer.Dial(u, nil); err == nil {
		t.Fatalf("expected handshake failure for unknown exercise")
	}
}

func TestPracticeLabyrinthStepLock(t *testing.T) {
	f := newFixture(t)
	lab := createLabyrinth(t, f)

	conn := dialPractice(t, f, lab.ID, f.userToken)
	readNext(conn, t, "session")

	// Step 2 is locked until step 1 is solved.
	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": 2, "value": "a"},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(conn, t, "error")

	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": 1, "value": "b"},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(conn, t, "answerResult")
	_, score := readNext(conn, t, "score")
	if score["unlocked"] != float64(1) {
		t.Fatalf("expected one unlocked step, got %+v", score)
	}

	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": 2, "value": "a"},
	}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(conn, t, "answerResult")
}

func createLabyrinth(t *testing.T, f *fixture) exerciseView {
	t.Helper()
	resp := f.do(t, "POST", "/api/exercises", f.adminToken, map[string]any{
		"title": "Labyrinthe", "type": "labyrinth", "isActive": true,
		"content": map[string]any{
			"scenario": "Un conflit éclate.",
			"questions": []map[string]any{
				{"id": 1, "text": "Étape 1", "options": []map[string]string{
					{"label": "a", "text": "Imposer"}, {"label": "b", "text": "Écouter"},
				}},
				{"id": 2, "text": "Étape 2", "options": []map[string]string{
					{"label": "a", "text": "Reformuler"}, {"label": "b", "text": "Juger"},
				}},
			},
		},
		"answers": map[string]string{"1": "b", "2": "a"},
	})
	if resp.StatusCode != 201 {
		t.Fatalf("create labyrinth status %d", resp.StatusCode)
	}
	var ex exerciseView
	decodeInto(t, resp, &ex)
	return ex
}
