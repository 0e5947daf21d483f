package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cahier-service/internal/domain"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsError struct {
	Message string `json:"message"`
}

type wsAnswerPayload struct {
	QuestionID int    `json:"questionId"`
	Value      string `json:"value"`
}

type wsAnswerResult struct {
	QuestionID int    `json:"questionId"`
	Correct    *bool  `json:"correct,omitempty"`
	Reference  string `json:"reference,omitempty"`
}

type wsScore struct {
	Correct  int `json:"correct"`
	Graded   int `json:"graded"`
	Unlocked int `json:"unlocked,omitempty"`
}

type wsSession struct {
	ExerciseID string            `json:"exerciseId"`
	Answers    map[string]string `json:"answers"`
	Completed  bool              `json:"completed"`
}

// handlePracticeWS runs a live practice session over one exercise. Each
// incoming answer is graded immediately, merged into the session state and
// autosaved; labyrinth steps stay locked until the previous one is solved.
func (s *Server) handlePracticeWS(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	exerciseID := r.URL.Query().Get("exerciseId")
	if exerciseID == "" {
		s.writeError(w, domain.Invalidf("missing exerciseId"))
		return
	}
	ex, err := s.exercises.Get(r.Context(), exerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ex.IsActive && claims.Role != domain.RoleAdmin {
		s.writeError(w, domain.ErrExerciseNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Resume from saved progress if any.
	answers := map[string]string{}
	completed := false
	if p, err := s.progress.Get(r.Context(), claims.UserID, exerciseID); err == nil {
		for k, v := range p.Answers {
			answers[k] = v
		}
		completed = p.Completed
	} else if !errors.Is(err, domain.ErrProgressNotFound) {
		_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: "failed to load progress"}})
		return
	}

	_ = conn.WriteJSON(outboundMessage[wsSession]{Type: "session", Payload: wsSession{
		ExerciseID: exerciseID,
		Answers:    answers,
		Completed:  completed,
	}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload wsAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: "invalid answer payload"}})
				continue
			}
			result, err := s.gradePracticeAnswer(r.Context(), claims.UserID, ex, answers, payload)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: err.Error()}})
				continue
			}
			_ = conn.WriteJSON(outboundMessage[wsAnswerResult]{Type: "answerResult", Payload: result})
			_ = conn.WriteJSON(outboundMessage[wsScore]{Type: "score", Payload: s.practiceScore(ex, answers)})
		case "complete":
			p, err := s.progress.Save(r.Context(), claims.UserID, exerciseID, answers, true)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: err.Error()}})
				continue
			}
			completed = p.Completed
			_ = conn.WriteJSON(outboundMessage[wsSession]{Type: "completed", Payload: wsSession{
				ExerciseID: exerciseID,
				Answers:    answers,
				Completed:  completed,
			}})
		default:
			_ = conn.WriteJSON(outboundMessage[wsError]{Type: "error", Payload: wsError{Message: "unsupported message type"}})
		}
	}
}

// gradePracticeAnswer validates the step, grades it and autosaves the merged
// answers. free_text answers are stored and answered with the reference text
// instead of a verdict.
func (s *Server) gradePracticeAnswer(ctx context.Context, userID string, ex domain.Exercise, answers map[string]string, payload wsAnswerPayload) (wsAnswerResult, error) {
	if ex.FindQuestion(payload.QuestionID) == nil {
		return wsAnswerResult{}, domain.ErrQuestionNotFound
	}
	if ex.Type == domain.TypeLabyrinth {
		unlocked := domain.LabyrinthUnlocked(ex, answers)
		if position(ex, payload.QuestionID) > unlocked {
			return wsAnswerResult{}, domain.Invalidf("step is still locked")
		}
	}
	key := strconv.Itoa(payload.QuestionID)
	answers[key] = payload.Value
	if _, err := s.progress.Save(ctx, userID, ex.ID, answers, false); err != nil {
		return wsAnswerResult{}, err
	}

	result := wsAnswerResult{QuestionID: payload.QuestionID}
	if ex.Type == domain.TypeFreeText {
		result.Reference = ex.Answers.Values[key]
		return result, nil
	}
	correct, err := domain.GradeQuestion(ex, payload.QuestionID, payload.Value)
	if err != nil {
		return wsAnswerResult{}, err
	}
	result.Correct = &correct
	return result, nil
}

func (s *Server) practiceScore(ex domain.Exercise, answers map[string]string) wsScore {
	correct, graded := domain.ScoreExercise(ex, answers)
	score := wsScore{Correct: correct, Graded: graded}
	if ex.Type == domain.TypeLabyrinth {
		score.Unlocked = domain.LabyrinthUnlocked(ex, answers)
	}
	return score
}

// position returns the zero-based index of the question in the step order.
func position(ex domain.Exercise, questionID int) int {
	for i, q := range ex.Content.Questions {
		if q.ID == questionID {
			return i
		}
	}
	return len(ex.Content.Questions)
}
