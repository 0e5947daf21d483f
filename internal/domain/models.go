package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExerciseType tags one of the six exercise variants. The set is closed:
// validation and grading dispatch on this tag and reject unknown values.
type ExerciseType string

const (
	TypeSingleChoice ExerciseType = "single_choice"
	TypeQCM          ExerciseType = "qcm"
	TypeMultiSelect  ExerciseType = "multi_select"
	TypeTrueFalse    ExerciseType = "true_false"
	TypeFreeText     ExerciseType = "free_text"
	TypeLabyrinth    ExerciseType = "labyrinth"
)

// Literal answer values for true_false questions.
const (
	AnswerTrue  = "Vrai"
	AnswerFalse = "Faux"
)

// Gradable reports whether answers of this type can be checked algorithmically.
// free_text is compared by a human and never scored.
func (t ExerciseType) Gradable() bool {
	return t != TypeFreeText
}

// InEvaluationPool reports whether questions of this type may be sampled into
// an evaluation. labyrinth is gradable but its steps unlock sequentially, so
// isolated questions would be meaningless.
func (t ExerciseType) InEvaluationPool() bool {
	return t.Gradable() && t != TypeLabyrinth
}

// Option is one labeled choice belonging to a qcm or labyrinth question.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is one prompt within an exercise. Options is only populated for
// qcm and labyrinth variants; the other types share exercise-level options or
// have none.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options,omitempty"`
}

// Content is the type-dependent payload of an exercise. Which fields are
// meaningful depends on the exercise type; the validator enforces the shape.
type Content struct {
	Instruction string     `json:"instruction,omitempty"`
	Legend      string     `json:"legend,omitempty"`
	Scenario    string     `json:"scenario,omitempty"` // labyrinth framing text
	Options     []string   `json:"options,omitempty"`  // shared options (single_choice)
	Columns     []string   `json:"columns,omitempty"`  // two column labels (free_text)
	Questions   []Question `json:"questions"`
}

// AnswerKey is the authoritative correct-answer data for an exercise.
// It is either a question-id-string -> expected-value map (single_choice,
// qcm, true_false, free_text, labyrinth) or a correctIds list (multi_select).
// Custom JSON keeps the stored shape identical to what clients exchange.
type AnswerKey struct {
	Values     map[string]string
	CorrectIDs []int
}

func (k AnswerKey) MarshalJSON() ([]byte, error) {
	if k.CorrectIDs != nil {
		return json.Marshal(struct {
			CorrectIDs []int `json:"correctIds"`
		}{CorrectIDs: k.CorrectIDs})
	}
	if k.Values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(k.Values)
}

func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if raw, ok := probe["correctIds"]; ok {
		k.Values = nil
		return json.Unmarshal(raw, &k.CorrectIDs)
	}
	values := make(map[string]string, len(probe))
	for key, raw := range probe {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("answer for %q: %w", key, err)
		}
		values[key] = v
	}
	k.CorrectIDs = nil
	k.Values = values
	return nil
}

// HasCorrectID reports whether id is flagged as "good posture".
func (k AnswerKey) HasCorrectID(id int) bool {
	for _, c := range k.CorrectIDs {
		if c == id {
			return true
		}
	}
	return false
}

// Exercise is one unit of content with a type, questions and an answer key.
// Number is unique and drives ordering/navigation.
type Exercise struct {
	ID        string       `json:"id"`
	Number    int          `json:"number"`
	Title     string       `json:"title"`
	Type      ExerciseType `json:"type"`
	IsActive  bool         `json:"isActive"`
	Content   Content      `json:"content"`
	Answers   AnswerKey    `json:"answers"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// FindQuestion returns the question with the given id, or nil.
func (e *Exercise) FindQuestion(id int) *Question {
	for i := range e.Content.Questions {
		if e.Content.Questions[i].ID == id {
			return &e.Content.Questions[i]
		}
	}
	return nil
}

// Progress tracks one user's submitted answers for one exercise.
// Completed is monotonic: the write path must never flip it back to false.
type Progress struct {
	UserID     string            `json:"userId"`
	ExerciseID string            `json:"exerciseId"`
	Answers    map[string]string `json:"answers"`
	Completed  bool              `json:"completed"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// QuestionRef points at one question inside one exercise.
type QuestionRef struct {
	ExerciseID string `json:"exerciseId"`
	QuestionID int    `json:"questionId"`
}

// Key is the composite key under which the user's answer is stored.
func (r QuestionRef) Key() string {
	return fmt.Sprintf("%s_%d", r.ExerciseID, r.QuestionID)
}

// Evaluation is a randomized cross-exercise quiz session owned by one user.
// The question list and its order are fixed at creation; the session
// transitions to completed exactly once and is immutable afterwards.
type Evaluation struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Questions   []QuestionRef     `json:"questions"`
	Total       int               `json:"total"`
	UserAnswers map[string]string `json:"userAnswers,omitempty"`
	Score       *int              `json:"score,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// Completed reports whether the evaluation has been submitted.
func (e *Evaluation) Completed() bool {
	return e.CompletedAt != nil
}

// Role controls access to the admin console.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account holder. PasswordHash and the reset token fields never
// leave the service layer.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Role              Role       `json:"role"`
	PasswordHash      string     `json:"-"`
	ResetToken        string     `json:"-"`
	ResetTokenExpires *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
}
