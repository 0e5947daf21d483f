package http

import (
	"net/http"
	"time"

	"cahier-service/internal/app"
	"cahier-service/internal/domain"
)

// exerciseView is the wire shape of an exercise. The answer key is only
// included for admins; learners get their answers checked server side.
type exerciseView struct {
	ID        string              `json:"id"`
	Number    int                 `json:"number"`
	Title     string              `json:"title"`
	Type      domain.ExerciseType `json:"type"`
	IsActive  bool                `json:"isActive"`
	Content   domain.Content      `json:"content"`
	Answers   *domain.AnswerKey   `json:"answers,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func viewOf(ex domain.Exercise, includeAnswers bool) exerciseView {
	v := exerciseView{
		ID:        ex.ID,
		Number:    ex.Number,
		Title:     ex.Title,
		Type:      ex.Type,
		IsActive:  ex.IsActive,
		Content:   ex.Content,
		CreatedAt: ex.CreatedAt,
		UpdatedAt: ex.UpdatedAt,
	}
	if includeAnswers {
		answers := ex.Answers
		v.Answers = &answers
	}
	return v
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	admin := claims.Role == domain.RoleAdmin
	includeInactive := admin && r.URL.Query().Get("includeInactive") == "true"
	list, err := s.exercises.List(r.Context(), includeInactive)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]exerciseView, 0, len(list))
	for _, ex := range list {
		views = append(views, viewOf(ex, admin))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	ex, err := s.exercises.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	admin := claims.Role == domain.RoleAdmin
	if !ex.IsActive && !admin {
		s.writeError(w, domain.ErrExerciseNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(ex, admin))
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request, _ app.Claims) {
	var input app.CreateExerciseInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, err)
		return
	}
	ex, err := s.exercises.Create(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewOf(ex, true))
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request, _ app.Claims) {
	var patch app.ExercisePatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	ex, err := s.exercises.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(ex, true))
}

func (s *Server) handleDuplicateExercise(w http.ResponseWriter, r *http.Request, _ app.Claims) {
	ex, err := s.exercises.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewOf(ex, true))
}
