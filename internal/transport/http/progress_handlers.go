package http

import (
	"errors"
	"net/http"

	"cahier-service/internal/app"
	"cahier-service/internal/domain"
)

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	list, err := s.progress.List(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []domain.Progress{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	p, err := s.progress.Get(r.Context(), claims.UserID, r.PathValue("exerciseId"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSaveProgress(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	var body struct {
		Answers   map[string]string `json:"answers"`
		Completed bool              `json:"completed"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.progress.Save(r.Context(), claims.UserID, r.PathValue("exerciseId"), body.Answers, body.Completed)
	if err != nil {
		s.writeError(w, err)
		return
	}
	correct, graded, err := s.progress.Score(r.Context(), claims.UserID, p.ExerciseID)
	if err != nil && !errors.Is(err, domain.ErrProgressNotFound) {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"progress": p,
		"score":    map[string]int{"correct": correct, "graded": graded},
	})
}
