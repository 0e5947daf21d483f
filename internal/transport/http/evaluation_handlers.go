package http

import (
	"net/http"

	"cahier-service/internal/app"
)

func (s *Server) handleStartEvaluation(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	eval, err := s.evaluations.Start(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, eval)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	eval, err := s.evaluations.Get(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	var body struct {
		Answers map[string]string `json:"answers"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	eval, err := s.evaluations.Submit(r.Context(), claims.UserID, r.PathValue("id"), body.Answers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, eval)
}
