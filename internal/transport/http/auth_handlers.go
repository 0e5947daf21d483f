package http

import (
	"net/http"

	"cahier-service/internal/app"
	"cahier-service/internal/domain"
	"cahier-service/internal/ratelimit"
)

// allow checks the scope limit for the key, writing the 429 itself on denial.
func (s *Server) allow(w http.ResponseWriter, scope, key string) bool {
	d := s.limiter.Allow(scope, key)
	if !d.Allowed {
		s.writeThrottled(w, d)
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, ratelimit.ScopeRegister, clientIP(r)) {
		return
	}
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.auth.Register(r.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	// Keyed per IP and email pair so one address cannot lock out a shared NAT.
	if !s.allow(w, ratelimit.ScopeLogin, clientIP(r)+":"+body.Email) {
		return
	}
	token, user, err := s.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, ratelimit.ScopePasswordReset, clientIP(r)) {
		return
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.auth.RequestPasswordReset(r.Context(), body.Email); err != nil {
		s.writeError(w, err)
		return
	}
	// Always 202, whether or not the account exists.
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, claims app.Claims) {
	user, err := s.users.Get(r.Context(), claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ app.Claims) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request, _ app.Claims) {
	var body struct {
		Role domain.Role `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := s.users.ChangeRole(r.Context(), r.PathValue("id"), body.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}
