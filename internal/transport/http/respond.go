package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cahier-service/internal/domain"
	"cahier-service/internal/ratelimit"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Errorw("write response", "err", err)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Validation
// and referential rejections are 400, missing resources 404, the
// completed-evaluation conflict 409.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		s.writeJSON(w, http.StatusBadRequest, errorBody{errorPayload{Code: "VALIDATION", Message: err.Error()}})
	case errors.Is(err, domain.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, errorBody{errorPayload{Code: "UNAUTHORIZED", Message: err.Error()}})
	case errors.Is(err, domain.ErrInvalidResetToken):
		s.writeJSON(w, http.StatusBadRequest, errorBody{errorPayload{Code: "INVALID_TOKEN", Message: err.Error()}})
	case errors.Is(err, domain.ErrExerciseNotFound),
		errors.Is(err, domain.ErrEvaluationNotFound),
		errors.Is(err, domain.ErrProgressNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{errorPayload{Code: "NOT_FOUND", Message: err.Error()}})
	case errors.Is(err, domain.ErrEvaluationCompleted), errors.Is(err, domain.ErrEmailTaken):
		s.writeJSON(w, http.StatusConflict, errorBody{errorPayload{Code: "CONFLICT", Message: err.Error()}})
	case errors.Is(err, domain.ErrEmptyQuestionPool):
		s.writeJSON(w, http.StatusBadRequest, errorBody{errorPayload{Code: "EMPTY_POOL", Message: err.Error()}})
	default:
		s.log.Errorw("internal error", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{errorPayload{Code: "INTERNAL", Message: "internal server error"}})
	}
}

// writeThrottled reports a rate limit denial with the wait time.
func (s *Server) writeThrottled(w http.ResponseWriter, d ratelimit.Decision) {
	wait := d.RetryAfter(time.Now())
	seconds := int(wait / time.Second)
	if wait%time.Second > 0 {
		seconds++
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	s.writeJSON(w, http.StatusTooManyRequests, errorBody{errorPayload{
		Code:    "RATE_LIMITED",
		Message: "too many requests, please try again later",
	}})
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalidf("invalid request body")
	}
	return nil
}
