package http

import (
	"net/http"

	"cahier-service/internal/app"
	"cahier-service/internal/ratelimit"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server bundles the HTTP and websocket surface of the service.
type Server struct {
	auth        *app.AuthService
	users       *app.UserService
	exercises   *app.ExerciseService
	progress    *app.ProgressService
	evaluations *app.EvaluationService
	limiter     *ratelimit.Limiter
	log         *zap.SugaredLogger
	upgrader    websocket.Upgrader
}

func NewServer(
	auth *app.AuthService,
	users *app.UserService,
	exercises *app.ExerciseService,
	progress *app.ProgressService,
	evaluations *app.EvaluationService,
	limiter *ratelimit.Limiter,
	log *zap.SugaredLogger,
) *Server {
	return &Server{
		auth:        auth,
		users:       users,
		exercises:   exercises,
		progress:    progress,
		evaluations: evaluations,
		limiter:     limiter,
		log:         log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes builds the full route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/password-reset", s.handlePasswordResetRequest)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", s.handlePasswordResetConfirm)
	mux.HandleFunc("GET /api/auth/me", s.withAuth(s.handleMe))

	mux.HandleFunc("GET /api/exercises", s.withAuth(s.handleListExercises))
	mux.HandleFunc("GET /api/exercises/{id}", s.withAuth(s.handleGetExercise))
	mux.HandleFunc("POST /api/exercises", s.withAdmin(s.handleCreateExercise))
	mux.HandleFunc("PATCH /api/exercises/{id}", s.withAdmin(s.handleUpdateExercise))
	mux.HandleFunc("POST /api/exercises/{id}/duplicate", s.withAdmin(s.handleDuplicateExercise))

	mux.HandleFunc("GET /api/progress", s.withAuth(s.handleListProgress))
	mux.HandleFunc("GET /api/progress/{exerciseId}", s.withAuth(s.handleGetProgress))
	mux.HandleFunc("PUT /api/progress/{exerciseId}", s.withAuth(s.handleSaveProgress))

	mux.HandleFunc("POST /api/evaluations", s.withAuth(s.handleStartEvaluation))
	mux.HandleFunc("GET /api/evaluations/{id}", s.withAuth(s.handleGetEvaluation))
	mux.HandleFunc("POST /api/evaluations/{id}/submit", s.withAuth(s.handleSubmitEvaluation))

	mux.HandleFunc("GET /api/users", s.withAdmin(s.handleListUsers))
	mux.HandleFunc("PATCH /api/users/{id}/role", s.withAdmin(s.handleChangeRole))

	mux.HandleFunc("GET /ws/practice", s.handlePracticeWS)

	return mux
}
