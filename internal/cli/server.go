package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cahier-service/internal/app"
	"cahier-service/internal/config"
	"cahier-service/internal/domain"
	"cahier-service/internal/infra/memory"
	pg "cahier-service/internal/infra/postgres"
	rediscache "cahier-service/internal/infra/redis"
	"cahier-service/internal/ratelimit"
	transport "cahier-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the workbook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// exerciseCache is the read-through cache placed in front of the exercise
// repository on grading paths.
type exerciseCache interface {
	GetExercise(ctx context.Context, id string) (domain.Exercise, error)
	Invalidate(id string)
}

// exerciseSource routes single reads through the cache and listings straight
// to the repository.
type exerciseSource struct {
	cache exerciseCache
	repo  app.ExerciseRepository
}

func (s exerciseSource) GetExercise(ctx context.Context, id string) (domain.Exercise, error) {
	return s.cache.GetExercise(ctx, id)
}

func (s exerciseSource) ListExercises(ctx context.Context, activeOnly bool) ([]domain.Exercise, error) {
	return s.repo.ListExercises(ctx, activeOnly)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		// A missing config file means defaults everywhere.
		if !os.IsNotExist(err) {
			return err
		}
		cfg = config.Config{}
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		exerciseRepo   app.ExerciseRepository
		progressRepo   app.ProgressRepository
		evaluationRepo app.EvaluationRepository
		userRepo       app.UserRepository
	)
	if pool != nil {
		exerciseRepo = pg.NewExerciseRepository(pool)
		progressRepo = pg.NewProgressRepository(pool)
		evaluationRepo = pg.NewEvaluationRepository(pool)
		userRepo = pg.NewUserRepository(pool)
	} else {
		log.Infow("no postgres configured, using in-memory storage with sample content")
		exerciseRepo = memory.NewExerciseRepository(sampleExercises()...)
		progressRepo = memory.NewProgressRepository()
		evaluationRepo = memory.NewEvaluationRepository()
		userRepo = memory.NewUserRepository()
	}

	cacheTTL := config.TTLDuration(cfg.Exercise.CacheTTL, 10*time.Minute)
	var cache exerciseCache
	if redisClient != nil {
		cache = rediscache.NewExerciseCache(redisClient, exerciseRepo, cacheTTL)
	} else {
		cache = memory.NewExerciseCache(exerciseRepo, cacheTTL)
	}
	source := exerciseSource{cache: cache, repo: exerciseRepo}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		log.Warnw("jwt secret not configured, using an insecure development default")
		secret = "dev-secret-change-me"
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	resetTTL := config.TTLDuration(cfg.Auth.ResetTokenTTL, 30*time.Minute)

	limits := map[string]ratelimit.Limit{}
	for scope, lc := range cfg.RateLimit {
		limits[scope] = ratelimit.Limit{Max: lc.Max, Window: config.TTLDuration(lc.Window, 0)}
	}

	authService := app.NewAuthService(userRepo, app.NewLogMailer(log), secret, tokenTTL, resetTTL)
	userService := app.NewUserService(userRepo)
	exerciseService := app.NewExerciseService(exerciseRepo, cache)
	progressService := app.NewProgressService(progressRepo, cache)
	evaluationService := app.NewEvaluationService(evaluationRepo, source)

	srv := transport.NewServer(
		authService,
		userService,
		exerciseService,
		progressService,
		evaluationService,
		ratelimit.New(limits),
		log,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Infow("starting workbook service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Infow("shutting down server")
	case <-ctx.Done():
		log.Infow("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleExercises seeds the in-memory mode with one exercise per variant so
// the app is usable without a database.
func sampleExercises() []domain.Exercise {
	now := time.Now()
	base := func(number int, title string, t domain.ExerciseType) domain.Exercise {
		return domain.Exercise{
			ID:        "sample-" + string(t),
			Number:    number,
			Title:     title,
			Type:      t,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	single := base(1, "Choisir le bon mode", domain.TypeSingleChoice)
	single.Content = domain.Content{
		Instruction: "Choisissez le mode de résolution adapté.",
		Options:     []string{"négociation", "médiation", "arbitrage"},
		Questions: []domain.Question{
			{ID: 1, Text: "Les parties veulent garder la décision entre leurs mains."},
		},
	}
	single.Answers = domain.AnswerKey{Values: map[string]string{"1": "médiation"}}

	qcm := base(2, "Le rôle du médiateur", domain.TypeQCM)
	qcm.Content = domain.Content{
		Questions: []domain.Question{
			{ID: 1, Text: "Le médiateur...", Options: []domain.Option{
				{Label: "a", Text: "tranche le litige"},
				{Label: "b", Text: "facilite le dialogue"},
			}},
		},
	}
	qcm.Answers = domain.AnswerKey{Values: map[string]string{"1": "b"}}

	multi := base(3, "Les bonnes postures", domain.TypeMultiSelect)
	multi.Content = domain.Content{
		Instruction: "Cochez les postures du médiateur.",
		Questions: []domain.Question{
			{ID: 1, Text: "Écoute active"},
			{ID: 2, Text: "Prise de parti"},
			{ID: 3, Text: "Impartialité"},
		},
	}
	multi.Answers = domain.AnswerKey{CorrectIDs: []int{1, 3}}

	tf := base(4, "Vrai ou faux", domain.TypeTrueFalse)
	tf.Content = domain.Content{
		Questions: []domain.Question{
			{ID: 1, Text: "La médiation est un processus volontaire."},
			{ID: 2, Text: "Le médiateur impose une solution."},
		},
	}
	tf.Answers = domain.AnswerKey{Values: map[string]string{"1": domain.AnswerTrue, "2": domain.AnswerFalse}}

	free := base(5, "Reformulation", domain.TypeFreeText)
	free.Content = domain.Content{
		Instruction: "Reformulez la phrase en langage non violent.",
		Columns:     []string{"Phrase entendue", "Votre reformulation"},
		Questions: []domain.Question{
			{ID: 1, Text: "Vous ne m'écoutez jamais !"},
		},
	}
	free.Answers = domain.AnswerKey{Values: map[string]string{"1": "J'ai besoin de me sentir écouté."}}

	lab := base(6, "Le labyrinthe du conflit", domain.TypeLabyrinth)
	lab.Content = domain.Content{
		Scenario: "Deux collègues ne se parlent plus depuis une réunion houleuse.",
		Questions: []domain.Question{
			{ID: 1, Text: "Que faites-vous en premier ?", Options: []domain.Option{
				{Label: "a", Text: "Convoquer les deux ensemble"},
				{Label: "b", Text: "Écouter chacun séparément"},
			}},
			{ID: 2, Text: "Ensuite ?", Options: []domain.Option{
				{Label: "a", Text: "Proposer une rencontre commune"},
				{Label: "b", Text: "Trancher le différend"},
			}},
		},
	}
	lab.Answers = domain.AnswerKey{Values: map[string]string{"1": "b", "2": "a"}}

	return []domain.Exercise{single, qcm, multi, tf, free, lab}
}
