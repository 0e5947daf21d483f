package app

import (
	"context"
	"math/rand"
	"time"

	"cahier-service/internal/domain"
	"github.com/google/uuid"
)

// EvaluationSize caps how many questions one evaluation samples.
const EvaluationSize = 20

// EvaluationRepository stores evaluation sessions.
type EvaluationRepository interface {
	CreateEvaluation(ctx context.Context, e domain.Evaluation) error
	GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error)
	UpdateEvaluation(ctx context.Context, e domain.Evaluation) error
}

// ExerciseSource provides the content needed to compose and grade an
// evaluation. The TTL caches satisfy the read; listing goes to the backing
// repository.
type ExerciseSource interface {
	ListExercises(ctx context.Context, activeOnly bool) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, id string) (domain.Exercise, error)
}

// EvaluationService composes randomized cross-exercise quizzes and grades
// their single submission.
type EvaluationService struct {
	evaluations EvaluationRepository
	exercises   ExerciseSource
	rnd         *rand.Rand
	clock       func() time.Time
}

func NewEvaluationService(evaluations EvaluationRepository, exercises ExerciseSource) *EvaluationService {
	return NewEvaluationServiceWithRand(evaluations, exercises,
		rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewEvaluationServiceWithRand allows deterministic sampling in tests.
func NewEvaluationServiceWithRand(evaluations EvaluationRepository, exercises ExerciseSource, rnd *rand.Rand, clock func() time.Time) *EvaluationService {
	return &EvaluationService{evaluations: evaluations, exercises: exercises, rnd: rnd, clock: clock}
}

// Start builds a fresh evaluation: every question of every active
// auto-gradable exercise goes into one pool, the pool is permuted
// (Fisher-Yates) and the first min(20, N) references become the session's
// fixed question list.
func (s *EvaluationService) Start(ctx context.Context, userID string) (domain.Evaluation, error) {
	exercises, err := s.exercises.ListExercises(ctx, true)
	if err != nil {
		return domain.Evaluation{}, err
	}
	var pool []domain.QuestionRef
	for _, ex := range exercises {
		if !ex.Type.InEvaluationPool() {
			continue
		}
		for _, q := range ex.Content.Questions {
			pool = append(pool, domain.QuestionRef{ExerciseID: ex.ID, QuestionID: q.ID})
		}
	}
	if len(pool) == 0 {
		return domain.Evaluation{}, domain.ErrEmptyQuestionPool
	}

	for i := len(pool) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	size := EvaluationSize
	if len(pool) < size {
		size = len(pool)
	}

	eval := domain.Evaluation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Questions: pool[:size],
		Total:     size,
		CreatedAt: s.clock(),
	}
	if err := s.evaluations.CreateEvaluation(ctx, eval); err != nil {
		return domain.Evaluation{}, err
	}
	return eval, nil
}

// Submit grades the user's answers against the fixed question list and
// completes the evaluation. Exactly one transition to completed is allowed;
// a second attempt fails with ErrEvaluationCompleted and changes nothing.
func (s *EvaluationService) Submit(ctx context.Context, userID, evaluationID string, answers map[string]string) (domain.Evaluation, error) {
	eval, err := s.getOwned(ctx, userID, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if eval.Completed() {
		return domain.Evaluation{}, domain.ErrEvaluationCompleted
	}
	if answers == nil {
		answers = map[string]string{}
	}

	score := 0
	for _, ref := range eval.Questions {
		ex, err := s.exercises.GetExercise(ctx, ref.ExerciseID)
		if err != nil {
			// Exercise removed since composition: the reference stays in the
			// total and counts as incorrect.
			continue
		}
		if ok, err := domain.GradeQuestion(ex, ref.QuestionID, answers[ref.Key()]); err == nil && ok {
			score++
		}
	}

	now := s.clock()
	eval.UserAnswers = answers
	eval.Score = &score
	eval.CompletedAt = &now
	if err := s.evaluations.UpdateEvaluation(ctx, eval); err != nil {
		return domain.Evaluation{}, err
	}
	return eval, nil
}

func (s *EvaluationService) Get(ctx context.Context, userID, evaluationID string) (domain.Evaluation, error) {
	return s.getOwned(ctx, userID, evaluationID)
}

// getOwned hides other users' evaluations behind a not-found error.
func (s *EvaluationService) getOwned(ctx context.Context, userID, evaluationID string) (domain.Evaluation, error) {
	eval, err := s.evaluations.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if eval.UserID != userID {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}
	return eval, nil
}
