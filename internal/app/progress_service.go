package app

import (
	"context"
	"errors"
	"time"

	"cahier-service/internal/domain"
)

// ProgressRepository stores per-(user, exercise) progress records.
type ProgressRepository interface {
	GetProgress(ctx context.Context, userID, exerciseID string) (domain.Progress, error)
	ListProgress(ctx context.Context, userID string) ([]domain.Progress, error)
	SaveProgress(ctx context.Context, p domain.Progress) error
}

// ProgressService handles autosave and resume of learner answers.
type ProgressService struct {
	progress  ProgressRepository
	exercises ExerciseReader
	clock     func() time.Time
}

func NewProgressService(progress ProgressRepository, exercises ExerciseReader) *ProgressService {
	return &ProgressService{progress: progress, exercises: exercises, clock: time.Now}
}

// Save upserts the progress record. Completed is monotonic: the stored value
// becomes old OR incoming, so a later autosave can never un-complete an
// exercise.
func (s *ProgressService) Save(ctx context.Context, userID, exerciseID string, answers map[string]string, completed bool) (domain.Progress, error) {
	if _, err := s.exercises.GetExercise(ctx, exerciseID); err != nil {
		return domain.Progress{}, err
	}
	existing, err := s.progress.GetProgress(ctx, userID, exerciseID)
	switch {
	case err == nil:
		completed = completed || existing.Completed
	case errors.Is(err, domain.ErrProgressNotFound):
	default:
		return domain.Progress{}, err
	}
	if answers == nil {
		answers = map[string]string{}
	}
	p := domain.Progress{
		UserID:     userID,
		ExerciseID: exerciseID,
		Answers:    answers,
		Completed:  completed,
		UpdatedAt:  s.clock(),
	}
	if err := s.progress.SaveProgress(ctx, p); err != nil {
		return domain.Progress{}, err
	}
	return p, nil
}

func (s *ProgressService) Get(ctx context.Context, userID, exerciseID string) (domain.Progress, error) {
	return s.progress.GetProgress(ctx, userID, exerciseID)
}

func (s *ProgressService) List(ctx context.Context, userID string) ([]domain.Progress, error) {
	return s.progress.ListProgress(ctx, userID)
}

// Score grades the saved answers of one exercise for display. free_text
// yields (0, 0).
func (s *ProgressService) Score(ctx context.Context, userID, exerciseID string) (correct, graded int, err error) {
	ex, err := s.exercises.GetExercise(ctx, exerciseID)
	if err != nil {
		return 0, 0, err
	}
	p, err := s.progress.GetProgress(ctx, userID, exerciseID)
	if err != nil {
		return 0, 0, err
	}
	correct, graded = domain.ScoreExercise(ex, p.Answers)
	return correct, graded, nil
}
