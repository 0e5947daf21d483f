package app

import (
	"context"
	"time"

	"cahier-service/internal/domain"
	"github.com/google/uuid"
)

// ExerciseRepository persists exercise records (postgres, in-memory, ...).
type ExerciseRepository interface {
	GetExercise(ctx context.Context, id string) (domain.Exercise, error)
	ListExercises(ctx context.Context, activeOnly bool) ([]domain.Exercise, error)
	CreateExercise(ctx context.Context, ex domain.Exercise) error
	UpdateExercise(ctx context.Context, ex domain.Exercise) error
	NextExerciseNumber(ctx context.Context) (int, error)
}

// ExerciseReader is the read side used by grading paths; the TTL caches
// implement it on top of a repository.
type ExerciseReader interface {
	GetExercise(ctx context.Context, id string) (domain.Exercise, error)
}

// CacheInvalidator drops a cached exercise after an admin write so grading
// does not serve a stale answer key for a full TTL.
type CacheInvalidator interface {
	Invalidate(id string)
}

// ExerciseService contains the admin-side content use cases. Every write goes
// through the full-record validator; persistence must never see a payload the
// validator rejected.
type ExerciseService struct {
	exercises ExerciseRepository
	cache     CacheInvalidator // optional
	clock     func() time.Time
}

func NewExerciseService(exercises ExerciseRepository, cache CacheInvalidator) *ExerciseService {
	return &ExerciseService{exercises: exercises, cache: cache, clock: time.Now}
}

// CreateExerciseInput is the full payload required at creation.
type CreateExerciseInput struct {
	Title    string              `json:"title"`
	Type     domain.ExerciseType `json:"type"`
	IsActive bool                `json:"isActive"`
	Content  domain.Content      `json:"content"`
	Answers  domain.AnswerKey    `json:"answers"`
}

// ExercisePatch is a partial update. Nil fields keep the stored value; if any
// of Type/Content/Answers is supplied the merged record is re-validated with
// the same rules as creation.
type ExercisePatch struct {
	Title    *string              `json:"title"`
	Type     *domain.ExerciseType `json:"type"`
	IsActive *bool                `json:"isActive"`
	Content  *domain.Content      `json:"content"`
	Answers  *domain.AnswerKey    `json:"answers"`
}

func (s *ExerciseService) Create(ctx context.Context, input CreateExerciseInput) (domain.Exercise, error) {
	if input.Title == "" {
		return domain.Exercise{}, domain.Invalidf("title is required")
	}
	if err := domain.ValidateExercise(input.Type, input.Content, input.Answers); err != nil {
		return domain.Exercise{}, err
	}
	number, err := s.exercises.NextExerciseNumber(ctx)
	if err != nil {
		return domain.Exercise{}, err
	}
	now := s.clock()
	ex := domain.Exercise{
		ID:        uuid.NewString(),
		Number:    number,
		Title:     input.Title,
		Type:      input.Type,
		IsActive:  input.IsActive,
		Content:   input.Content,
		Answers:   input.Answers,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.exercises.CreateExercise(ctx, ex); err != nil {
		return domain.Exercise{}, err
	}
	return ex, nil
}

// Update merges the patch over the stored record and re-validates the merged
// whole, so update and create can never diverge in what they accept. A patch
// that touches neither type nor content nor answers skips validation and
// leaves those fields untouched.
func (s *ExerciseService) Update(ctx context.Context, id string, patch ExercisePatch) (domain.Exercise, error) {
	ex, err := s.exercises.GetExercise(ctx, id)
	if err != nil {
		return domain.Exercise{}, err
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return domain.Exercise{}, domain.Invalidf("title is required")
		}
		ex.Title = *patch.Title
	}
	if patch.IsActive != nil {
		ex.IsActive = *patch.IsActive
	}
	if patch.Type != nil || patch.Content != nil || patch.Answers != nil {
		if patch.Type != nil {
			ex.Type = *patch.Type
		}
		if patch.Content != nil {
			ex.Content = *patch.Content
		}
		if patch.Answers != nil {
			ex.Answers = *patch.Answers
		}
		if err := domain.ValidateExercise(ex.Type, ex.Content, ex.Answers); err != nil {
			return domain.Exercise{}, err
		}
	}
	ex.UpdatedAt = s.clock()
	if err := s.exercises.UpdateExercise(ctx, ex); err != nil {
		return domain.Exercise{}, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ex.ID)
	}
	return ex, nil
}

// Duplicate copies content and answers into a new exercise with the next
// sequence number and a marked title.
func (s *ExerciseService) Duplicate(ctx context.Context, id string) (domain.Exercise, error) {
	src, err := s.exercises.GetExercise(ctx, id)
	if err != nil {
		return domain.Exercise{}, err
	}
	number, err := s.exercises.NextExerciseNumber(ctx)
	if err != nil {
		return domain.Exercise{}, err
	}
	now := s.clock()
	copy := src
	copy.ID = uuid.NewString()
	copy.Number = number
	copy.Title = src.Title + " (copie)"
	copy.CreatedAt = now
	copy.UpdatedAt = now
	if err := s.exercises.CreateExercise(ctx, copy); err != nil {
		return domain.Exercise{}, err
	}
	return copy, nil
}

// SetActive toggles visibility without touching content or answers.
func (s *ExerciseService) SetActive(ctx context.Context, id string, active bool) (domain.Exercise, error) {
	return s.Update(ctx, id, ExercisePatch{IsActive: &active})
}

func (s *ExerciseService) Get(ctx context.Context, id string) (domain.Exercise, error) {
	return s.exercises.GetExercise(ctx, id)
}

// List returns exercises ordered by sequence number. Learners only see
// active ones; the admin console lists everything.
func (s *ExerciseService) List(ctx context.Context, includeInactive bool) ([]domain.Exercise, error) {
	return s.exercises.ListExercises(ctx, !includeInactive)
}
