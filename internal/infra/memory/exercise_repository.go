package memory

import (
	"context"
	"sort"
	"sync"

	"cahier-service/internal/domain"
)

// ExerciseRepository is an in-memory implementation of app.ExerciseRepository,
// used in tests and in demo mode when no postgres is configured.
type ExerciseRepository struct {
	mu        sync.RWMutex
	exercises map[string]domain.Exercise
}

func NewExerciseRepository(seed ...domain.Exercise) *ExerciseRepository {
	r := &ExerciseRepository{exercises: make(map[string]domain.Exercise)}
	for _, ex := range seed {
		r.exercises[ex.ID] = ex
	}
	return r
}

func (r *ExerciseRepository) GetExercise(_ context.Context, id string) (domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.exercises[id]
	if !ok {
		return domain.Exercise{}, domain.ErrExerciseNotFound
	}
	return ex, nil
}

func (r *ExerciseRepository) ListExercises(_ context.Context, activeOnly bool) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]domain.Exercise, 0, len(r.exercises))
	for _, ex := range r.exercises {
		if activeOnly && !ex.IsActive {
			continue
		}
		list = append(list, ex)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (r *ExerciseRepository) CreateExercise(_ context.Context, ex domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exercises[ex.ID] = ex
	return nil
}

func (r *ExerciseRepository) UpdateExercise(_ context.Context, ex domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[ex.ID]; !ok {
		return domain.ErrExerciseNotFound
	}
	r.exercises[ex.ID] = ex
	return nil
}

func (r *ExerciseRepository) NextExerciseNumber(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	next := 1
	for _, ex := range r.exercises {
		if ex.Number >= next {
			next = ex.Number + 1
		}
	}
	return next, nil
}
