package memory

import (
	"context"
	"sync"

	"cahier-service/internal/domain"
)

// EvaluationRepository is an in-memory implementation of app.EvaluationRepository.
type EvaluationRepository struct {
	mu          sync.RWMutex
	evaluations map[string]domain.Evaluation
}

func NewEvaluationRepository() *EvaluationRepository {
	return &EvaluationRepository{evaluations: make(map[string]domain.Evaluation)}
}

func (r *EvaluationRepository) CreateEvaluation(_ context.Context, e domain.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluations[e.ID] = e
	return nil
}

func (r *EvaluationRepository) GetEvaluation(_ context.Context, id string) (domain.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.evaluations[id]
	if !ok {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}
	return e, nil
}

func (r *EvaluationRepository) UpdateEvaluation(_ context.Context, e domain.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evaluations[e.ID]; !ok {
		return domain.ErrEvaluationNotFound
	}
	r.evaluations[e.ID] = e
	return nil
}
