package memory

import (
	"context"
	"sort"
	"sync"

	"cahier-service/internal/domain"
)

// ProgressRepository is an in-memory implementation of app.ProgressRepository.
type ProgressRepository struct {
	mu      sync.RWMutex
	records map[progressKey]domain.Progress
}

type progressKey struct {
	userID     string
	exerciseID string
}

func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{records: make(map[progressKey]domain.Progress)}
}

func (r *ProgressRepository) GetProgress(_ context.Context, userID, exerciseID string) (domain.Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.records[progressKey{userID, exerciseID}]
	if !ok {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	return p, nil
}

func (r *ProgressRepository) ListProgress(_ context.Context, userID string) ([]domain.Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []domain.Progress
	for key, p := range r.records {
		if key.userID == userID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ExerciseID < list[j].ExerciseID })
	return list, nil
}

// SaveProgress upserts and applies the monotonic completed rule a second
// time, so the invariant holds even for callers that skip the service layer.
func (r *ProgressRepository) SaveProgress(_ context.Context, p domain.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey{p.UserID, p.ExerciseID}
	if old, ok := r.records[key]; ok {
		p.Completed = p.Completed || old.Completed
	}
	r.records[key] = p
	return nil
}
