package memory

import (
	"context"
	"testing"
	"time"

	"cahier-service/internal/domain"
)

func TestExerciseCacheCollapsesLoads(t *testing.T) {
	repo := NewExerciseRepository(sampleExercise())
	loader := &countingLoader{ExerciseLoader: repo}
	cache := NewExerciseCache(loader, time.Minute)

	if _, err := cache.GetExercise(context.Background(), "ex-1"); err != nil {
		t.Fatalf("get exercise: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := cache.GetExercise(context.Background(), "ex-1"); err != nil {
		t.Fatalf("get exercise 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestExerciseCacheInvalidate(t *testing.T) {
	repo := NewExerciseRepository(sampleExercise())
	loader := &countingLoader{ExerciseLoader: repo}
	cache := NewExerciseCache(loader, time.Minute)

	_, _ = cache.GetExercise(context.Background(), "ex-1")
	cache.Invalidate("ex-1")
	_, _ = cache.GetExercise(context.Background(), "ex-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidation, got %d calls", loader.calls)
	}
}

type countingLoader struct {
	ExerciseLoader
	calls int
}

func (l *countingLoader) GetExercise(ctx context.Context, id string) (domain.Exercise, error) {
	l.calls++
	return l.ExerciseLoader.GetExercise(ctx, id)
}

func sampleExercise() domain.Exercise {
	return domain.Exercise{
		ID:       "ex-1",
		Number:   1,
		Title:    "Vrai ou Faux",
		Type:     domain.TypeTrueFalse,
		IsActive: true,
		Content: domain.Content{Questions: []domain.Question{
			{ID: 1, Text: "La médiation est confidentielle."},
		}},
		Answers: domain.AnswerKey{Values: map[string]string{"1": domain.AnswerTrue}},
	}
}
