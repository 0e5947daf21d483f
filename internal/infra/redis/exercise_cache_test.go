package redis

import (
	"context"
	"testing"
	"time"

	"cahier-service/internal/domain"
	"cahier-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestExerciseCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{ExerciseLoader: memory.NewExerciseRepository(sampleExercise())}
	cache := NewExerciseCache(client, loader, time.Minute)

	ex, err := cache.GetExercise(context.Background(), "ex-1")
	if err != nil {
		t.Fatalf("get exercise: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("exercise:ex-1") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should come from redis; answer key must survive the trip.
	ex, err = cache.GetExercise(context.Background(), "ex-1")
	if err != nil {
		t.Fatalf("get exercise 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if ex.Answers.Values["1"] != domain.AnswerTrue {
		t.Fatalf("expected answer key from cache, got %+v", ex.Answers)
	}
}

func TestExerciseCacheInvalidateDeletesKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{ExerciseLoader: memory.NewExerciseRepository(sampleExercise())}
	cache := NewExerciseCache(client, loader, time.Minute)

	_, _ = cache.GetExercise(context.Background(), "ex-1")
	cache.Invalidate("ex-1")
	if mr.Exists("exercise:ex-1") {
		t.Fatalf("expected redis key to be removed")
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
