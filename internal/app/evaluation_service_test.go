package app_test

import (
	"context"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"cahier-service/internal/app"
	"cahier-service/internal/domain"
	"cahier-service/internal/infra/memory"
)

// seedExercises loads count true_false exercises of one question each plus a
// free_text and a labyrinth exercise that must stay out of the pool.
func seedExercises(t *testing.T, count int) *memory.ExerciseRepository {
	t.Helper()
	repo := memory.NewExerciseRepository()
	for i := 1; i <= count; i++ {
		ex := domain.Exercise{
			ID:       "ex-" + strconv.Itoa(i),
			Number:   i,
			Title:    "Exercice " + strconv.Itoa(i),
			Type:     domain.TypeTrueFalse,
			IsActive: true,
			Content: domain.Content{Questions: []domain.Question{
				{ID: 1, Text: "Question " + strconv.Itoa(i)},
			}},
			Answers: domain.AnswerKey{Values: map[string]string{"1": domain.AnswerTrue}},
		}
		if err := repo.CreateExercise(context.Background(), ex); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	_ = repo.CreateExercise(context.Background(), domain.Exercise{
		ID: "ex-free", Number: count + 1, Title: "Libre", Type: domain.TypeFreeText, IsActive: true,
		Content: domain.Content{Questions: []domain.Question{{ID: 1, Text: "Décrivez."}}},
		Answers: domain.AnswerKey{Values: map[string]string{"1": "Référence"}},
	})
	_ = repo.CreateExercise(context.Background(), domain.Exercise{
		ID: "ex-lab", Number: count + 2, Title: "Labyrinthe", Type: domain.TypeLabyrinth, IsActive: true,
		Content: domain.Content{Questions: []domain.Question{
			{ID: 1, Text: "Étape", Options: []domain.Option{{Label: "a", Text: "x"}, {Label: "b", Text: "y"}}},
		}},
		Answers: domain.AnswerKey{Values: map[string]string{"1": "a"}},
	})
	return repo
}

func newEvaluationService(repo *memory.ExerciseRepository) *app.EvaluationService {
	return app.NewEvaluationServiceWithRand(
		memory.NewEvaluationRepository(),
		repo,
		rand.New(rand.NewSource(42)),
		func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	)
}

func TestStartSamplesTwentyDistinctReferences(t *testing.T) {
	ctx := context.Background()
	repo := seedExercises(t, 30)
	service := newEvaluationService(repo)

	eval, err := service.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if eval.Total != app.EvaluationSize || len(eval.Questions) != app.EvaluationSize {
		t.Fatalf("expected %d questions, got %d", app.EvaluationSize, len(eval.Questions))
	}
	seen := make(map[string]struct{})
	for _, ref := range eval.Questions {
		if ref.ExerciseID == "ex-free" || ref.ExerciseID == "ex-lab" {
			t.Fatalf("pool must exclude free_text and labyrinth, got %+v", ref)
		}
		if _, dup := seen[ref.Key()]; dup {
			t.Fatalf("duplicate reference %s", ref.Key())
		}
		seen[ref.Key()] = struct{}{}
	}
}

func TestStartWithSmallPool(t *testing.T) {
	ctx := context.Background()
	service := newEvaluationService(seedExercises(t, 7))

	eval, err := service.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if eval.Total != 7 {
		t.Fatalf("expected pool-sized sample, got %d", eval.Total)
	}
}

func TestStartFailsOnEmptyPool(t *testing.T) {
	service := newEvaluationService(memory.NewExerciseRepository())
	if _, err := service.Start(context.Background(), "u1"); err != domain.ErrEmptyQuestionPool {
		t.Fatalf("expected empty pool error, got %v", err)
	}
}

func TestSubmitGradesAgainstCompositeKeys(t *testing.T) {
	ctx := context.Background()
	service := newEvaluationService(seedExercises(t, 4))

	eval, err := service.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Answer half the references correctly.
	answers := map[string]string{}
	for i, ref := range eval.Questions {
		if i%2 == 0 {
			answers[ref.Key()] = domain.AnswerTrue
		} else {
			answers[ref.Key()] = domain.AnswerFalse
		}
	}
	done, err := service.Submit(ctx, "u1", eval.ID, answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if done.Score == nil || *done.Score != 2 {
		t.Fatalf("expected score 2, got %+v", done.Score)
	}
	if !done.Completed() {
		t.Fatalf("expected completedAt to be set")
	}
}

func TestSubmitIsIdempotentOnce(t *testing.T) {
	ctx := context.Background()
	service := newEvaluationService(seedExercises(t, 4))

	eval, _ := service.Start(ctx, "u1")
	first, err := service.Submit(ctx, "u1", eval.ID, map[string]string{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := service.Submit(ctx, "u1", eval.ID, map[string]string{eval.Questions[0].Key(): domain.AnswerTrue}); err != domain.ErrEvaluationCompleted {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// The second attempt must not have altered score or answers.
	stored, err := service.Get(ctx, "u1", eval.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *stored.Score != *first.Score || len(stored.UserAnswers) != 0 {
		t.Fatalf("completed evaluation was mutated: %+v", stored)
	}
}

func TestEvaluationOwnership(t *testing.T) {
	ctx := context.Background()
	service := newEvaluationService(seedExercises(t, 4))

	eval, _ := service.Start(ctx, "u1")
	if _, err := service.Get(ctx, "u2", eval.ID); err != domain.ErrEvaluationNotFound {
		t.Fatalf("expected not found for another user, got %v", err)
	}
	if _, err := service.Submit(ctx, "u2", eval.ID, nil); err != domain.ErrEvaluationNotFound {
		t.Fatalf("expected not found for another user, got %v", err)
	}
}
