package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cahier-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// EvaluationRepository stores evaluation sessions.
type EvaluationRepository struct {
	pool *pgxpool.Pool
}

func NewEvaluationRepository(pool *pgxpool.Pool) *EvaluationRepository {
	return &EvaluationRepository{pool: pool}
}

func (r *EvaluationRepository) CreateEvaluation(ctx context.Context, e domain.Evaluation) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO evaluations (id, user_id, questions, total, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.UserID, questions, e.Total, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) GetEvaluation(ctx context.Context, id string) (domain.Evaluation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, questions, total, user_answers, score, created_at, completed_at
		FROM evaluations WHERE id=$1`, id)

	var (
		e           domain.Evaluation
		questions   []byte
		userAnswers []byte
	)
	err := row.Scan(&e.ID, &e.UserID, &questions, &e.Total, &userAnswers, &e.Score, &e.CreatedAt, &e.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Evaluation{}, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("load evaluation: %w", err)
	}
	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return domain.Evaluation{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	if len(userAnswers) > 0 {
		if err := json.Unmarshal(userAnswers, &e.UserAnswers); err != nil {
			return domain.Evaluation{}, fmt.Errorf("unmarshal user answers: %w", err)
		}
	}
	return e, nil
}

func (r *EvaluationRepository) UpdateEvaluation(ctx context.Context, e domain.Evaluation) error {
	userAnswers, err := json.Marshal(e.UserAnswers)
	if err != nil {
		return fmt.Errorf("marshal user answers: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE evaluations
		SET user_answers=$2, score=$3, completed_at=$4
		WHERE id=$1`,
		e.ID, userAnswers, e.Score, e.CompletedAt)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEvaluationNotFound
	}
	return nil
}
