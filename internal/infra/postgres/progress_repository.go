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

// ProgressRepository stores per-(user, exercise) progress rows.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

func (r *ProgressRepository) GetProgress(ctx context.Context, userID, exerciseID string) (domain.Progress, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, exercise_id, answers, completed, updated_at
		FROM progress WHERE user_id=$1 AND exercise_id=$2`, userID, exerciseID)
	p, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progress{}, domain.ErrProgressNotFound
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	return p, nil
}

func (r *ProgressRepository) ListProgress(ctx context.Context, userID string) ([]domain.Progress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, exercise_id, answers, completed, updated_at
		FROM progress WHERE user_id=$1 ORDER BY exercise_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var list []domain.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// SaveProgress upserts. The completed flag is monotonic and the rule lives in
// the statement itself, so no concurrent writer can regress it.
func (r *ProgressRepository) SaveProgress(ctx context.Context, p domain.Progress) error {
	answers, err := json.Marshal(p.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO progress (user_id, exercise_id, answers, completed, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, exercise_id) DO UPDATE
		SET answers = EXCLUDED.answers,
		    completed = progress.completed OR EXCLUDED.completed,
		    updated_at = EXCLUDED.updated_at`,
		p.UserID, p.ExerciseID, answers, p.Completed, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func scanProgress(row pgx.Row) (domain.Progress, error) {
	var (
		p   domain.Progress
		raw []byte
	)
	if err := row.Scan(&p.UserID, &p.ExerciseID, &raw, &p.Completed, &p.UpdatedAt); err != nil {
		return domain.Progress{}, err
	}
	if err := json.Unmarshal(raw, &p.Answers); err != nil {
		return domain.Progress{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return p, nil
}
