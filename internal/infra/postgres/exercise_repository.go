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

// ExerciseRepository stores exercise records with JSONB content/answers.
type ExerciseRepository struct {
	pool *pgxpool.Pool
}

func NewExerciseRepository(pool *pgxpool.Pool) *ExerciseRepository {
	return &ExerciseRepository{pool: pool}
}

const exerciseColumns = `id, number, title, type, is_active, content, answers, created_at, updated_at`

func (r *ExerciseRepository) GetExercise(ctx context.Context, id string) (domain.Exercise, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id=$1`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Exercise{}, domain.ErrExerciseNotFound
	}
	if err != nil {
		return domain.Exercise{}, fmt.Errorf("load exercise: %w", err)
	}
	return ex, nil
}

func (r *ExerciseRepository) ListExercises(ctx context.Context, activeOnly bool) ([]domain.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises ORDER BY number`
	if activeOnly {
		query = `SELECT ` + exerciseColumns + ` FROM exercises WHERE is_active ORDER BY number`
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var list []domain.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		list = append(list, ex)
	}
	return list, rows.Err()
}

func (r *ExerciseRepository) CreateExercise(ctx context.Context, ex domain.Exercise) error {
	content, answers, err := marshalPayload(ex)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO exercises (id, number, title, type, is_active, content, answers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ex.ID, ex.Number, ex.Title, string(ex.Type), ex.IsActive, content, answers, ex.CreatedAt, ex.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert exercise: %w", err)
	}
	return nil
}

func (r *ExerciseRepository) UpdateExercise(ctx context.Context, ex domain.Exercise) error {
	content, answers, err := marshalPayload(ex)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE exercises
		SET number=$2, title=$3, type=$4, is_active=$5, content=$6, answers=$7, updated_at=$8
		WHERE id=$1`,
		ex.ID, ex.Number, ex.Title, string(ex.Type), ex.IsActive, content, answers, ex.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}

func (r *ExerciseRepository) NextExerciseNumber(ctx context.Context) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(number), 0) + 1 FROM exercises`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next exercise number: %w", err)
	}
	return next, nil
}

func marshalPayload(ex domain.Exercise) ([]byte, []byte, error) {
	content, err := json.Marshal(ex.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal content: %w", err)
	}
	answers, err := json.Marshal(ex.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal answers: %w", err)
	}
	return content, answers, nil
}

func scanExercise(row pgx.Row) (domain.Exercise, error) {
	var (
		ex         domain.Exercise
		typ        string
		rawContent []byte
		rawAnswers []byte
	)
	if err := row.Scan(&ex.ID, &ex.Number, &ex.Title, &typ, &ex.IsActive, &rawContent, &rawAnswers, &ex.CreatedAt, &ex.UpdatedAt); err != nil {
		return domain.Exercise{}, err
	}
	ex.Type = domain.ExerciseType(typ)
	if err := json.Unmarshal(rawContent, &ex.Content); err != nil {
		return domain.Exercise{}, fmt.Errorf("unmarshal content: %w", err)
	}
	if err := json.Unmarshal(rawAnswers, &ex.Answers); err != nil {
		return domain.Exercise{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return ex, nil
}
