package postgres

import (
	"context"
	"errors"
	"fmt"

	"cahier-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserRepository stores accounts.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, name, role, password_hash, reset_token, reset_token_expires, created_at`

func (r *UserRepository) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, reset_token, reset_token_expires, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.ResetToken, u.ResetTokenExpires, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUser(ctx context.Context, id string) (domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *UserRepository) GetUserByResetToken(ctx context.Context, token string) (domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token=$1`, token)
}

func (r *UserRepository) UpdateUser(ctx context.Context, u domain.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email=$2, name=$3, role=$4, password_hash=$5, reset_token=NULLIF($6, ''), reset_token_expires=$7
		WHERE id=$1`,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.ResetToken, u.ResetTokenExpires)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var list []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepository) one(ctx context.Context, query string, arg any) (domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u     domain.User
		role  string
		token *string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &token, &u.ResetTokenExpires, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	if token != nil {
		u.ResetToken = *token
	}
	return u, nil
}
