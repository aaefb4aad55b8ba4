package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tripplanner/internal/core/domain"
)

// ErrUserNotFound is returned by the lookups when no account matches.
var ErrUserNotFound = errors.New("user not found")

// UserRepo implements ports.UserRepository with pgx.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user. A duplicate email yields domain.ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail looks a user up by (already normalized) email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE lower(email) = lower($1)
	`, email)
}

// GetByID looks a user up by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanOne(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE id = $1
	`, id)
}

func (r *UserRepo) scanOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.Pool.QueryRow(ctx, sql, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
