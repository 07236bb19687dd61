package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomstack/api-gateway/internal/domain"
	"github.com/ecomstack/api-gateway/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	UserResource = "user"

	uniqueViolationCode = "23505"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user. A duplicate email maps to AlreadyExistsError.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (id, email, password_hash, has_elevated_rights)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`

	err := r.pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash, user.HasElevatedRights).
		Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return &repository.AlreadyExistsError{
				Resource: UserResource,
				Key:      "email",
				Value:    user.Email,
			}
		}
		return fmt.Errorf("insert user %s: %w", user.Email, err)
	}

	return nil
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	const query = `
SELECT id, email, password_hash, has_elevated_rights, created_at
FROM users
WHERE email = $1
`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.HasElevatedRights,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &repository.NotFoundError{
				Resource: UserResource,
				Key:      "email",
				Value:    email,
			}
		}
		return nil, fmt.Errorf("query user by email %s: %w", email, err)
	}

	return &user, nil
}
