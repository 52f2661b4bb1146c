package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/models"
)

const userColumns = `id, username, name, avatar, password_hash, status, created_at`

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a new user row. The unique index on username is what
// actually serializes two concurrent signups for the same name; the
// loser gets apperr.ErrDuplicateUsername.
func (s *UserStore) Create(ctx context.Context, u models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, name, avatar, password_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + userColumns

	row := s.pool.QueryRow(ctx, query, u.ID, u.Username, u.DisplayName, u.Avatar, u.PasswordHash, u.Status)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateUsername
		}
		return nil, storeErr("insert user", err)
	}
	return created, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get user by username", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get user", err)
	}
	return u, nil
}

func (s *UserStore) ListAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name, username`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}
	return users, nil
}

func (s *UserStore) UpdateStatus(ctx context.Context, id, status string) (*models.User, error) {
	query := `
		UPDATE users SET status = $2
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("update user status", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.Avatar,
		&u.PasswordHash,
		&u.Status,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// storeErr tags a driver error as a persistence failure. The driver error
// stays in the chain for logging; handlers only ever show a generic message.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperr.ErrStoreUnavailable, err)
}
