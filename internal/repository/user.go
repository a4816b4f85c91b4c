package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tasknest/tasknest-go/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, email, name, password_hash, refresh_token_hash, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithSession inserts user and stores the refresh token hash that
// newSession returns for the new ID, in one transaction. If newSession or
// either write fails, no user row is left behind.
func (r *UserRepository) CreateWithSession(ctx context.Context, user *model.User, newSession func(userID int64) (string, error)) error {
	var (
		id   int64
		hash string
	)

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, name, password_hash) VALUES (?, ?, ?)`,
			user.Email, user.Name, user.PasswordHash,
		)
		if err != nil {
			if isDuplicateEntryError(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("inserting user: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading user id: %w", err)
		}

		hash, err = newSession(id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET refresh_token_hash = ? WHERE id = ?`, hash, id); err != nil {
			return fmt.Errorf("storing refresh token hash: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	user.ID = id
	user.RefreshTokenHash = &hash
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdateRefreshTokenHash replaces the user's stored refresh token hash. A nil
// hash ends the session.
func (r *UserRepository) UpdateRefreshTokenHash(ctx context.Context, id int64, hash *string) error {
	query := `UPDATE users SET refresh_token_hash = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("updating refresh token hash: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ClearAllRefreshTokenHashes ends every active session and returns how many
// users were signed out.
func (r *UserRepository) ClearAllRefreshTokenHashes(ctx context.Context) (int64, error) {
	query := `UPDATE users SET refresh_token_hash = NULL WHERE refresh_token_hash IS NOT NULL`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("clearing refresh token hashes: %w", err)
	}

	return result.RowsAffected()
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.RefreshTokenHash,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return user, nil
}
