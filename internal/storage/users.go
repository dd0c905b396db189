package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/mattn/go-sqlite3"
)

// CreateUser registers a new user. Uniqueness is enforced by the database,
// so concurrent registrations of the same name cannot both succeed.
func (s *SQLiteStorage) CreateUser(ctx context.Context, username, password string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, hash)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicateUsername, username)
		}
		return nil, storeError("failed to create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storeError("failed to get user id", err)
	}

	return &model.User{ID: id, Username: username, PasswordHash: hash}, nil
}

// AuthenticateUser returns the user when the credentials match, and nil with
// no error when the username is unknown or the password is wrong. Both cases
// cost one bcrypt comparison.
func (s *SQLiteStorage) AuthenticateUser(ctx context.Context, username, password string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	user, err := s.getUserByUsernameTx(ctx, s.db, username)
	if errors.Is(err, common.ErrUserNotFound) {
		s.hasher.CheckMissing(password)
		return nil, nil //nolint:nilnil // unknown user is not an error
	}
	if err != nil {
		return nil, err
	}

	ok, needsRehash := s.hasher.Verify(password, user.PasswordHash)
	if !ok {
		return nil, nil //nolint:nilnil // wrong password is not an error
	}

	if needsRehash {
		if err := s.upgradeHash(ctx, user, password); err != nil {
			// The login itself is valid; the upgrade is retried next time.
			slog.Warn("failed to upgrade legacy password hash", "user_id", user.ID, "error", err)
		}
	}

	return user, nil
}

// ResetPassword replaces the password of an existing user. The lookup and
// update run in one transaction.
func (s *SQLiteStorage) ResetPassword(ctx context.Context, username, newPassword string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCredentials(username, newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := s.getUserByUsernameTx(ctx, tx, username)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?",
		hash, user.ID); err != nil {
		return storeError("failed to update password", err)
	}

	if err := tx.Commit(); err != nil {
		return storeError("failed to commit password reset", err)
	}
	return nil
}

// GetUserByUsername returns the named user or common.ErrUserNotFound.
func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getUserByUsernameTx(ctx, s.db, username)
}

// GetUserByID returns the user with id or common.ErrUserNotFound.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", common.ErrUserNotFound, id)
	}
	if err != nil {
		return nil, storeError("failed to get user", err)
	}
	return &user, nil
}

func (s *SQLiteStorage) getUserByUsernameTx(ctx context.Context, q queryable, username string) (*model.User, error) {
	var user model.User
	err := q.QueryRowContext(ctx,
		"SELECT id, username, password_hash FROM users WHERE username = ?", username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrUserNotFound, username)
	}
	if err != nil {
		return nil, storeError("failed to get user", err)
	}
	return &user, nil
}

func (s *SQLiteStorage) upgradeHash(ctx context.Context, user *model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", hash, user.ID); err != nil {
		return storeError("failed to store upgraded hash", err)
	}
	user.PasswordHash = hash
	return nil
}
