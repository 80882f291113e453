package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/MarianRoshchupkin/GigaMovie/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and the
// genre cascade (foreign_keys is off by default in SQLite).
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Reset drops the application tables and re-runs migrations.
// Used by the resetdb operator command only.
func (r *SQLiteRepo) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		"DROP TABLE IF EXISTS genres;",
		"DROP TABLE IF EXISTS users;",
	} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}
	return RunMigrations(ctx, r.db)
}

// GetOrCreateUser looks the user up by Telegram id and inserts the row if
// absent. A changed Telegram username is written back to the existing row.
func (r *SQLiteRepo) GetOrCreateUser(ctx context.Context, telegramID int64, username string) (*domain.User, error) {
	u, err := r.getByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		if u.Username != username {
			now := time.Now().UTC()
			if _, err := r.db.ExecContext(ctx, `
				UPDATE users SET username = ?, updated_at = ? WHERE id = ?`,
				toNullString(username), now.Unix(), u.ID,
			); err != nil {
				return nil, fmt.Errorf("update username: %w", err)
			}
			u.Username = username
			u.UpdatedAt = now
		}
		return u, nil

	case errors.Is(err, ErrNotFound):
		now := time.Now().UTC()
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO users (telegram_id, username, created_at, updated_at)
			VALUES (?, ?, ?, ?)`,
			telegramID, toNullString(username), now.Unix(), now.Unix(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return &domain.User{
			ID:         id,
			TelegramID: telegramID,
			Username:   username,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, nil

	default:
		return nil, err
	}
}

func (r *SQLiteRepo) getByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, username, created_at, updated_at
		FROM users
		WHERE telegram_id = ?`,
		telegramID,
	)

	var (
		id        int64
		tgID      int64
		username  sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&id, &tgID, &username, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return &domain.User{
		ID:         id,
		TelegramID: tgID,
		Username:   username.String,
		CreatedAt:  time.Unix(createdAt, 0).UTC(),
		UpdatedAt:  time.Unix(updatedAt, 0).UTC(),
	}, nil
}

// ReplaceGenres deletes all of the user's genre rows and inserts one row
// per label, in a single transaction.
func (r *SQLiteRepo) ReplaceGenres(ctx context.Context, userID int64, labels []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete genres: %w", err)
	}
	now := time.Now().UTC().Unix()
	for _, label := range labels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO genres (genre_name, user_id, created_at)
			VALUES (?, ?, ?)`,
			label, userID, now,
		); err != nil {
			return fmt.Errorf("insert genre %q: %w", label, err)
		}
	}
	return tx.Commit()
}

// AddGenreIfAbsent records the (user, label) pair unless it already exists.
// The existence check and insert share one transaction.
func (r *SQLiteRepo) AddGenreIfAbsent(ctx context.Context, userID int64, label string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM genres
		WHERE user_id = ? AND genre_name = ?
		LIMIT 1`,
		userID, label,
	).Scan(&one)
	switch {
	case err == nil:
		return false, tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
		// fall through to insert
	default:
		return false, fmt.Errorf("check genre: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO genres (genre_name, user_id, created_at)
		VALUES (?, ?, ?)`,
		label, userID, time.Now().UTC().Unix(),
	); err != nil {
		return false, fmt.Errorf("insert genre: %w", err)
	}
	return true, tx.Commit()
}

// ListGenres returns the user's genre labels in insertion order.
func (r *SQLiteRepo) ListGenres(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT genre_name FROM genres
		WHERE user_id = ?
		ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select genres: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// DeleteUser removes the user row by Telegram id; genres cascade via the FK.
func (r *SQLiteRepo) DeleteUser(ctx context.Context, telegramID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
