package store

import (
	"context"
	"errors"

	"github.com/MarianRoshchupkin/GigaMovie/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for users and their genre selections.
// All user/genre lifecycle goes through here; no other component touches
// the tables.
type Repo interface {
	// GetOrCreateUser returns the user with the given Telegram id,
	// creating the row on first contact.
	GetOrCreateUser(ctx context.Context, telegramID int64, username string) (*domain.User, error)

	// ReplaceGenres removes all of the user's genres and records labels
	// in their place, in one transaction. A nil labels slice clears.
	ReplaceGenres(ctx context.Context, userID int64, labels []string) error

	// AddGenreIfAbsent records label for the user unless already present.
	// Returns false when the pair already existed.
	AddGenreIfAbsent(ctx context.Context, userID int64, label string) (bool, error)

	// ListGenres returns the user's labels in insertion order.
	ListGenres(ctx context.Context, userID int64) ([]string, error)

	// DeleteUser removes the user row; genre rows cascade with it.
	DeleteUser(ctx context.Context, telegramID int64) error

	Close() error
}
