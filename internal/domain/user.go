package domain

import "time"

// User is a bot user identified by their Telegram account.
// A row is created lazily on the first interaction.
type User struct {
	ID         int64
	TelegramID int64
	Username   string    // may be empty, Telegram usernames are optional
	CreatedAt  time.Time // UTC
	UpdatedAt  time.Time // UTC
}

// Genre is a single favourite-genre selection owned by a user.
type Genre struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time // UTC
}
