package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a chat has no stored session.
var ErrNotFound = errors.New("chat not found")

// Repo defines storage operations for chat sessions.
type Repo interface {
	UpsertChat(ctx context.Context, c *Chat) error
	GetChat(ctx context.Context, chatID int64) (*Chat, error)
	ListActive(ctx context.Context) ([]Chat, error)
	SetActive(ctx context.Context, chatID int64, active bool) error
	Close() error
}
