package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested link does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlugTaken is returned when an insert loses the uniqueness race on
	// links.slug. Callers decide whether that means "retry with a fresh
	// random slug" or "alias taken".
	ErrSlugTaken = errors.New("slug is already taken")
)

// LinkStoreIface exposes all link data operations. No handler or service
// queries the database directly; all access goes through this interface.
//
// Create is the uniqueness primitive: a single atomic insert that fails with
// ErrSlugTaken when another writer already holds the slug. A check-then-insert
// pair is not an acceptable implementation.
type LinkStoreIface interface {
	Create(ctx context.Context, slug, targetURL, deleteToken string, expiresAt time.Time) (*Link, error)
	GetBySlug(ctx context.Context, slug string) (*Link, error)
	DeleteBySlugAndToken(ctx context.Context, slug, deleteToken string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountLinks(ctx context.Context) (int64, error)
}
