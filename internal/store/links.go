package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Link represents a row in the links table. Rows are immutable once written:
// there is no update path, only creation and deletion.
type Link struct {
	Slug        string    `db:"slug"`
	TargetURL   string    `db:"target_url"`
	DeleteToken string    `db:"delete_token"`
	CreatedAt   time.Time `db:"created_at"`
	ExpiresAt   time.Time `db:"expires_at"`
}

// LinkStore is the sqlx-backed implementation of LinkStoreIface.
type LinkStore struct {
	db *sqlx.DB
}

func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

// q rebinds ? placeholders to the driver's native format ($1,$2,... for PostgreSQL).
func (s *LinkStore) q(query string) string { return s.db.Rebind(query) }

// Create inserts a new link. The primary key on links.slug makes this the
// atomic insert-if-absent primitive: a lost race surfaces as ErrSlugTaken.
func (s *LinkStore) Create(ctx context.Context, slug, targetURL, deleteToken string, expiresAt time.Time) (*Link, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO links (slug, target_url, delete_token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`), slug, targetURL, deleteToken, now, expiresAt.UTC())
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	return &Link{
		Slug:        slug,
		TargetURL:   targetURL,
		DeleteToken: deleteToken,
		CreatedAt:   now,
		ExpiresAt:   expiresAt.UTC(),
	}, nil
}

// GetBySlug returns the link matching slug, or ErrNotFound. Expired rows are
// returned as-is; expiry is a read-path decision made by the caller.
func (s *LinkStore) GetBySlug(ctx context.Context, slug string) (*Link, error) {
	var l Link
	err := s.db.GetContext(ctx, &l, s.q(`SELECT * FROM links WHERE slug = ?`), slug)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteBySlugAndToken deletes the link only when both slug and delete token
// match exactly, and reports the number of rows removed (0 or 1). The caller
// must not distinguish "wrong token" from "no such slug".
func (s *LinkStore) DeleteBySlugAndToken(ctx context.Context, slug, deleteToken string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM links WHERE slug = ? AND delete_token = ?
	`), slug, deleteToken)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes every row whose expiry is strictly before now and
// returns the count. Deleting zero rows is a normal outcome.
func (s *LinkStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM links WHERE expires_at < ?`), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountLinks returns the total number of stored links, expired rows included.
func (s *LinkStore) CountLinks(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM links`); err != nil {
		return 0, err
	}
	return n, nil
}

// isUniqueConstraintError detects a uniqueness violation across the supported
// drivers without importing driver-specific error types.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
