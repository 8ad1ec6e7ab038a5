package shortener

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/wisplink/wisp/internal/store"
)

const (
	// DefaultTTL is how long a link lives after creation.
	DefaultTTL = 7 * 24 * time.Hour

	// maxAllocationAttempts bounds the random-slug retry loop.
	maxAllocationAttempts = 5

	// maxCacheTTL caps how long a resolved target may live in the cache,
	// which also bounds how long a deleted link can keep resolving from it.
	maxCacheTTL = time.Hour
)

// ResolveCache is an optional read-through cache for the resolve hot path.
// All methods are best-effort; implementations must not fail a resolve.
type ResolveCache interface {
	GetTarget(ctx context.Context, slug string) (string, bool)
	SetTarget(ctx context.Context, slug, target string, ttl time.Duration)
	DeleteTarget(ctx context.Context, slug string)
}

// Service orchestrates slug allocation, resolution, capability deletion, and
// expiry sweeping over the link store.
type Service struct {
	store      store.LinkStoreIface
	cache      ResolveCache // nil disables caching
	classifier *Classifier
	ttl        time.Duration
	slugLength int
	timeout    time.Duration

	// Injectable for tests.
	nowFunc func() time.Time
	genSlug func(int) (string, error)
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	Cache      ResolveCache
	TTL        time.Duration
	SlugLength int
	// StoreTimeout bounds every repository call.
	StoreTimeout time.Duration
}

func NewService(st store.LinkStoreIface, classifier *Classifier, opts Options) *Service {
	s := &Service{
		store:      st,
		cache:      opts.Cache,
		classifier: classifier,
		ttl:        opts.TTL,
		slugLength: opts.SlugLength,
		timeout:    opts.StoreTimeout,
		nowFunc:    time.Now,
		genSlug:    GenerateSlug,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.slugLength == 0 {
		s.slugLength = DefaultSlugLength
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	return s
}

// storeCtx bounds a repository call so no request blocks indefinitely on
// storage. Deadline errors surface to callers as retriable.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// CreateLink validates and classifies targetURL, reserves a slug (the given
// custom alias, or a random code), and persists the complete record. Exactly
// one durable write happens on success and none on any failure path.
func (s *Service) CreateLink(ctx context.Context, targetURL, customAlias string) (*store.Link, error) {
	normalized, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	if c := s.classifier.Classify(normalized); !c.Allowed {
		return nil, &PolicyError{Category: c.Category, Reason: c.Reason}
	}

	if customAlias != "" {
		if err := store.ValidateAlias(customAlias); err != nil {
			return nil, err
		}
	}

	token, err := GenerateDeleteToken(DefaultTokenBytes)
	if err != nil {
		return nil, err
	}
	expiresAt := s.nowFunc().Add(s.ttl)

	if customAlias != "" {
		sctx, cancel := s.storeCtx(ctx)
		defer cancel()
		link, err := s.store.Create(sctx, customAlias, normalized, token, expiresAt)
		if errors.Is(err, store.ErrSlugTaken) {
			return nil, ErrAliasTaken
		}
		if err != nil {
			return nil, err
		}
		return link, nil
	}

	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		slug, err := s.genSlug(s.slugLength)
		if err != nil {
			return nil, err
		}

		sctx, cancel := s.storeCtx(ctx)
		link, err := s.store.Create(sctx, slug, normalized, token, expiresAt)
		cancel()
		if errors.Is(err, store.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return link, nil
	}
	return nil, ErrAllocationExhausted
}

// Resolve returns the target URL for a live slug. Absent slugs return
// ErrNotFound, expired ones ErrExpired; the record itself is never mutated or
// deleted here.
func (s *Service) Resolve(ctx context.Context, slug string) (string, error) {
	if err := store.ValidateSlugLookup(slug); err != nil {
		return "", ErrNotFound
	}

	if s.cache != nil {
		if target, ok := s.cache.GetTarget(ctx, slug); ok {
			return target, nil
		}
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	link, err := s.store.GetBySlug(sctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	remaining := link.ExpiresAt.Sub(s.nowFunc())
	if remaining <= 0 {
		return "", ErrExpired
	}

	if s.cache != nil {
		ttl := remaining
		if ttl > maxCacheTTL {
			ttl = maxCacheTTL
		}
		s.cache.SetTarget(ctx, slug, link.TargetURL, ttl)
	}
	return link.TargetURL, nil
}

// Delete removes a link when both slug and management token match exactly.
// Any mismatch returns the same ErrNotFound, so a guesser holding a wrong
// token cannot learn whether the slug exists.
func (s *Service) Delete(ctx context.Context, slug, token string) error {
	if err := store.ValidateSlugLookup(slug); err != nil {
		return ErrNotFound
	}
	if token == "" {
		return ErrNotFound
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	n, err := s.store.DeleteBySlugAndToken(sctx, slug, token)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if s.cache != nil {
		s.cache.DeleteTarget(ctx, slug)
	}
	return nil
}

// AliasAvailable reports whether alias is syntactically valid and unclaimed.
// The answer is advisory: only the atomic insert at create time is
// authoritative under concurrency.
func (s *Service) AliasAvailable(ctx context.Context, alias string) (bool, error) {
	if err := store.ValidateAlias(alias); err != nil {
		return false, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	_, err := s.store.GetBySlug(sctx, alias)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// SweepExpired bulk-deletes every record past its expiry and returns the
// count. Safe to run concurrently with reads and creates, and idempotent:
// a second run with nothing newly expired deletes zero rows.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.DeleteExpired(sctx, s.nowFunc())
}

// RunSweeper sweeps on the given interval until ctx is cancelled. Intended to
// be started as a goroutine next to the HTTP server.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(deleted int64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.SweepExpired(ctx)
			if err != nil {
				log.Printf("sweep error: %v", err)
				continue
			}
			if onSweep != nil {
				onSweep(deleted)
			}
		}
	}
}
