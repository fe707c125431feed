package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"shortlink/internal/cache"
	"shortlink/internal/model"
	"shortlink/internal/shortcode"
	"shortlink/internal/store"
)

const maxURLLength = 2048

var (
	// ErrEmptyURL rejects blank submissions.
	ErrEmptyURL = errors.New("url cannot be empty")
	// ErrInvalidScheme rejects anything that is not plain http(s).
	ErrInvalidScheme = errors.New("url must start with http:// or https://")
	// ErrURLTooLong rejects oversized submissions.
	ErrURLTooLong = errors.New("url is too long (max 2048 characters)")
	// ErrNotFound is returned when a code has no mapping.
	ErrNotFound = errors.New("short link not found")
)

// IsValidationError reports whether err stems from a bad target URL rather
// than an internal failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyURL) ||
		errors.Is(err, ErrInvalidScheme) ||
		errors.Is(err, ErrURLTooLong)
}

// Service coordinates the durable store and the cache for creating and
// resolving short links. The cache may be nil or unreachable at any point;
// every code path degrades to the store.
type Service struct {
	store    *store.Store
	cache    cache.Cache
	log      *zap.SugaredLogger
	cacheTTL time.Duration

	bg sync.WaitGroup // detached cache/analytics tasks
}

// New creates a Service. A non-positive cacheTTL falls back to the default
// one-hour expiration.
func New(st *store.Store, c cache.Cache, log *zap.SugaredLogger, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}
	return &Service{store: st, cache: c, log: log, cacheTTL: cacheTTL}
}

// Create validates the target and persists a new mapping. The code is the
// base-62 rendering of the database-assigned ID, so it is only known after
// the first insert and attached with a second write.
func (s *Service) Create(ctx context.Context, rawURL string) (*model.ShortLink, error) {
	target := strings.TrimSpace(rawURL)
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	link, err := s.store.Insert(ctx, target)
	if err != nil {
		return nil, err
	}

	// If this second write fails the placeholder row stays behind with an
	// empty code. It is unreachable through lookups and harmless.
	return s.store.AssignCode(ctx, link.ID, shortcode.Encode(link.ID))
}

func validateTarget(target string) error {
	if target == "" {
		return ErrEmptyURL
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return ErrInvalidScheme
	}
	if len(target) > maxURLLength {
		return ErrURLTooLong
	}
	return nil
}

// Info returns the full record for a code.
func (s *Service) Info(ctx context.Context, code string) (*model.ShortLink, error) {
	link, err := s.store.FindByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return link, err
}

// List returns mappings newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]model.ShortLink, error) {
	return s.store.List(ctx, limit, offset)
}

// Delete removes a mapping, dropping any cached copy first so a stale entry
// cannot outlive the record. Reports whether a record was removed.
func (s *Service) Delete(ctx context.Context, code string) (bool, error) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, code); err != nil {
			s.log.Warnw("cache invalidation failed", "code", code, "error", err)
		}
	}
	return s.store.Delete(ctx, code)
}

// Stats holds aggregate counters over all mappings.
type Stats struct {
	TotalLinks  int64 `json:"total_links"`
	TotalClicks int64 `json:"total_clicks"`
}

// Stats returns aggregate counters over all mappings.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	links, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	clicks, err := s.store.SumClicks(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalLinks: links, TotalClicks: clicks}, nil
}
