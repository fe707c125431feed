package service

import (
	"context"
	"errors"
	"time"

	"shortlink/internal/cache"
	"shortlink/internal/store"
)

// backgroundTimeout bounds the detached cache and analytics writes.
const backgroundTimeout = 5 * time.Second

// Resolve maps a short code to its target URL using the cache-aside
// protocol: probe the cache, fall back to the store on a miss (or on any
// cache failure, which is indistinguishable from a miss by design),
// repopulate the cache off the response path, and record the click
// out-of-band. The returned bool reports whether the cache served the hit.
func (s *Service) Resolve(ctx context.Context, code string) (string, bool, error) {
	if target, err := s.cacheGet(ctx, code); err == nil {
		s.recordClick(code)
		return target, true, nil
	}

	link, err := s.store.FindByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, ErrNotFound
	}
	if err != nil {
		return "", false, err
	}

	target := link.OriginalURL
	if s.cache != nil {
		s.spawn(func(ctx context.Context) {
			if err := s.cache.Set(ctx, code, target, s.cacheTTL); err != nil {
				s.log.Warnw("cache repopulation failed", "code", code, "error", err)
			}
		})
	}
	s.recordClick(code)
	return target, false, nil
}

// cacheGet probes the cache. Failures other than a plain miss are logged and
// then reported as a miss, so a cache outage degrades to the store instead of
// failing the lookup.
func (s *Service) cacheGet(ctx context.Context, code string) (string, error) {
	if s.cache == nil {
		return "", cache.ErrMiss
	}
	target, err := s.cache.Get(ctx, code)
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		s.log.Warnw("cache get failed, falling back to store", "code", code, "error", err)
	}
	return target, err
}

// recordClick bumps the click counter on a detached task. Failures are
// logged and never reach the caller.
func (s *Service) recordClick(code string) {
	s.spawn(func(ctx context.Context) {
		if err := s.store.IncrementClicks(ctx, code); err != nil {
			s.log.Warnw("click increment failed", "code", code, "error", err)
		}
	})
}

// spawn runs fn on a detached goroutine with its own deadline, decoupled from
// the request context: the response neither waits for fn nor sees it fail,
// and fn survives request cancellation.
func (s *Service) spawn(fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// drain blocks until all detached tasks have finished. Tests use it to make
// the fire-and-forget writes observable.
func (s *Service) drain() {
	s.bg.Wait()
}
