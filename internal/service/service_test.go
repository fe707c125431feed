package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shortlink/internal/cache"
	"shortlink/internal/model"
	"shortlink/internal/store"
)

// memoryCache is a map-backed Cache double. TTLs are ignored; tests only
// care about presence.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, code string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.entries[code]
	if !ok {
		return "", cache.ErrMiss
	}
	return target, nil
}

func (c *memoryCache) Set(_ context.Context, code, target string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = target
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// downCache simulates a total cache outage: every operation fails.
type downCache struct{}

var errCacheDown = errors.New("connection refused")

func (downCache) Get(context.Context, string) (string, error) { return "", errCacheDown }
func (downCache) Set(context.Context, string, string, time.Duration) error {
	return errCacheDown
}
func (downCache) Invalidate(context.Context, string) error { return errCacheDown }

func setupService(t *testing.T, c cache.Cache) (*Service, *store.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.ShortLink{}))
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	return New(st, c, zap.NewNop().Sugar(), time.Hour), st
}

func TestCreateDerivesCodeFromID(t *testing.T) {
	svc, _ := setupService(t, newMemoryCache())
	ctx := context.Background()

	first, err := svc.Create(ctx, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, "1", first.ShortCode)
	assert.Equal(t, "https://example.com/a", first.OriginalURL)
	assert.Zero(t, first.ClickCount)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := svc.Create(ctx, "https://example.com/b")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.ID)
	assert.Equal(t, "2", second.ShortCode)

	target, hit, err := svc.Resolve(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", target)
	assert.False(t, hit)
	svc.drain()
}

func TestCreateTrimsWhitespace(t *testing.T) {
	svc, _ := setupService(t, newMemoryCache())

	link, err := svc.Create(context.Background(), "  https://example.com  ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", link.OriginalURL)
}

func TestCreateRejectsInvalidTargets(t *testing.T) {
	svc, st := setupService(t, newMemoryCache())
	ctx := context.Background()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"empty", "", ErrEmptyURL},
		{"whitespace only", "   ", ErrEmptyURL},
		{"ftp scheme", "ftp://example.com", ErrInvalidScheme},
		{"no scheme", "example.com", ErrInvalidScheme},
		{"too long", "https://example.com/" + strings.Repeat("a", 2048), ErrURLTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.url)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}

	// Rejections happen before any store interaction.
	count, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResolveColdThenWarm(t *testing.T) {
	mem := newMemoryCache()
	svc, st := setupService(t, mem)
	ctx := context.Background()

	link, err := svc.Create(ctx, "https://example.com/path")
	require.NoError(t, err)

	// Cold: the store answers and the cache is repopulated off-path.
	target, hit, err := svc.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", target)
	assert.False(t, hit)
	svc.drain()

	cached, err := mem.Get(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", cached)

	// Warm: the cache answers.
	target, hit, err = svc.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", target)
	assert.True(t, hit)
	svc.drain()

	// Both lookups were counted, hit or miss.
	got, err := st.FindByCode(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClickCount)
}

func TestResolveUnknownCodeNeverCachesNegatives(t *testing.T) {
	mem := newMemoryCache()
	svc, _ := setupService(t, mem)

	_, _, err := svc.Resolve(context.Background(), "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	svc.drain()
	assert.Zero(t, mem.len())
}

func TestCacheOutageDegradesToStore(t *testing.T) {
	svc, st := setupService(t, downCache{})
	ctx := context.Background()

	link, err := svc.Create(ctx, "https://example.com/resilient")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		target, hit, err := svc.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/resilient", target)
		assert.False(t, hit)
	}
	svc.drain()

	got, err := st.FindByCode(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ClickCount)

	// Delete also survives the outage: invalidation failure is only logged.
	removed, err := svc.Delete(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestNilCacheIsAlwaysAMiss(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	link, err := svc.Create(ctx, "https://example.com")
	require.NoError(t, err)

	target, hit, err := svc.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)
	assert.False(t, hit)
	svc.drain()
}

func TestDeleteInvalidatesCache(t *testing.T) {
	mem := newMemoryCache()
	svc, _ := setupService(t, mem)
	ctx := context.Background()

	link, err := svc.Create(ctx, "https://example.com")
	require.NoError(t, err)

	_, _, err = svc.Resolve(ctx, link.ShortCode)
	require.NoError(t, err)
	svc.drain()
	require.Equal(t, 1, mem.len())

	removed, err := svc.Delete(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Zero(t, mem.len())

	_, _, err = svc.Resolve(ctx, link.ShortCode)
	assert.ErrorIs(t, err, ErrNotFound)
	svc.drain()

	removed, err = svc.Delete(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDuplicateTargetsGetDistinctCodes(t *testing.T) {
	svc, _ := setupService(t, newMemoryCache())
	ctx := context.Background()

	first, err := svc.Create(ctx, "https://example.com/same")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "https://example.com/same")
	require.NoError(t, err)

	assert.NotEqual(t, first.ShortCode, second.ShortCode)
}

func TestStats(t *testing.T) {
	svc, _ := setupService(t, newMemoryCache())
	ctx := context.Background()

	for _, target := range []string{"https://example.com/a", "https://example.com/b"} {
		_, err := svc.Create(ctx, target)
		require.NoError(t, err)
	}
	_, _, err := svc.Resolve(ctx, "1")
	require.NoError(t, err)
	svc.drain()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalLinks)
	assert.Equal(t, int64(1), stats.TotalClicks)
}

func TestInfo(t *testing.T) {
	svc, _ := setupService(t, newMemoryCache())
	ctx := context.Background()

	link, err := svc.Create(ctx, "https://example.com")
	require.NoError(t, err)

	info, err := svc.Info(ctx, link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, link.ID, info.ID)

	_, err = svc.Info(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
