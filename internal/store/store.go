package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"shortlink/internal/model"
)

// ErrNotFound is returned when no mapping matches the given code or id.
var ErrNotFound = errors.New("short link not found")

// Store is the authoritative repository for short link mappings. The
// database owns ID assignment, so concurrent inserts never collide.
type Store struct {
	db *gorm.DB
}

// New creates a Store on top of an open GORM connection pool.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Insert creates a placeholder record with an empty code and returns it with
// the database-assigned ID. The code is attached afterwards via AssignCode,
// since it is derived from the ID.
func (s *Store) Insert(ctx context.Context, target string) (*model.ShortLink, error) {
	link := model.ShortLink{OriginalURL: target}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, fmt.Errorf("insert short link: %w", err)
	}
	return &link, nil
}

// AssignCode fills in the code of a placeholder record and returns the final
// record. Returns ErrNotFound if the id does not exist.
func (s *Store) AssignCode(ctx context.Context, id uint64, code string) (*model.ShortLink, error) {
	res := s.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("id = ?", id).
		Update("short_code", code)
	if res.Error != nil {
		return nil, fmt.Errorf("assign code %q: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// FindByCode looks a mapping up by its short code.
func (s *Store) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by code %q: %w", code, err)
	}
	return &link, nil
}

// FindByID looks a mapping up by its numeric ID.
func (s *Store) FindByID(ctx context.Context, id uint64) (*model.ShortLink, error) {
	var link model.ShortLink
	err := s.db.WithContext(ctx).First(&link, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by id %d: %w", id, err)
	}
	return &link, nil
}

// List returns mappings newest first. The ID tiebreak keeps the order stable
// for records created within the same timestamp granularity.
func (s *Store) List(ctx context.Context, limit, offset int) ([]model.ShortLink, error) {
	var links []model.ShortLink
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("list short links: %w", err)
	}
	return links, nil
}

// IncrementClicks bumps the click counter for a code. A code with no matching
// record is a silent no-op, not an error: this sits on the fire-and-forget
// analytics path and must never make a caller fail or retry.
func (s *Store) IncrementClicks(ctx context.Context, code string) error {
	err := s.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("short_code = ?", code).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
	if err != nil {
		return fmt.Errorf("increment clicks for %q: %w", code, err)
	}
	return nil
}

// Delete removes a mapping and reports whether a record was removed.
func (s *Store) Delete(ctx context.Context, code string) (bool, error) {
	res := s.db.WithContext(ctx).Where("short_code = ?", code).Delete(&model.ShortLink{})
	if res.Error != nil {
		return false, fmt.Errorf("delete %q: %w", code, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Count returns the total number of mappings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.ShortLink{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count short links: %w", err)
	}
	return total, nil
}

// SumClicks returns the total click count across all mappings.
func (s *Store) SumClicks(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Select("COALESCE(SUM(click_count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum clicks: %w", err)
	}
	return total, nil
}
