package model

import (
	"time"
)

// ShortLink is a single code→URL mapping. A record is inserted with an empty
// ShortCode, which is filled in once the database-assigned ID is known; after
// that only ClickCount ever changes.
type ShortLink struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ShortCode   string    `gorm:"size:20;index;not null;default:''" json:"short_code"`
	OriginalURL string    `gorm:"type:text;not null" json:"original_url"`
	ClickCount  int64     `gorm:"not null;default:0" json:"click_count"`
	CreatedAt   time.Time `gorm:"index:idx_short_links_created_at,sort:desc" json:"created_at"`
}

// TableName fixes the table name.
func (ShortLink) TableName() string {
	return "short_links"
}
