package models

import (
	"time"
)

// HuntConfig is a singleton-style row holding the competition window.
// When no row exists the hunt is considered enabled, so a missing config
// can never lock everyone out.
type HuntConfig struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	Enabled bool `gorm:"default:true" json:"enabled"`

	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ActiveAt reports whether submissions are open at the given instant.
func (c *HuntConfig) ActiveAt(now time.Time) bool {
	if c == nil {
		return true
	}
	if !c.Enabled {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}
