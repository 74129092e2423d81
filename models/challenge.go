package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScoringMode string

const (
	ModeFixed      ScoringMode = "fixed"      // flat points for every solver
	ModeDecreasing ScoringMode = "decreasing" // points decay per solve order
	ModeExclusive  ScoringMode = "exclusive"  // only one class may ever claim it
	ModeUnlocking  ScoringMode = "unlocking"  // gated behind prerequisite solves
)

type Challenge struct {
	ID               string      `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string      `gorm:"size:100;not null" json:"name"`
	Slug             string      `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	ShortDescription string      `gorm:"size:500" json:"short_description"`
	Flag             string      `gorm:"size:1024;not null" json:"-"`
	Points           int         `gorm:"not null" json:"points"`
	Mode             ScoringMode `gorm:"type:varchar(16);not null;default:'fixed'" json:"mode"`

	// DecayPercent applies only to decreasing mode, range [0,100).
	DecayPercent int `gorm:"default:0" json:"decay_percent,omitempty"`

	// Prerequisites applies only to unlocking mode.
	Prerequisites []Challenge `gorm:"many2many:challenge_prerequisites" json:"prerequisites,omitempty"`

	// Locked is meaningful only for exclusive mode: true iff a valid
	// completion currently holds the claim.
	Locked bool `gorm:"default:false" json:"locked"`

	// SolveCount counts completions ever created, including later
	// invalidated ones. It is the order counter for decreasing mode and is
	// never decremented.
	SolveCount int `gorm:"default:0" json:"solve_count"`

	Released  bool       `gorm:"default:false" json:"released"`
	ReleaseAt *time.Time `json:"release_at,omitempty"`

	CategoryID *string   `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Attachments []Attachment `gorm:"foreignKey:ChallengeID" json:"attachments,omitempty"`

	Timestamps
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Category struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:200" json:"description"`
	SortOrder   int    `gorm:"default:0" json:"sort_order"`

	Timestamps
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
