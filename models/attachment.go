package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is a downloadable file bundled with a challenge, stored in R2.
type Attachment struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string `gorm:"type:uuid;index;not null" json:"challenge_id"`
	FileName    string `gorm:"size:255;not null" json:"file_name"`
	FileSize    int64  `json:"file_size"`
	URL         string `gorm:"size:512;not null" json:"url"`

	Timestamps
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
