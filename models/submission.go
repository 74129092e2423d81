package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlagSubmission records every flag attempt, correct or not. Rows are never
// deleted; an administrative invalidation flips Valid and zeroes
// PointsAwarded so the attempt history stays auditable.
type FlagSubmission struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;index;not null" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ChallengeID string     `gorm:"type:uuid;index;not null" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`

	SubmittedFlag string `gorm:"size:1024" json:"submitted_flag"`
	Correct       bool   `gorm:"index" json:"correct"`

	// PointsAwarded is 0 for incorrect or invalidated submissions.
	PointsAwarded int  `gorm:"default:0" json:"points_awarded"`
	Valid         bool `gorm:"default:true;index" json:"valid"`

	IPAddress string    `gorm:"size:45" json:"ip_address,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (s *FlagSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
