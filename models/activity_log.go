package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityFlagCorrect          ActivityType = "flag_correct"
	ActivityFlagIncorrect        ActivityType = "flag_incorrect"
	ActivityChallengeCompleted   ActivityType = "challenge_completed"
	ActivityChallengeReleased    ActivityType = "challenge_released"
	ActivityInvalidateSubmission ActivityType = "invalidate_submission"
	ActivityInvalidateCompletion ActivityType = "invalidate_completion"
)

// ActivityLog is the append-only audit trail. Entries are written in the
// same transaction as the action they record and are never updated or
// deleted afterwards.
type ActivityLog struct {
	ID      string       `gorm:"primaryKey;type:uuid" json:"id"`
	ActorID string       `gorm:"type:uuid;index" json:"actor_id"`
	Type    ActivityType `gorm:"type:varchar(32);index;not null" json:"type"`

	// Target identifiers; empty when not applicable.
	ChallengeID  string `gorm:"type:uuid;index" json:"challenge_id,omitempty"`
	SubmissionID string `gorm:"type:uuid" json:"submission_id,omitempty"`
	CompletionID string `gorm:"type:uuid" json:"completion_id,omitempty"`
	ClassID      string `gorm:"type:uuid" json:"class_id,omitempty"`

	// PointsDelta is positive for awards, negative for invalidations.
	PointsDelta int `gorm:"default:0" json:"points_delta"`

	IPAddress string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string         `gorm:"size:512" json:"user_agent,omitempty"`
	Details   datatypes.JSON `json:"details,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
