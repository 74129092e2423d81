package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChallengeCompletion is the durable record that a user (and transitively
// their class) validly solved a challenge. Rows are append-only: an
// invalidation flips Valid to false but keeps PointsEarned and SolveOrder
// intact so historical values of other completions never shift.
type ChallengeCompletion struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;index;not null" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ClassID     string     `gorm:"type:uuid;index;not null" json:"class_id"`
	Class       *Class     `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	ChallengeID string     `gorm:"type:uuid;index;not null" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`

	// SubmissionID links back to the flag submission that produced this
	// completion.
	SubmissionID string          `gorm:"type:uuid;index;not null" json:"submission_id"`
	Submission   *FlagSubmission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`

	PointsEarned int `gorm:"not null" json:"points_earned"`

	// SolveOrder is the 1-based position among all completions ever created
	// for the challenge. Assigned once, never renumbered.
	SolveOrder int `gorm:"not null" json:"solve_order"`

	// FirstForClass marks the completion that carries the class's credit.
	FirstForClass bool `gorm:"index" json:"first_for_class"`

	Valid     bool      `gorm:"default:true;index" json:"valid"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (c *ChallengeCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
