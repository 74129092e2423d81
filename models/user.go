package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:255;not null" json:"-"`
	IsStaff  bool   `gorm:"default:false" json:"is_staff"`

	ClassID string `gorm:"type:uuid;index;not null" json:"class_id"`
	Class   *Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`

	// Points mirrors the sum of the user's valid completions and is updated
	// in the same transaction that creates or invalidates them.
	Points int64 `gorm:"default:0" json:"points"`

	// LastSubmissionAt backs the flag submission cooldown.
	LastSubmissionAt *time.Time `json:"last_submission_at,omitempty"`

	Timestamps
}

// BeforeSave hashes the password on create and whenever it changes.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.ID == "" || tx.Statement.Changed("Password") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashed)
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
