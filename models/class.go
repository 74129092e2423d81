package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Class is the scoring unit of the competition: a graduation-year team that
// all of its members' solves roll up into. Points holds the class's counted
// total and is only ever mutated inside the same transaction as the
// completion that changes it.
type Class struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	Year   string `gorm:"size:20;uniqueIndex;not null" json:"year"`
	Points int64  `gorm:"default:0" json:"points"`

	Members []User `gorm:"foreignKey:ClassID" json:"members,omitempty"`

	Timestamps
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
