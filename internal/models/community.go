package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is a write-once contact-form submission.
type Feedback struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Names        string    `gorm:"size:200;not null" json:"names"`
	Email        string    `gorm:"size:255;not null" json:"email"`
	Role         string    `gorm:"size:50" json:"role"`
	FeedbackType string    `gorm:"size:50" json:"feedback_type"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Feedback) TableName() string { return TableFeedback }

// Fact is a "did you know" entry.
type Fact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (f *Fact) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
