package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReviewPositive = "positive"
	ReviewNegative = "negative"
)

type Topic struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null;size:100;uniqueIndex" json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	Subtopics []Subtopic `gorm:"foreignKey:TopicID" json:"subtopics,omitempty"`
}

type Subtopic struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID   *uuid.UUID `gorm:"type:uuid;index" json:"topic_id"`
	Name      string     `gorm:"not null;size:100" json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}

type Review struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TopicID        uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	SubtopicID     uuid.UUID `gorm:"type:uuid;not null" json:"subtopic_id"`
	Type           string    `gorm:"size:10;not null" json:"type"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Recommendation *string   `gorm:"type:text" json:"recommendation"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	User           *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profiles,omitempty"`
	Topic          *Topic    `gorm:"foreignKey:TopicID" json:"topics,omitempty"`
	Subtopic       *Subtopic `gorm:"foreignKey:SubtopicID" json:"subtopics,omitempty"`
}

func IsReviewType(t string) bool {
	return t == ReviewPositive || t == ReviewNegative
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (s *Subtopic) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
