package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportReasons are the reasons offered when flagging a review.
var ReportReasons = []string{
	"Say it as it is (Truthfulness)",
	"Disrespectful or offensive language",
	"Exposes personal information",
	"Fake, fraud, scam, or spam content",
	"Other violation of community rules",
}

// Report flags a review for moderator attention. Reports go away with the
// review they point at.
type Report struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReviewID  uuid.UUID `gorm:"type:uuid;not null;index" json:"review_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Reason    string    `gorm:"not null;size:500" json:"reason"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Review    *Review   `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	User      *Profile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profiles,omitempty"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
