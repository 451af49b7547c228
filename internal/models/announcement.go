package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// AnnouncementRequest is a user-submitted announcement awaiting moderation.
// Status only moves out of pending, never back.
type AnnouncementRequest struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID              `gorm:"type:uuid;not null;index" json:"user_id"`
	Content   string                 `gorm:"type:text;not null" json:"content"`
	Phone     *string                `gorm:"size:30" json:"phone"`
	Status    string                 `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt time.Time              `gorm:"index" json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	User      *Profile               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profiles,omitempty"`
	Responses []AnnouncementResponse `gorm:"foreignKey:RequestID" json:"announcement_responses,omitempty"`
}

// Announcement is the public artifact of an approved request.
type Announcement struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex" json:"request_id"`
	Message   string                 `gorm:"type:text;not null" json:"message"`
	Phone     *string                `gorm:"size:30" json:"phone"`
	CreatedAt time.Time              `gorm:"index" json:"created_at"`
	Request   *AnnouncementRequest   `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"announcement_requests,omitempty"`
	Responses []AnnouncementResponse `gorm:"foreignKey:AnnouncementID" json:"announcement_responses,omitempty"`
}

// AnnouncementResponse is one chat message. It belongs to exactly one of a
// request thread or an announcement thread.
type AnnouncementResponse struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID      *uuid.UUID           `gorm:"type:uuid;index" json:"request_id"`
	AnnouncementID *uuid.UUID           `gorm:"type:uuid;index" json:"announcement_id"`
	UserID         *uuid.UUID           `gorm:"type:uuid;index" json:"user_id"`
	Content        string               `gorm:"type:text;not null" json:"content"`
	Seen           bool                 `gorm:"not null;default:false" json:"seen"`
	CreatedAt      time.Time            `gorm:"index" json:"created_at"`
	Request        *AnnouncementRequest `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"-"`
	Announcement   *Announcement        `gorm:"foreignKey:AnnouncementID;constraint:OnDelete:CASCADE" json:"-"`
	User           *Profile             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profiles,omitempty"`
}

func (r *AnnouncementRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (r *AnnouncementResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
