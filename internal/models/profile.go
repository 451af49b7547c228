package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent   = "student"
	RoleModerator = "moderator"

	anonPrefix = "anon_"
)

// Affiliations accepted as signup metadata.
var Affiliations = []string{"student", "lecturer", "staff", "alumni", "external", "other"}

// Profile is the public identity of an account. Every other user-owned row
// references it and is removed with it.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"not null;size:255;uniqueIndex" json:"email,omitempty"`
	Password    string    `gorm:"not null" json:"-"`
	Username    *string   `gorm:"size:50" json:"username"`
	AvatarURL   *string   `gorm:"size:500" json:"avatar_url"`
	Role        string    `gorm:"size:20;default:'student'" json:"role"`
	Affiliation string    `gorm:"size:20" json:"affiliation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Username == nil || *p.Username == "" {
		name := anonPrefix + p.ID.String()[:8]
		p.Username = &name
	}
	if p.Role == "" {
		p.Role = RoleStudent
	}
	return nil
}

func (p *Profile) IsModerator() bool {
	return p.Role == RoleModerator
}

func IsAffiliation(v string) bool {
	for _, a := range Affiliations {
		if a == v {
			return true
		}
	}
	return false
}
