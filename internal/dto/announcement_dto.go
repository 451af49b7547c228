package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/unilak/community/internal/models"
)

type SubmitRequestRequest struct {
	Content string `json:"content"`
	Phone   string `json:"phone"`
}

// EditRequestRequest carries moderator edits; nil fields stay unchanged.
type EditRequestRequest struct {
	Content *string `json:"content"`
	Phone   *string `json:"phone"`
}

type AnnouncementView struct {
	ID            uuid.UUID `json:"id"`
	RequestID     uuid.UUID `json:"request_id"`
	Message       string    `json:"message"`
	Phone         *string   `json:"phone"`
	CreatedAt     time.Time `json:"created_at"`
	TimeAgo       string    `json:"time_ago"`
	Username      string    `json:"username"`
	AvatarURL     *string   `json:"avatar_url"`
	ResponseCount int64     `json:"response_count"`
}

type MyRequestView struct {
	models.AnnouncementRequest
	AnnouncementID       *uuid.UUID `json:"announcement_id"`
	UnseenCount          int        `json:"unseen_count"`
	HasModeratorMessages bool       `json:"has_moderator_messages"`
	CommunityReplies     int        `json:"community_replies"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}
