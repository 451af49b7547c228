// Package thread merges persisted chat messages with locally pending ones
// and drives the open, send and mark-seen cycle of a conversation.
package thread

import (
	"sort"
	"strings"
	"time"
)

const (
	TempIDPrefix = "temp-"
	SystemUserID = "system"

	GreetingText   = "This is announcement, reply if you know the answer, interested or needs more information"
	SendFailedText = "Failed to submit response. Please try again."
)

type Author struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role,omitempty"`
}

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"profiles,omitempty"`
	Pending   bool      `json:"pending,omitempty"`
	System    bool      `json:"system,omitempty"`
}

func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Greeting is the synthetic first message of an announcement thread. It is
// never persisted.
func Greeting(announcementID string, announcedAt time.Time) Message {
	return Message{
		ID:        announcementID + "-system",
		Content:   GreetingText,
		UserID:    SystemUserID,
		Seen:      true,
		CreatedAt: announcedAt.Add(time.Second),
		System:    true,
	}
}

// UnseenBy lists messages written by someone other than viewer that viewer
// has not seen yet.
func UnseenBy(msgs []Message, viewer string) []string {
	var ids []string
	for _, m := range msgs {
		if m.System || m.Pending {
			continue
		}
		if m.UserID != viewer && !m.Seen {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Merge builds the rendered thread: persisted then pending messages ordered
// by creation time, ties kept in that order. The greeting shows only while
// the thread is otherwise empty.
func Merge(persisted, pending []Message, greeting *Message) []Message {
	if len(persisted) == 0 && len(pending) == 0 {
		if greeting == nil {
			return []Message{}
		}
		return []Message{*greeting}
	}
	out := make([]Message, 0, len(persisted)+len(pending))
	out = append(out, persisted...)
	out = append(out, pending...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
