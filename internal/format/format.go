// Package format holds the text helpers shared by the API and the chat client.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	CompactCardLimit = 150
	ReviewCardLimit  = 300

	anonPrefix = "anon_"
)

var intervals = []struct {
	unit    string
	seconds int64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// TimeAgo renders the coarsest whole unit elapsed between t and now.
func TimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	for _, iv := range intervals {
		if n := seconds / iv.seconds; n >= 1 {
			if n > 1 {
				return fmt.Sprintf("%d %ss ago", n, iv.unit)
			}
			return fmt.Sprintf("%d %s ago", n, iv.unit)
		}
	}
	return "Just now"
}

var sentenceStart = regexp.MustCompile(`(?:^|[.\n])\s*[a-z]`)

// SentenceCase capitalizes the first lowercase letter of the text and of
// every sentence following a period or a line break.
func SentenceCase(s string) string {
	return sentenceStart.ReplaceAllStringFunc(s, strings.ToUpper)
}

// Truncate keeps the first max characters and appends an ellipsis when text
// is longer.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max < 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func IsTruncated(s string, max int) bool {
	return len([]rune(s)) > max
}

// Unwrap returns the first element of a relation that may have been
// delivered as a list.
func Unwrap[T any](items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

// DecodeOne decodes raw into dst whether raw holds a single object or a list
// of objects. An empty list or null leaves dst untouched and returns false.
func DecodeOne(raw json.RawMessage, dst any) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if raw[0] != '[' {
		return true, json.Unmarshal(raw, dst)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return false, err
	}
	first, ok := Unwrap(items)
	if !ok {
		return false, nil
	}
	return DecodeOne(first, dst)
}

type AvatarKind string

const (
	AvatarNone  AvatarKind = "none"
	AvatarImage AvatarKind = "image"
	AvatarEmoji AvatarKind = "emoji"
)

// Avatar classifies a stored avatar value: URLs are images, anything else is
// an emoji glyph.
func Avatar(value string) AvatarKind {
	switch v := strings.TrimSpace(value); {
	case v == "":
		return AvatarNone
	case strings.HasPrefix(v, "http"):
		return AvatarImage
	default:
		return AvatarEmoji
	}
}

// Initial is the letter shown when a profile has no avatar.
func Initial(username string) string {
	name := strings.TrimPrefix(username, anonPrefix)
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// DisplayName falls back to "Anonymous" for empty usernames.
func DisplayName(username *string) string {
	if username == nil || strings.TrimSpace(*username) == "" {
		return "Anonymous"
	}
	return *username
}
