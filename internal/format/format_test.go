package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23 * time.Hour, "23 hours ago"},
		{48 * time.Hour, "2 days ago"},
		{30 * 24 * time.Hour, "1 month ago"},
		{400 * 24 * time.Hour, "1 year ago"},
		{800 * 24 * time.Hour, "2 years ago"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeAgo(now.Add(-tc.ago), now), tc.ago.String())
	}
}

func TestSentenceCase(t *testing.T) {
	assert.Equal(t, "Great lecturer. Very clear.", SentenceCase("great lecturer. very clear."))
	assert.Equal(t, "First line\nSecond line", SentenceCase("first line\nsecond line"))
	assert.Equal(t, "Already Fine", SentenceCase("Already Fine"))
	assert.Equal(t, "  Leading space", SentenceCase("  leading space"))
	assert.Equal(t, "E.G. Not ideal", SentenceCase("e.g. not ideal"))
	assert.Equal(t, "", SentenceCase(""))
}

func TestTruncate(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, Truncate(short, CompactCardLimit))
	assert.False(t, IsTruncated(short, CompactCardLimit))

	long := strings.Repeat("a", 301)
	got := Truncate(long, ReviewCardLimit)
	assert.Equal(t, strings.Repeat("a", 300)+"...", got)
	assert.True(t, IsTruncated(long, ReviewCardLimit))

	exact := strings.Repeat("b", 150)
	assert.Equal(t, exact, Truncate(exact, CompactCardLimit))

	assert.Equal(t, "héllo...", Truncate("héllo wörld", 5))
}

func TestUnwrap(t *testing.T) {
	v, ok := Unwrap([]string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = Unwrap([]string{})
	assert.False(t, ok)
}

func TestDecodeOne(t *testing.T) {
	type profile struct {
		Username string `json:"username"`
	}

	var p profile
	ok, err := DecodeOne(json.RawMessage(`{"username":"amani"}`), &p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "amani", p.Username)

	p = profile{}
	ok, err = DecodeOne(json.RawMessage(`[{"username":"keza"},{"username":"other"}]`), &p)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "keza", p.Username)

	p = profile{}
	ok, err = DecodeOne(json.RawMessage(`[]`), &p)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = DecodeOne(json.RawMessage(`null`), &p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvatar(t *testing.T) {
	assert.Equal(t, AvatarNone, Avatar(""))
	assert.Equal(t, AvatarImage, Avatar("https://cdn.example.com/a.png"))
	assert.Equal(t, AvatarEmoji, Avatar("🦊"))

	assert.Equal(t, "A", Initial("anon_ab12cd34"))
	assert.Equal(t, "K", Initial("keza"))
	assert.Equal(t, "?", Initial(""))

	name := "  "
	assert.Equal(t, "Anonymous", DisplayName(&name))
	assert.Equal(t, "Anonymous", DisplayName(nil))
}
