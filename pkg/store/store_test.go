package store

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlog/pkg/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s, err := New(Config{BaseDir: t.TempDir(), Now: clock.Now})
	require.NoError(t, err)
	return s, clock
}

func msg(id, date int64, text string) models.MessageRecord {
	return models.MessageRecord{
		MessageID:            id,
		Date:                 date,
		FromID:               42,
		FromFirstName:        "Ada",
		Text:                 text,
		Direction:            models.DirectionIncoming,
		BusinessConnectionID: "bc-1",
		Event:                models.EventNew,
	}
}

func edited(id, date int64, text string) models.MessageRecord {
	m := msg(id, date, text)
	m.Event = models.EventEdited
	return m
}

func appendAll(t *testing.T, s *Store, chatID int64, recs ...models.MessageRecord) {
	t.Helper()
	for _, r := range recs {
		require.NoError(t, s.Append(chatID, r))
	}
}

func writeRaw(t *testing.T, s *Store, chatID int64, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(s.chatDir(chatID), 0o700))
	require.NoError(t, os.WriteFile(s.logPath(chatID), []byte(content), 0o600))
}

func TestNewRejectsBadAccount(t *testing.T) {
	_, err := New(Config{BaseDir: t.TempDir(), Account: "../escape"})
	require.Error(t, err)
}

func TestParseChatID(t *testing.T) {
	id, err := ParseChatID("-100123")
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id)

	_, err = ParseChatID("abc")
	assert.ErrorIs(t, err, ErrInvalidChatID)
}
