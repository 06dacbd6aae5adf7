package store

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chatlog/pkg/models"
)

func TestAppendCreatesLogAndStampsStoredAt(t *testing.T) {
	s, clock := newTestStore(t)

	require.NoError(t, s.Append(7, msg(1, 100, "hello")))
	require.NoError(t, s.Append(7, msg(2, 101, "<b>world</b>")))

	b, err := os.ReadFile(s.logPath(7))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "<b>world</b>")

	read, err := s.ReadAll(7)
	require.NoError(t, err)
	require.Len(t, read.Records, 2)
	require.Equal(t, clock.Now().UnixMilli(), read.Records[0].StoredAt)
	require.Equal(t, int64(1), read.Records[0].MessageID)
	require.Equal(t, int64(2), read.Records[1].MessageID)
}

func TestAppendRejectsUnknownEvent(t *testing.T) {
	s, _ := newTestStore(t)
	rec := msg(1, 100, "x")
	rec.Event = "reaction"
	require.Error(t, s.Append(1, rec))

	_, err := os.Stat(s.logPath(1))
	require.True(t, os.IsNotExist(err))
}

func TestAppendDeletionMarker(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.AppendDeletionMarker(3, []int64{5, 6}, "bc-9"))

	read, err := s.ReadAll(3)
	require.NoError(t, err)
	require.Len(t, read.Records, 1)
	m := read.Records[0]
	require.Equal(t, models.DeletionMarkerID, m.MessageID)
	require.Equal(t, models.EventDeleted, m.Event)
	require.Equal(t, []int64{5, 6}, m.DeletedMessageIDs)
	require.Equal(t, "bc-9", m.BusinessConnectionID)
	require.Equal(t, clock.Now().Unix(), m.Date)
}

func TestAppendDeletionMarkerWithoutIDsIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.AppendDeletionMarker(3, nil, "bc-9"))
	_, err := os.Stat(s.logPath(3))
	require.True(t, os.IsNotExist(err))
}

func TestAppendAfterTornLineKeepsNewRecord(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Append(3, msg(1, 100, "first")))

	f, err := os.OpenFile(s.logPath(3), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"messageId":2,"date":101,"ev`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(3, msg(3, 102, "third")))

	read, err := s.ReadAll(3)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, ids(read.Records))
	require.Equal(t, 1, read.Skipped)

	b, err := os.ReadFile(s.logPath(3))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(b), "\n"))
}
