package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatlog/pkg/models"
)

func TestArchiveRoundTripPerChat(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	defer a.Close()
	a.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	require.NoError(t, a.Archive(12, []models.MessageRecord{
		{MessageID: 1, Event: models.EventNew, Text: "v1"},
		{MessageID: 1, Event: models.EventEdited, Text: "v2"},
	}))
	require.NoError(t, a.Archive(123, []models.MessageRecord{{MessageID: 9, Event: models.EventNew}}))

	got, err := a.List(12, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "v1", got[0].Record.Text)
	require.Equal(t, "v2", got[1].Record.Text)
	require.Equal(t, got[0].Batch, got[1].Batch)
	require.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), got[0].ArchivedAt)

	limited, err := a.List(12, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	other, err := a.List(123, 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestArchiveEmptyIsNoop(t *testing.T) {
	a, err := Open(filepath.Join(t.TempDir(), "archive"))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Archive(1, nil))
	got, err := a.List(1, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestUpperBound(t *testing.T) {
	require.Equal(t, []byte("chat/120"), upperBound([]byte("chat/12/")))
	require.Nil(t, upperBound([]byte{0xff}))
}
