package store

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatlog/pkg/models"
)

type recordingArchive struct {
	chatID  int64
	records []models.MessageRecord
	err     error
}

func (a *recordingArchive) Archive(chatID int64, records []models.MessageRecord) error {
	if a.err != nil {
		return a.err
	}
	a.chatID = chatID
	a.records = append(a.records, records...)
	return nil
}

func TestPruneWithoutLimitsIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	appendAll(t, s, 1, msg(1, 100, "a"), edited(1, 101, "b"))

	res, err := s.Prune(1, 0, 0)
	require.NoError(t, err)
	require.False(t, res.Rewritten)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	require.Len(t, read.Records, 2)
}

func TestPruneMaxCountIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	for i := int64(1); i <= 6; i++ {
		appendAll(t, s, 1, msg(i, 100+i, "m"))
	}
	appendAll(t, s, 1, edited(2, 102, "m2"))

	res, err := s.Prune(1, 4, 0)
	require.NoError(t, err)
	require.True(t, res.Rewritten)
	require.Equal(t, 7, res.Raw)
	require.Equal(t, 4, res.Retained)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4, 5, 6}, ids(read.Records))

	before, err := os.Stat(s.logPath(1))
	require.NoError(t, err)

	again, err := s.Prune(1, 4, 0)
	require.NoError(t, err)
	require.False(t, again.Rewritten)
	require.Equal(t, again.Raw, again.Retained)

	after, err := os.Stat(s.logPath(1))
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
	require.True(t, os.SameFile(before, after))
}

func TestPruneKeepsMinOfLimitAndCanonicalCount(t *testing.T) {
	s, _ := newTestStore(t)
	appendAll(t, s, 1, msg(1, 100, "a"), msg(2, 101, "b"), edited(2, 102, "b2"))

	res, err := s.Prune(1, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, res.Retained)
	require.True(t, res.Rewritten, "superseded edit should still be dropped")

	msgs, err := s.LoadMessages(1, LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, "b2", msgs[1].Text)
}

func TestPruneMaxAgeDays(t *testing.T) {
	s, clock := newTestStore(t)
	now := clock.Now().Unix()
	day := int64(24 * time.Hour / time.Second)
	appendAll(t, s, 1,
		msg(1, now-10*day, "old"),
		msg(2, now-3*day, "recent"),
		msg(3, now, "today"),
	)

	res, err := s.Prune(1, 0, 5)
	require.NoError(t, err)
	require.Equal(t, 2, res.Retained)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, ids(read.Records))
}

func TestPruneSyncsMessageCount(t *testing.T) {
	s, _ := newTestStore(t)
	name := "Ada"
	for i := int64(1); i <= 5; i++ {
		appendAll(t, s, 1, msg(i, 100+i, "m"))
		_, err := s.UpdateMeta(1, models.MetaPartial{FirstName: &name}, true)
		require.NoError(t, err)
	}

	_, err := s.Prune(1, 2, 0)
	require.NoError(t, err)

	meta, err := s.GetMeta(1)
	require.NoError(t, err)
	require.Equal(t, int64(2), meta.MessageCount)
	require.Equal(t, "Ada", meta.FirstName)
}

func TestPruneWithoutMetaDoesNotCreateIt(t *testing.T) {
	s, _ := newTestStore(t)
	appendAll(t, s, 1, msg(1, 100, "a"), msg(2, 101, "b"))
	_, err := s.Prune(1, 1, 0)
	require.NoError(t, err)

	_, err = s.GetMeta(1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPruneArchivesDroppedRecords(t *testing.T) {
	s, _ := newTestStore(t)
	arc := &recordingArchive{}
	s.archive = arc

	appendAll(t, s, 4, msg(1, 100, "a"), edited(1, 101, "a2"), msg(2, 102, "b"))
	require.NoError(t, s.AppendDeletionMarker(4, []int64{2}, "bc-1"))

	res, err := s.Prune(4, 5, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Retained)
	require.Equal(t, 3, res.Archived)
	require.Equal(t, int64(4), arc.chatID)
	require.Len(t, arc.records, 3)
	require.Equal(t, "a", arc.records[0].Text)
}

func TestPruneArchiveFailureLeavesLog(t *testing.T) {
	s, _ := newTestStore(t)
	s.archive = &recordingArchive{err: errors.New("disk full")}
	appendAll(t, s, 1, msg(1, 100, "a"), msg(2, 101, "b"))

	_, err := s.Prune(1, 1, 0)
	require.Error(t, err)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	require.Len(t, read.Records, 2)
}

func TestPlanPruneDoesNotWrite(t *testing.T) {
	s, _ := newTestStore(t)
	appendAll(t, s, 1, msg(1, 100, "a"), msg(2, 101, "b"), msg(3, 102, "c"))

	res, err := s.PlanPrune(1, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Retained)
	require.False(t, res.Rewritten)

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	require.Len(t, read.Records, 3)
}
