package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatlog/pkg/models"
)

func ids(recs []models.MessageRecord) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.MessageID
	}
	return out
}

func TestEditThenDeleteLeavesEmptyView(t *testing.T) {
	s, _ := newTestStore(t)
	appendAll(t, s, 1, msg(1, 100, "v1"), edited(1, 101, "v2"))
	require.NoError(t, s.AppendDeletionMarker(1, []int64{1}, "bc-1"))

	read, err := s.ReadAll(1)
	require.NoError(t, err)
	require.Empty(t, Compact(read.Records))
}

func TestCompactLastWriteWins(t *testing.T) {
	view := Compact([]models.MessageRecord{
		msg(1, 100, "v1"),
		msg(2, 100, "other"),
		edited(1, 100, "v2"),
		edited(1, 100, "v3"),
	})
	require.Equal(t, []int64{1, 2}, ids(view))
	require.Equal(t, "v3", view[0].Text)
}

func TestCompactOrdersByDateThenID(t *testing.T) {
	view := Compact([]models.MessageRecord{
		msg(9, 300, "late"),
		msg(5, 100, "early-b"),
		msg(3, 100, "early-a"),
		msg(7, 200, "mid"),
	})
	require.Equal(t, []int64{3, 5, 7, 9}, ids(view))
}

func TestCompactDeletionAppliesRegardlessOfEdits(t *testing.T) {
	marker := models.MessageRecord{Event: models.EventDeleted, DeletedMessageIDs: []int64{2, 4}}
	view := Compact([]models.MessageRecord{
		msg(2, 100, "a"),
		edited(2, 101, "b"),
		edited(2, 102, "c"),
		msg(3, 103, "keep"),
		marker,
		msg(4, 104, "after marker"),
	})
	require.Equal(t, []int64{3}, ids(view))
}

func TestCompactAtMostOneRecordPerID(t *testing.T) {
	var recs []models.MessageRecord
	for i := int64(0); i < 30; i++ {
		recs = append(recs, edited(i%7+1, 100+i, "x"))
	}
	view := Compact(recs)
	seen := map[int64]bool{}
	for _, r := range view {
		require.False(t, seen[r.MessageID], "duplicate id %d", r.MessageID)
		seen[r.MessageID] = true
	}
	require.Len(t, view, 7)
}

func TestCompactEmpty(t *testing.T) {
	require.Empty(t, Compact(nil))
}
