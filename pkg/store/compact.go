package store

import (
	"sort"

	"chatlog/pkg/models"
)

// Compact returns the canonical view of raw records: deletion markers are
// dropped after collecting the ids they name, the last record per message id
// wins unless that id was deleted, and the survivors are ordered by
// (date, messageId).
func Compact(records []models.MessageRecord) []models.MessageRecord {
	idx := canonicalIndexes(records)
	out := make([]models.MessageRecord, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

// canonicalIndexes is Compact expressed as positions into records.
func canonicalIndexes(records []models.MessageRecord) []int {
	deleted := make(map[int64]struct{})
	for _, r := range records {
		if r.IsDeletionMarker() {
			for _, id := range r.DeletedMessageIDs {
				deleted[id] = struct{}{}
			}
		}
	}

	latest := make(map[int64]int)
	for i, r := range records {
		if r.IsDeletionMarker() {
			continue
		}
		if _, gone := deleted[r.MessageID]; gone {
			continue
		}
		latest[r.MessageID] = i
	}

	idx := make([]int, 0, len(latest))
	for _, i := range latest {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool {
		ra, rb := records[idx[a]], records[idx[b]]
		if ra.Date != rb.Date {
			return ra.Date < rb.Date
		}
		return ra.MessageID < rb.MessageID
	})
	return idx
}
