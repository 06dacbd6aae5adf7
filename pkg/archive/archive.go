// Package archive keeps log records dropped by prune in a pebble database,
// keyed by chat and archive batch.
package archive

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/oklog/ulid/v2"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
)

// Entry is one archived record.
type Entry struct {
	ChatID     int64                `json:"chat_id"`
	Batch      string               `json:"batch"`
	ArchivedAt time.Time            `json:"archived_at"`
	Record     models.MessageRecord `json:"record"`
}

type Archive struct {
	db  *pebble.DB
	now func() time.Time
}

// Open opens (or creates) the archive at path.
func Open(path string) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Archive{db: db, now: time.Now}, nil
}

// OpenReadOnly opens an existing archive for inspection.
func OpenReadOnly(path string) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Archive{db: db, now: time.Now}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func chatPrefix(chatID int64) []byte {
	return []byte("chat/" + strconv.FormatInt(chatID, 10) + "/")
}

// Key is chat/<chatId>/<batch ulid>/<seq>.
func Key(chatID int64, batch string, seq int) []byte {
	return []byte(fmt.Sprintf("chat/%d/%s/%06d", chatID, batch, seq))
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Archive stores records under a new batch id in one synced pebble batch.
func (a *Archive) Archive(chatID int64, records []models.MessageRecord) error {
	if len(records) == 0 {
		return nil
	}
	id, err := ulid.New(ulid.Timestamp(a.now()), rand.Reader)
	if err != nil {
		return fmt.Errorf("archive batch id: %w", err)
	}
	batchID := id.String()

	b := a.db.NewBatch()
	defer b.Close()
	for i, rec := range records {
		val, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode archived record: %w", err)
		}
		if err := b.Set(Key(chatID, batchID, i), val, nil); err != nil {
			return fmt.Errorf("stage archived record: %w", err)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit archive batch: %w", err)
	}
	logger.Info("archive_batch_written", "chat_id", chatID, "batch", batchID, "records", len(records))
	return nil
}

// List returns archived records of a chat, oldest batch first. limit <= 0
// returns everything.
func (a *Archive) List(chatID int64, limit int) ([]Entry, error) {
	prefix := chatPrefix(chatID)
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upperBound(prefix)})
	if err != nil {
		return nil, fmt.Errorf("archive iterator: %w", err)
	}
	defer iter.Close()

	var out []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		rest := strings.TrimPrefix(string(iter.Key()), string(prefix))
		batch, _, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		var rec models.MessageRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			logger.Warn("archive_entry_corrupt", "key", string(iter.Key()), "error", err)
			continue
		}
		e := Entry{ChatID: chatID, Batch: batch, Record: rec}
		if id, err := ulid.ParseStrict(batch); err == nil {
			e.ArchivedAt = ulid.Time(id.Time()).UTC()
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, iter.Error()
}
