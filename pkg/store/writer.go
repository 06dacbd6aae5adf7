package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/valyala/bytebufferpool"

	"chatlog/pkg/models"
)

// Append writes rec as one line at the end of the chat's log, creating the
// chat directory if needed. StoredAt is assigned here.
func (s *Store) Append(chatID int64, rec models.MessageRecord) error {
	if !rec.Event.Valid() {
		return fmt.Errorf("append chat %d: unknown event %q", chatID, rec.Event)
	}
	rec.StoredAt = s.now().UnixMilli()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := encodeLine(buf, rec); err != nil {
		return fmt.Errorf("append chat %d: %w", chatID, err)
	}
	if err := s.appendBytes(chatID, buf.B); err != nil {
		return err
	}
	appendsTotal.WithLabelValues(string(rec.Event)).Inc()
	return nil
}

// AppendDeletionMarker records that ids were deleted. The marker carries
// message id 0 and is never part of a chat's canonical view.
func (s *Store) AppendDeletionMarker(chatID int64, ids []int64, connectionID string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.Append(chatID, models.MessageRecord{
		MessageID:            models.DeletionMarkerID,
		Date:                 s.now().Unix(),
		Direction:            models.DirectionIncoming,
		BusinessConnectionID: connectionID,
		Event:                models.EventDeleted,
		DeletedMessageIDs:    append([]int64(nil), ids...),
	})
}

func (s *Store) appendBytes(chatID int64, line []byte) error {
	if err := os.MkdirAll(s.chatDir(chatID), 0o700); err != nil {
		return fmt.Errorf("create chat %d dir: %w", chatID, err)
	}
	f, err := os.OpenFile(s.logPath(chatID), os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open chat %d log: %w", chatID, err)
	}
	torn, err := endsWithoutNewline(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("inspect chat %d log: %w", chatID, err)
	}
	if torn {
		// terminate the partial line so this record starts on its own
		line = append([]byte{'\n'}, line...)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write chat %d log: %w", chatID, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chat %d log: %w", chatID, err)
	}
	return nil
}

// endsWithoutNewline reports whether f holds a last line that was never
// terminated, as left by an interrupted write.
func endsWithoutNewline(f *os.File) (bool, error) {
	fi, err := f.Stat()
	if err != nil {
		return false, err
	}
	if fi.Size() == 0 {
		return false, nil
	}
	var last [1]byte
	if _, err := f.ReadAt(last[:], fi.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// encodeLine writes rec as compact JSON followed by a newline.
func encodeLine(buf *bytebufferpool.ByteBuffer, rec models.MessageRecord) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}
