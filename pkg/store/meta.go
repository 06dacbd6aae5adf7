package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
)

func (s *Store) readMeta(chatID int64) (models.ChatMeta, error) {
	b, err := os.ReadFile(s.metaPath(chatID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.ChatMeta{}, fmt.Errorf("chat %d meta: %w", chatID, ErrNotFound)
		}
		return models.ChatMeta{}, fmt.Errorf("read chat %d meta: %w", chatID, err)
	}
	var meta models.ChatMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return models.ChatMeta{}, fmt.Errorf("decode chat %d meta: %w", chatID, err)
	}
	meta.ChatID = chatID
	return meta, nil
}

func (s *Store) writeMeta(meta models.ChatMeta) error {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode chat %d meta: %w", meta.ChatID, err)
	}
	if err := writeFileAtomic(s.metaPath(meta.ChatID), b, 0o600); err != nil {
		return fmt.Errorf("write chat %d meta: %w", meta.ChatID, err)
	}
	return nil
}

// GetMeta returns a chat's metadata. Missing or unreadable metadata is ErrNotFound.
func (s *Store) GetMeta(chatID int64) (models.ChatMeta, error) {
	meta, err := s.readMeta(chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.ChatMeta{}, err
		}
		return models.ChatMeta{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return meta, nil
}

// UpdateMeta merges partial into the chat's metadata, starting from a fresh
// record when none is readable. Only incrementCount changes messageCount,
// and always by exactly one.
func (s *Store) UpdateMeta(chatID int64, partial models.MetaPartial, incrementCount bool) (models.ChatMeta, error) {
	meta, err := s.readMeta(chatID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn("chat_meta_reset", "chat_id", chatID, "error", err)
		}
		meta = models.ChatMeta{ChatID: chatID}
	}
	meta = partial.Apply(meta)
	if incrementCount {
		meta.MessageCount++
	}
	if err := s.writeMeta(meta); err != nil {
		return models.ChatMeta{}, err
	}
	return meta, nil
}

// syncMessageCount overwrites messageCount on existing metadata. Chats
// without readable metadata are left alone.
func (s *Store) syncMessageCount(chatID int64, count int64) error {
	meta, err := s.readMeta(chatID)
	if err != nil {
		logger.Debug("chat_meta_sync_skipped", "chat_id", chatID, "error", err)
		return nil
	}
	meta.MessageCount = count
	return s.writeMeta(meta)
}

// ChatIDs lists chats from the storage layout, ascending. Entries that are
// not numeric directories are ignored.
func (s *Store) ChatIDs() ([]int64, error) {
	entries, err := os.ReadDir(s.paths.Chats)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []int64{}, nil
		}
		return nil, fmt.Errorf("list chats: %w", err)
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListChats returns every chat with readable metadata, most recently active first.
func (s *Store) ListChats() ([]models.ChatMeta, error) {
	ids, err := s.ChatIDs()
	if err != nil {
		return nil, err
	}
	chats := make([]models.ChatMeta, 0, len(ids))
	for _, id := range ids {
		meta, err := s.readMeta(id)
		if err != nil {
			continue
		}
		chats = append(chats, meta)
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].LastMessageAt > chats[j].LastMessageAt
	})
	return chats, nil
}
