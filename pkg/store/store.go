// Package store is the per-chat append-only message log, the chat directory
// and the connection registry. Every operation is a function of the storage
// root given to New and its arguments.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatlog/pkg/models"
	"chatlog/pkg/state"
)

const (
	logFileName  = "messages.jsonl"
	metaFileName = "meta.json"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidChatID = errors.New("invalid chat id")
)

// ParseChatID parses a decimal chat id as used in paths and URLs.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChatID, s)
	}
	return id, nil
}

// Archiver receives the raw records a prune is about to drop from a log.
type Archiver interface {
	Archive(chatID int64, records []models.MessageRecord) error
}

// Config is the explicit storage configuration of a Store.
type Config struct {
	// BaseDir is the storage base; empty means the process state directory.
	BaseDir string
	// Account optionally namespaces the store under BaseDir.
	Account string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
	// Archive, when set, keeps records dropped by Prune.
	Archive Archiver
}

type Store struct {
	paths   state.Paths
	now     func() time.Time
	archive Archiver

	connMu sync.Mutex
}

func New(cfg Config) (*Store, error) {
	root, err := state.ResolveRoot(cfg.BaseDir, cfg.Account)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{paths: state.PathsFor(root), now: now, archive: cfg.Archive}, nil
}

// Paths returns the on-disk layout the store works in.
func (s *Store) Paths() state.Paths { return s.paths }

func (s *Store) chatDir(chatID int64) string {
	return s.paths.ChatDir(strconv.FormatInt(chatID, 10))
}

func (s *Store) logPath(chatID int64) string {
	return filepath.Join(s.chatDir(chatID), logFileName)
}

func (s *Store) metaPath(chatID int64) string {
	return filepath.Join(s.chatDir(chatID), metaFileName)
}
