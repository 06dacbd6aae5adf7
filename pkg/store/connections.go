package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
)

// LoadConnections reads connections.json. Anything unreadable, including a
// version mismatch, yields an empty document at the current version.
func (s *Store) LoadConnections() models.ConnectionsDocument {
	b, err := os.ReadFile(s.paths.Connections)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("connections_read_failed", "path", s.paths.Connections, "error", err)
		}
		return models.NewConnectionsDocument()
	}
	var doc models.ConnectionsDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		logger.Warn("connections_document_reset", "reason", "decode", "error", err)
		return models.NewConnectionsDocument()
	}
	if doc.Version != models.ConnectionsVersion {
		logger.Warn("connections_document_reset", "reason", "version", "version", doc.Version)
		return models.NewConnectionsDocument()
	}
	if doc.Connections == nil {
		doc.Connections = map[string]models.ConnectionRecord{}
	}
	return doc
}

// SaveConnection upserts rec by id, stamping updatedAt, and rewrites the document.
func (s *Store) SaveConnection(rec models.ConnectionRecord) (models.ConnectionRecord, error) {
	if rec.ID == "" {
		return models.ConnectionRecord{}, fmt.Errorf("save connection: empty id")
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()

	doc := s.LoadConnections()
	rec.UpdatedAt = s.now().UnixMilli()
	doc.Connections[rec.ID] = rec

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.ConnectionRecord{}, fmt.Errorf("encode connections: %w", err)
	}
	if err := writeFileAtomic(s.paths.Connections, b, 0o600); err != nil {
		return models.ConnectionRecord{}, fmt.Errorf("write connections: %w", err)
	}
	return rec, nil
}

// GetConnection returns one connection by id.
func (s *Store) GetConnection(id string) (models.ConnectionRecord, error) {
	rec, ok := s.LoadConnections().Connections[id]
	if !ok {
		return models.ConnectionRecord{}, fmt.Errorf("connection %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// ListConnections returns all connections ordered by id.
func (s *Store) ListConnections() []models.ConnectionRecord {
	doc := s.LoadConnections()
	out := make([]models.ConnectionRecord, 0, len(doc.Connections))
	for _, rec := range doc.Connections {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveConnectionID returns the enabled connection updated most recently.
// Equal updatedAt values go to the smaller id.
func (s *Store) ActiveConnectionID() (string, bool) {
	var (
		best  models.ConnectionRecord
		found bool
	)
	for _, rec := range s.ListConnections() {
		if !rec.IsEnabled {
			continue
		}
		if !found || rec.UpdatedAt > best.UpdatedAt {
			best = rec
			found = true
		}
	}
	return best.ID, found
}
