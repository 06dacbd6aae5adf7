package store

import (
	"strings"

	"chatlog/pkg/models"
	"chatlog/pkg/store/pagination"
)

// LoadOptions filters a chat's canonical view. Nil fields are unset.
type LoadOptions struct {
	Limit  *int   // default pagination.DefaultLimit; <= 0 is unbounded
	Before *int64 // keep messageId < Before
	After  *int64 // keep messageId > After
}

// SearchOptions scopes a search. Nil fields are unset.
type SearchOptions struct {
	ChatID *int64
	Limit  *int // default pagination.DefaultSearchLimit; <= 0 is unbounded
}

type SearchHit struct {
	ChatID  int64                `json:"chat_id"`
	Message models.MessageRecord `json:"message"`
}

// LoadMessages returns the most recent messages of a chat's canonical view
// that pass the id filters.
func (s *Store) LoadMessages(chatID int64, opts LoadOptions) ([]models.MessageRecord, error) {
	page, err := s.LoadPage(chatID, opts)
	if err != nil {
		return nil, err
	}
	return page.Messages, nil
}

// LoadPage is LoadMessages with pagination details.
func (s *Store) LoadPage(chatID int64, opts LoadOptions) (models.MessagesPage, error) {
	read, err := s.ReadAll(chatID)
	if err != nil {
		return models.MessagesPage{}, err
	}
	view := Compact(read.Records)

	msgs := view[:0]
	for _, m := range view {
		if opts.After != nil && m.MessageID <= *opts.After {
			continue
		}
		if opts.Before != nil && m.MessageID >= *opts.Before {
			continue
		}
		msgs = append(msgs, m)
	}

	limit, bounded := pagination.Resolve(opts.Limit, pagination.DefaultLimit)
	hasMore := false
	if bounded && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
		hasMore = true
	}

	page := models.MessagesPage{
		ChatID:   chatID,
		Messages: msgs,
		Pagination: models.PaginationResponse{
			Limit:   limit,
			Count:   len(msgs),
			HasMore: hasMore,
		},
	}
	if len(msgs) > 0 {
		page.Pagination.FirstID = msgs[0].MessageID
		page.Pagination.LastID = msgs[len(msgs)-1].MessageID
	}
	return page, nil
}

// Search does a case-insensitive substring scan over message text, or the
// caption when there is no text. Without a chat id every chat found in the
// storage layout is scanned in ascending id order, so chats lacking metadata
// are still searched. Results keep scan order and stop at the limit.
func (s *Store) Search(query string, opts SearchOptions) ([]SearchHit, error) {
	needle := strings.ToLower(query)
	limit, bounded := pagination.Resolve(opts.Limit, pagination.DefaultSearchLimit)

	var chats []int64
	if opts.ChatID != nil {
		chats = []int64{*opts.ChatID}
		searchesTotal.WithLabelValues("chat").Inc()
	} else {
		ids, err := s.ChatIDs()
		if err != nil {
			return nil, err
		}
		chats = ids
		searchesTotal.WithLabelValues("all").Inc()
	}

	hits := make([]SearchHit, 0)
	for _, chatID := range chats {
		read, err := s.ReadAll(chatID)
		if err != nil {
			return hits, err
		}
		for _, m := range Compact(read.Records) {
			if !strings.Contains(strings.ToLower(m.DisplayText()), needle) {
				continue
			}
			hits = append(hits, SearchHit{ChatID: chatID, Message: m})
			if bounded && len(hits) >= limit {
				return hits, nil
			}
		}
	}
	return hits, nil
}
