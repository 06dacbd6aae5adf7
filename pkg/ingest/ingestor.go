// Package ingest turns Telegram business updates into chat log writes.
package ingest

import (
	"context"
	"fmt"
	"time"

	"chatlog/pkg/logger"
	"chatlog/pkg/models"
	"chatlog/pkg/store"
)

// Config tunes an Ingestor.
type Config struct {
	// PruneOnAppend prunes a chat with MaxCount/MaxAgeDays after every new message.
	PruneOnAppend bool
	MaxCount      int
	MaxAgeDays    int
	// Locks is shared with other writers of the same store; nil creates a private set.
	Locks *ChatLocks
	Now   func() time.Time
}

// Ingestor applies updates to a store, one chat at a time.
type Ingestor struct {
	store    *store.Store
	locks    *ChatLocks
	cfg      Config
	now      func() time.Time
	handlers map[Kind]handlerFunc
}

func New(s *store.Store, cfg Config) *Ingestor {
	i := &Ingestor{store: s, locks: cfg.Locks, cfg: cfg, now: cfg.Now}
	if i.locks == nil {
		i.locks = NewChatLocks()
	}
	if i.now == nil {
		i.now = time.Now
	}
	i.registerDefaultHandlers()
	return i
}

// Locks returns the per-chat locks the ingestor writes under.
func (i *Ingestor) Locks() *ChatLocks { return i.locks }

// Handle validates u and applies it. Updates for the same chat are applied
// in call order.
func (i *Ingestor) Handle(ctx context.Context, u Update) (Result, error) {
	kind := u.Kind()
	if err := ctx.Err(); err != nil {
		return Result{Kind: kind}, err
	}
	if err := Validate(u); err != nil {
		updatesTotal.WithLabelValues(string(kind), "rejected").Inc()
		return Result{Kind: kind}, err
	}
	h, ok := i.handlers[kind]
	if !ok {
		updatesTotal.WithLabelValues(string(kind), "rejected").Inc()
		return Result{Kind: kind}, ErrUnsupportedUpdate
	}
	res, err := h(ctx, u)
	res.Kind = kind
	if err != nil {
		updatesTotal.WithLabelValues(string(kind), "error").Inc()
		logger.Error("ingest_update_failed", "kind", kind, "update_id", u.UpdateID, "chat_id", res.ChatID, "error", err)
		return res, err
	}
	updatesTotal.WithLabelValues(string(kind), "ok").Inc()
	logger.Debug("ingest_update_applied", "kind", kind, "update_id", u.UpdateID, "chat_id", res.ChatID)
	return res, nil
}

func (i *Ingestor) handleConnection(_ context.Context, u Update) (Result, error) {
	c := u.BusinessConnection
	rec := models.ConnectionRecord{
		ID:         c.ID,
		UserID:     c.User.ID,
		UserChatID: c.UserChatID,
		FirstName:  c.User.FirstName,
		LastName:   c.User.LastName,
		Username:   c.User.Username,
		Date:       c.Date,
		IsEnabled:  c.IsEnabled,
		CanReply:   c.CanReply,
	}
	if r := c.Rights; r != nil {
		rec.CanReply = boolPtr(r.CanReply)
		rec.CanReadMessages = boolPtr(r.CanReadMessages)
		rec.CanDeleteOutgoingMessages = boolPtr(r.CanDeleteOutgoingMessages)
		rec.CanDeleteAllMessages = boolPtr(r.CanDeleteAllMessages)
	}
	if _, err := i.store.SaveConnection(rec); err != nil {
		return Result{}, fmt.Errorf("save connection %s: %w", c.ID, err)
	}
	logger.Info("business_connection_saved", "connection_id", c.ID, "enabled", c.IsEnabled)
	return Result{}, nil
}

func (i *Ingestor) handleMessage(_ context.Context, u Update) (Result, error) {
	m := u.BusinessMessage
	res := Result{ChatID: m.Chat.ID}

	unlock := i.locks.Lock(m.Chat.ID)
	defer unlock()

	rec := toRecord(m, models.EventNew, i.direction(m))
	if err := i.store.Append(m.Chat.ID, rec); err != nil {
		return res, err
	}
	if _, err := i.store.UpdateMeta(m.Chat.ID, chatPartial(m.Chat, i.now()), true); err != nil {
		return res, err
	}

	if i.cfg.PruneOnAppend && (i.cfg.MaxCount > 0 || i.cfg.MaxAgeDays > 0) {
		pr, err := i.store.Prune(m.Chat.ID, i.cfg.MaxCount, i.cfg.MaxAgeDays)
		if err != nil {
			// the message is already stored; the next append or retention run retries
			pruneOnAppendErrors.Inc()
			logger.Warn("prune_on_append_failed", "chat_id", m.Chat.ID, "error", err)
			return res, nil
		}
		res.Pruned = pr.Rewritten
	}
	return res, nil
}

func (i *Ingestor) handleEdited(_ context.Context, u Update) (Result, error) {
	m := u.EditedBusinessMessage
	res := Result{ChatID: m.Chat.ID}

	unlock := i.locks.Lock(m.Chat.ID)
	defer unlock()

	return res, i.store.Append(m.Chat.ID, toRecord(m, models.EventEdited, i.direction(m)))
}

func (i *Ingestor) handleDeleted(_ context.Context, u Update) (Result, error) {
	d := u.DeletedBusinessMessages
	res := Result{ChatID: d.Chat.ID}

	unlock := i.locks.Lock(d.Chat.ID)
	defer unlock()

	return res, i.store.AppendDeletionMarker(d.Chat.ID, d.MessageIDs, d.BusinessConnectionID)
}

// direction is outgoing when the sender is the business account owner of
// the message's connection. Unknown connections count as incoming.
func (i *Ingestor) direction(m *Message) models.Direction {
	if m.From == nil || m.BusinessConnectionID == "" {
		return models.DirectionIncoming
	}
	conn, err := i.store.GetConnection(m.BusinessConnectionID)
	if err != nil {
		logger.Debug("ingest_unknown_connection", "connection_id", m.BusinessConnectionID)
		return models.DirectionIncoming
	}
	return classify(m.From.ID, conn)
}

func classify(fromID int64, conn models.ConnectionRecord) models.Direction {
	if fromID == conn.UserID {
		return models.DirectionOutgoing
	}
	return models.DirectionIncoming
}

func toRecord(m *Message, ev models.Event, dir models.Direction) models.MessageRecord {
	rec := models.MessageRecord{
		MessageID:            m.MessageID,
		Date:                 m.Date,
		Text:                 m.Text,
		Caption:              m.Caption,
		Direction:            dir,
		BusinessConnectionID: m.BusinessConnectionID,
		Event:                ev,
	}
	if m.From != nil {
		rec.FromID = m.From.ID
		rec.FromFirstName = m.From.FirstName
		rec.FromLastName = m.From.LastName
		rec.FromUsername = m.From.Username
	}
	if m.ReplyToMessage != nil {
		id := m.ReplyToMessage.MessageID
		rec.ReplyToMessageID = &id
	}
	return rec
}

// chatPartial carries the chat's names into its metadata. Empty names do
// not overwrite known ones.
func chatPartial(c Chat, now time.Time) models.MetaPartial {
	at := now.UnixMilli()
	p := models.MetaPartial{LastMessageAt: &at}
	if c.FirstName != "" {
		p.FirstName = &c.FirstName
	}
	if c.LastName != "" {
		p.LastName = &c.LastName
	}
	if c.Username != "" {
		p.Username = &c.Username
	}
	return p
}

func boolPtr(b bool) *bool { return &b }
