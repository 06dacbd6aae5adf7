package models

// Direction tells whether the business account owner sent or received a message.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Event is the kind of change a log record describes.
type Event string

const (
	EventNew     Event = "new"
	EventEdited  Event = "edited"
	EventDeleted Event = "deleted"
)

// Valid reports whether e is one of the known events.
func (e Event) Valid() bool {
	switch e {
	case EventNew, EventEdited, EventDeleted:
		return true
	}
	return false
}

// DeletionMarkerID is the message id carried by synthetic deletion records.
// Real platform message ids are never zero.
const DeletionMarkerID int64 = 0

// MessageRecord is one line of a chat's messages.jsonl log.
type MessageRecord struct {
	MessageID     int64  `json:"messageId"`
	Date          int64  `json:"date"`     // unix seconds, source assigned
	StoredAt      int64  `json:"storedAt"` // unix ms, store assigned
	FromID        int64  `json:"fromId"`
	FromFirstName string `json:"fromFirstName"`
	FromLastName  string `json:"fromLastName,omitempty"`
	FromUsername  string `json:"fromUsername,omitempty"`
	Text          string `json:"text,omitempty"`
	Caption       string `json:"caption,omitempty"`

	Direction            Direction `json:"direction"`
	ReplyToMessageID     *int64    `json:"replyToMessageId,omitempty"`
	BusinessConnectionID string    `json:"businessConnectionId"`
	Event                Event     `json:"event"`
	// only set on deletion markers; one marker may name many ids
	DeletedMessageIDs []int64 `json:"deletedMessageIds,omitempty"`
}

// DisplayText returns the text of the message, falling back to its caption.
func (m MessageRecord) DisplayText() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

func (m MessageRecord) IsDeletionMarker() bool {
	return m.Event == EventDeleted
}
