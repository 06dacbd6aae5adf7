package ingest

// Update is one Telegram Bot API update. Only the business fields are
// decoded; exactly one of them is expected to be set.
type Update struct {
	UpdateID                int64               `json:"update_id"`
	BusinessConnection      *BusinessConnection `json:"business_connection,omitempty"`
	BusinessMessage         *Message            `json:"business_message,omitempty"`
	EditedBusinessMessage   *Message            `json:"edited_business_message,omitempty"`
	DeletedBusinessMessages *DeletedMessages    `json:"deleted_business_messages,omitempty"`
}

// Kind names the update by the field that carries it.
type Kind string

const (
	KindConnection Kind = "business_connection"
	KindMessage    Kind = "business_message"
	KindEdited     Kind = "edited_business_message"
	KindDeleted    Kind = "deleted_business_messages"
	KindUnknown    Kind = "unknown"
)

// Kind returns the kind of the first business field set on u.
func (u Update) Kind() Kind {
	switch {
	case u.BusinessConnection != nil:
		return KindConnection
	case u.BusinessMessage != nil:
		return KindMessage
	case u.EditedBusinessMessage != nil:
		return KindEdited
	case u.DeletedBusinessMessages != nil:
		return KindDeleted
	}
	return KindUnknown
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Message struct {
	MessageID            int64    `json:"message_id"`
	BusinessConnectionID string   `json:"business_connection_id,omitempty"`
	From                 *User    `json:"from,omitempty"`
	Chat                 Chat     `json:"chat"`
	Date                 int64    `json:"date"`
	EditDate             int64    `json:"edit_date,omitempty"`
	Text                 string   `json:"text,omitempty"`
	Caption              string   `json:"caption,omitempty"`
	ReplyToMessage       *Message `json:"reply_to_message,omitempty"`
}

// BusinessBotRights is the rights object of newer Bot API versions.
type BusinessBotRights struct {
	CanReply                  bool `json:"can_reply,omitempty"`
	CanReadMessages           bool `json:"can_read_messages,omitempty"`
	CanDeleteOutgoingMessages bool `json:"can_delete_outgoing_messages,omitempty"`
	CanDeleteAllMessages      bool `json:"can_delete_all_messages,omitempty"`
}

type BusinessConnection struct {
	ID         string `json:"id"`
	User       User   `json:"user"`
	UserChatID int64  `json:"user_chat_id"`
	Date       int64  `json:"date"`
	IsEnabled  bool   `json:"is_enabled"`
	// older Bot API versions send can_reply at the top level
	CanReply *bool              `json:"can_reply,omitempty"`
	Rights   *BusinessBotRights `json:"rights,omitempty"`
}

type DeletedMessages struct {
	BusinessConnectionID string  `json:"business_connection_id"`
	Chat                 Chat    `json:"chat"`
	MessageIDs           []int64 `json:"message_ids"`
}

// Result describes what Handle did with an update.
type Result struct {
	Kind   Kind  `json:"kind"`
	ChatID int64 `json:"chat_id,omitempty"`
	// Pruned is set when an on-append prune rewrote the chat log.
	Pruned bool `json:"pruned,omitempty"`
}
