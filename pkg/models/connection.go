package models

// ConnectionsVersion is the only schema version of connections.json.
const ConnectionsVersion = 1

// ConnectionRecord is the last known state of one business connection.
type ConnectionRecord struct {
	ID         string `json:"id"`
	UserID     int64  `json:"userId"`
	UserChatID int64  `json:"userChatId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName,omitempty"`
	Username   string `json:"username,omitempty"`
	Date       int64  `json:"date"` // unix seconds
	IsEnabled  bool   `json:"isEnabled"`

	CanReply                  *bool `json:"canReply,omitempty"`
	CanReadMessages           *bool `json:"canReadMessages,omitempty"`
	CanDeleteOutgoingMessages *bool `json:"canDeleteOutgoingMessages,omitempty"`
	CanDeleteAllMessages      *bool `json:"canDeleteAllMessages,omitempty"`

	UpdatedAt int64 `json:"updatedAt"` // unix ms, set on every save
}

// ConnectionsDocument is the on-disk shape of connections.json.
type ConnectionsDocument struct {
	Version     int                         `json:"version"`
	Connections map[string]ConnectionRecord `json:"connections"`
}

// NewConnectionsDocument returns an empty document at the current version.
func NewConnectionsDocument() ConnectionsDocument {
	return ConnectionsDocument{Version: ConnectionsVersion, Connections: map[string]ConnectionRecord{}}
}
