package models

// ChatMeta is the denormalized per-chat summary stored in meta.json. The log
// stays authoritative for message content.
type ChatMeta struct {
	ChatID        int64  `json:"chatId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName,omitempty"`
	Username      string `json:"username,omitempty"`
	LastMessageAt int64  `json:"lastMessageAt"` // unix ms
	MessageCount  int64  `json:"messageCount"`
}

// DisplayName joins the first and last name.
func (c ChatMeta) DisplayName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	return c.FirstName + " " + c.LastName
}
