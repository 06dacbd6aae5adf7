package models

type PaginationResponse struct {
	Limit   int   `json:"limit"`
	Count   int   `json:"count"`
	HasMore bool  `json:"has_more"`
	FirstID int64 `json:"first_id,omitempty"`
	LastID  int64 `json:"last_id,omitempty"`
}

// MessagesPage is the read response for a chat's messages.
type MessagesPage struct {
	ChatID     int64              `json:"chat_id"`
	Messages   []MessageRecord    `json:"messages"`
	Pagination PaginationResponse `json:"pagination"`
}
