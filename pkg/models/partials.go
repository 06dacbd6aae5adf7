package models

// MetaPartial holds the chat metadata fields an update may override. Nil
// fields keep the stored value. MessageCount is deliberately absent: it only
// moves through the incrementCount flag of UpdateMeta.
type MetaPartial struct {
	FirstName     *string `json:"firstName,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
	Username      *string `json:"username,omitempty"`
	LastMessageAt *int64  `json:"lastMessageAt,omitempty"`
}

// Apply merges p into base and returns the result. New values win.
func (p MetaPartial) Apply(base ChatMeta) ChatMeta {
	out := base
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	if p.Username != nil {
		out.Username = *p.Username
	}
	if p.LastMessageAt != nil {
		out.LastMessageAt = *p.LastMessageAt
	}
	return out
}
