package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedUpdate = errors.New("unsupported update")
	ErrInvalidUpdate     = errors.New("invalid update")
)

// Validate checks the fields Handle relies on for the update's kind.
func Validate(u Update) error {
	var errs []string
	switch u.Kind() {
	case KindConnection:
		c := u.BusinessConnection
		if c.ID == "" {
			errs = append(errs, "business_connection.id is required")
		}
		if c.User.ID == 0 {
			errs = append(errs, "business_connection.user.id is required")
		}
	case KindMessage, KindEdited:
		m := u.BusinessMessage
		if m == nil {
			m = u.EditedBusinessMessage
		}
		errs = append(errs, validateMessage(m)...)
	case KindDeleted:
		d := u.DeletedBusinessMessages
		if d.Chat.ID == 0 {
			errs = append(errs, "chat.id is required")
		}
		for _, id := range d.MessageIDs {
			if id == 0 {
				errs = append(errs, "message_ids must not contain 0")
				break
			}
		}
	default:
		return ErrUnsupportedUpdate
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidUpdate, strings.Join(errs, "; "))
	}
	return nil
}

func validateMessage(m *Message) []string {
	var errs []string
	if m.MessageID == 0 {
		errs = append(errs, "message_id is required")
	}
	if m.Chat.ID == 0 {
		errs = append(errs, "chat.id is required")
	}
	if m.Date <= 0 {
		errs = append(errs, "date is required")
	}
	return errs
}
