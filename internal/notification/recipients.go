package notification

import (
	"context"
	"errors"
	"fmt"

	"event-notifications/internal/models"
	"event-notifications/internal/repository"
)

// Recipient is one addressee of a dispatched template.
type Recipient struct {
	Name   string
	Phone  string
	Email  string
	UserID *string
}

// ContactFor picks the address used on a channel. The phone number is the
// contact everywhere; the email channel prefers an e-mail address when the
// recipient has one.
func (r Recipient) ContactFor(ch models.Channel) string {
	if ch == models.ChannelEmail && r.Email != "" {
		return r.Email
	}
	return r.Phone
}

// UserStore is the slice of the users table recipient resolution needs.
type UserStore interface {
	CashClosingRecipients(ctx context.Context, tenantID string) ([]repository.Contact, error)
	ByID(ctx context.Context, id string) (*repository.Contact, error)
}

// RecipientResolver derives the addressees of a template from the event
// context.
type RecipientResolver struct {
	users UserStore
}

func NewRecipientResolver(users UserStore) *RecipientResolver {
	return &RecipientResolver{users: users}
}

// Resolve returns the recipients for tpl. Types without a rule resolve to
// no recipients.
func (r *RecipientResolver) Resolve(ctx context.Context, tpl models.Template, data map[string]interface{}) ([]Recipient, error) {
	switch tpl.NotificationType {
	case models.TypeSaleConfirmed:
		phone, hasPhone := stringValue(data, "buyer_phone")
		if _, hasCPF := stringValue(data, "buyer_cpf"); !hasCPF || !hasPhone {
			return nil, nil
		}
		name, _ := stringValue(data, "buyer_name")
		email, _ := stringValue(data, "buyer_email")
		return []Recipient{{Name: name, Phone: phone, Email: email}}, nil

	case models.TypeCheckinCompleted:
		phone, hasPhone := stringValue(data, "phone")
		if _, hasCPF := stringValue(data, "cpf"); !hasCPF || !hasPhone {
			return nil, nil
		}
		name, _ := stringValue(data, "name")
		email, _ := stringValue(data, "email")
		return []Recipient{{Name: name, Phone: phone, Email: email}}, nil

	case models.TypeCashClosed:
		if _, ok := stringValue(data, "event_id"); !ok {
			return nil, nil
		}
		contacts, err := r.users.CashClosingRecipients(ctx, tpl.TenantID)
		if err != nil {
			return nil, fmt.Errorf("resolve cash closing recipients: %w", err)
		}
		out := make([]Recipient, 0, len(contacts))
		for _, c := range contacts {
			out = append(out, fromContact(c))
		}
		return out, nil

	case models.TypeBirthday:
		phone, hasPhone := stringValue(data, "phone")
		name, hasName := stringValue(data, "name")
		if !hasPhone || !hasName {
			return nil, nil
		}
		email, _ := stringValue(data, "email")
		rec := Recipient{Name: name, Phone: phone, Email: email}
		if id, ok := stringValue(data, "user_id"); ok {
			rec.UserID = &id
		}
		return []Recipient{rec}, nil

	case models.TypeAchievementUnlocked:
		promoterID, ok := stringValue(data, "promoter_id")
		if !ok {
			return nil, nil
		}
		c, err := r.users.ByID(ctx, promoterID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolve promoter %s: %w", promoterID, err)
		}
		if c.Phone == "" {
			return nil, nil
		}
		return []Recipient{fromContact(*c)}, nil
	}

	return nil, nil
}

func fromContact(c repository.Contact) Recipient {
	id := c.UserID
	return Recipient{Name: c.Name, Phone: c.Phone, Email: c.Email, UserID: &id}
}
