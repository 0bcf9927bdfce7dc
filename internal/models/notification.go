package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType identifies which business occurrence a message is about.
type NotificationType string

const (
	TypeSaleConfirmed       NotificationType = "sale_confirmed"
	TypeCheckinCompleted    NotificationType = "checkin_completed"
	TypeCashClosed          NotificationType = "cash_closed"
	TypeFinancialAlert      NotificationType = "financial_alert"
	TypeBirthday            NotificationType = "birthday"
	TypeRankingUpdated      NotificationType = "ranking_updated"
	TypeAchievementUnlocked NotificationType = "achievement_unlocked"
	TypeEventCreated        NotificationType = "event_created"
	TypeListCreated         NotificationType = "list_created"
)

var typeLabels = map[NotificationType]string{
	TypeSaleConfirmed:       "Sale confirmed",
	TypeCheckinCompleted:    "Check-in completed",
	TypeCashClosed:          "Cash register closed",
	TypeFinancialAlert:      "Financial alert",
	TypeBirthday:            "Birthday",
	TypeRankingUpdated:      "Ranking updated",
	TypeAchievementUnlocked: "Achievement unlocked",
	TypeEventCreated:        "Event created",
	TypeListCreated:         "List created",
}

// AllNotificationTypes returns the types in catalog order.
func AllNotificationTypes() []NotificationType {
	return []NotificationType{
		TypeSaleConfirmed, TypeCheckinCompleted, TypeCashClosed,
		TypeFinancialAlert, TypeBirthday, TypeRankingUpdated,
		TypeAchievementUnlocked, TypeEventCreated, TypeListCreated,
	}
}

func (t NotificationType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

func (t NotificationType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Channel is a delivery medium.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelPush     Channel = "push"
)

var channelLabels = map[Channel]string{
	ChannelWhatsApp: "WhatsApp",
	ChannelSMS:      "SMS",
	ChannelEmail:    "E-mail",
	ChannelPush:     "Push Notification",
}

// AllChannels returns the channels in catalog order.
func AllChannels() []Channel {
	return []Channel{ChannelWhatsApp, ChannelSMS, ChannelEmail, ChannelPush}
}

func (c Channel) Valid() bool {
	_, ok := channelLabels[c]
	return ok
}

func (c Channel) Label() string {
	if l, ok := channelLabels[c]; ok {
		return l
	}
	return string(c)
}

// Status is the lifecycle state of a sent notification.
// pending -> sent and pending -> failed are the only transitions.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// JSONMap is a JSONB column value. NULL scans to a nil map.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Template is a tenant's message template for one type and channel.
type Template struct {
	ID                 string           `db:"id" json:"id"`
	TenantID           string           `db:"tenant_id" json:"tenant_id"`
	Name               string           `db:"name" json:"name"`
	NotificationType   NotificationType `db:"notification_type" json:"notification_type"`
	Channel            Channel          `db:"channel" json:"channel"`
	Title              *string          `db:"title" json:"title"`
	Body               string           `db:"body" json:"body"`
	Active             bool             `db:"active" json:"active"`
	AvailableVariables string           `db:"available_variables" json:"available_variables"`
	CreatedBy          *string          `db:"created_by" json:"created_by"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// TemplateInput is the create payload.
type TemplateInput struct {
	Name             string           `json:"name" binding:"required,min=1,max=200"`
	NotificationType NotificationType `json:"notification_type" binding:"required,notification_type"`
	Channel          Channel          `json:"channel" binding:"required,notification_channel"`
	Title            *string          `json:"title" binding:"omitempty,max=200"`
	Body             string           `json:"body" binding:"required,min=1"`
	Active           *bool            `json:"active"`
}

// TemplatePatch is a partial update; nil fields are left untouched.
type TemplatePatch struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=200"`
	Title  *string `json:"title" binding:"omitempty,max=200"`
	Body   *string `json:"body" binding:"omitempty,min=1"`
	Active *bool   `json:"active"`
}

// TemplateFilter narrows the template listing.
type TemplateFilter struct {
	NotificationType NotificationType
	Channel          Channel
	Active           *bool
}

// SentNotification is one delivery attempt record.
type SentNotification struct {
	ID               string           `db:"id" json:"id"`
	TemplateID       *string          `db:"template_id" json:"template_id"`
	TenantID         *string          `db:"tenant_id" json:"tenant_id"`
	NotificationType NotificationType `db:"notification_type" json:"notification_type"`
	Channel          Channel          `db:"channel" json:"channel"`
	Recipient        string           `db:"recipient" json:"recipient"`
	Title            *string          `db:"title" json:"title"`
	Body             string           `db:"body" json:"body"`
	Status           Status           `db:"status" json:"status"`
	Attempts         int              `db:"attempts" json:"attempts"`
	EventID          *string          `db:"event_id" json:"event_id"`
	UserID           *string          `db:"user_id" json:"user_id"`
	ContextData      JSONMap          `db:"context_data" json:"context_data,omitempty"`
	ScheduledFor     *time.Time       `db:"scheduled_for" json:"scheduled_for"`
	SentAt           *time.Time       `db:"sent_at" json:"sent_at"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	ErrorDetail      *string          `db:"error_detail" json:"error_detail"`
	ProviderResponse JSONMap          `db:"provider_response" json:"provider_response,omitempty"`

	// populated by history queries only
	EventName *string `db:"event_name" json:"event_name,omitempty"`
	UserName  *string `db:"user_name" json:"user_name,omitempty"`
}

// ManualSendRequest is an operator-issued message.
type ManualSendRequest struct {
	NotificationType NotificationType `json:"notification_type" binding:"required,notification_type"`
	Channel          Channel          `json:"channel" binding:"required,notification_channel"`
	Recipient        string           `json:"recipient" binding:"required,min=3,max=255"`
	Title            *string          `json:"title" binding:"omitempty,max=200"`
	Body             string           `json:"body" binding:"required,min=1"`
	EventID          *string          `json:"event_id"`
	ScheduledFor     *time.Time       `json:"scheduled_for"`
}

// EventRequest triggers template dispatch for an internal event.
type EventRequest struct {
	Event   string                 `json:"event" binding:"required"`
	Context map[string]interface{} `json:"context"`
}

// TestSendResult is the synchronous test-send outcome.
type TestSendResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	NotificationID string `json:"notification_id,omitempty"`
	Status         Status `json:"status,omitempty"`
	Error          string `json:"error,omitempty"`
}

// HistoryFilter narrows history, export and search queries. All set fields
// combine conjunctively.
type HistoryFilter struct {
	NotificationType NotificationType
	Channel          Channel
	Status           Status
	EventID          string
	Recipient        string
	DateFrom         *time.Time
	DateTo           *time.Time
	Offset           int
	Limit            int

	// TenantID scopes rows unless AllTenants is set.
	TenantID   string
	AllTenants bool
}

// Labeled is a catalog entry.
type Labeled struct {
	Value     string   `json:"value"`
	Label     string   `json:"label"`
	Variables string `json:"variables,omitempty"`
}
