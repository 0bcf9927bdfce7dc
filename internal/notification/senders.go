package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"event-notifications/internal/models"
)

// ChannelSender delivers a persisted notification over one channel and
// returns the provider's response for storage.
type ChannelSender interface {
	Channel() models.Channel
	Send(ctx context.Context, n *models.SentNotification) (models.JSONMap, error)
}

// JSONPoster is the HTTP capability the WhatsApp sender and the webhook
// notifier share.
type JSONPoster interface {
	PostJSON(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error
}

// WhatsAppSender posts text messages to a Cloud API compatible endpoint.
type WhatsAppSender struct {
	client  JSONPoster
	baseURL string
	token   string
}

func NewWhatsAppSender(client JSONPoster, baseURL, token string) *WhatsAppSender {
	return &WhatsAppSender{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (s *WhatsAppSender) Channel() models.Channel { return models.ChannelWhatsApp }

func (s *WhatsAppSender) Send(ctx context.Context, n *models.SentNotification) (models.JSONMap, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("whatsapp provider url is not configured")
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                n.Recipient,
		"type":              "text",
		"text":              map[string]string{"body": n.Body},
	}
	headers := map[string]string{}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}

	resp := models.JSONMap{}
	if err := s.client.PostJSON(ctx, s.baseURL+"/messages", headers, payload, &resp); err != nil {
		return nil, fmt.Errorf("whatsapp send: %w", err)
	}
	return resp, nil
}

// MockSender simulates a provider: it waits a fixed delay and succeeds.
type MockSender struct {
	channel  models.Channel
	provider string
	delay    time.Duration
}

func NewMockSender(channel models.Channel, delay time.Duration) *MockSender {
	return &MockSender{
		channel:  channel,
		provider: "mock_" + string(channel),
		delay:    delay,
	}
}

func (s *MockSender) Channel() models.Channel { return s.channel }

func (s *MockSender) Send(ctx context.Context, _ *models.SentNotification) (models.JSONMap, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return models.JSONMap{"status": "sent", "provider": s.provider}, nil
}

// EmailAPI is satisfied by the SES client.
type EmailAPI interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// SESSender delivers the email channel through Amazon SES.
type SESSender struct {
	api EmailAPI
}

func NewSESSender(api EmailAPI) *SESSender {
	return &SESSender{api: api}
}

func (s *SESSender) Channel() models.Channel { return models.ChannelEmail }

func (s *SESSender) Send(ctx context.Context, n *models.SentNotification) (models.JSONMap, error) {
	subject := n.NotificationType.Label()
	if n.Title != nil && *n.Title != "" {
		subject = *n.Title
	}
	id, err := s.api.SendEmail(ctx, n.Recipient, subject, n.Body)
	if err != nil {
		return nil, err
	}
	return models.JSONMap{"status": "sent", "provider": "ses", "message_id": id}, nil
}

// SMSAPI is satisfied by the SNS client.
type SMSAPI interface {
	SendSMS(ctx context.Context, phone, message, senderID string) (string, error)
}

// SenderIDLookup returns the tenant's configured SMS sender id, if any.
type SenderIDLookup func(ctx context.Context, tenantID string) string

// SNSSender delivers the SMS channel through Amazon SNS.
type SNSSender struct {
	api      SMSAPI
	senderID SenderIDLookup
}

func NewSNSSender(api SMSAPI, senderID SenderIDLookup) *SNSSender {
	return &SNSSender{api: api, senderID: senderID}
}

func (s *SNSSender) Channel() models.Channel { return models.ChannelSMS }

func (s *SNSSender) Send(ctx context.Context, n *models.SentNotification) (models.JSONMap, error) {
	var sender string
	if s.senderID != nil && n.TenantID != nil {
		sender = s.senderID(ctx, *n.TenantID)
	}
	id, err := s.api.SendSMS(ctx, n.Recipient, n.Body, sender)
	if err != nil {
		return nil, err
	}
	return models.JSONMap{"status": "sent", "provider": "sns", "message_id": id}, nil
}
