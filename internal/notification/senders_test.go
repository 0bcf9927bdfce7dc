package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonhttp "event-notifications/internal/common/http"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppSender_Send(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer server.Close()

	sender := NewWhatsAppSender(commonhttp.NewClient(time.Second), server.URL+"/v1/", "wa-token")
	resp, err := sender.Send(context.Background(), &models.SentNotification{
		Recipient: "+5511999990000",
		Body:      "Hello",
	})
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "+5511999990000", got["to"])
	assert.Equal(t, map[string]interface{}{"body": "Hello"}, got["text"])
	assert.Contains(t, resp, "messages")
}

func TestWhatsAppSender_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewWhatsAppSender(commonhttp.NewClient(time.Second), server.URL, "")
	_, err := sender.Send(context.Background(), &models.SentNotification{Recipient: "x", Body: "y"})
	require.Error(t, err)

	var statusErr *commonhttp.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestWhatsAppSender_Unconfigured(t *testing.T) {
	sender := NewWhatsAppSender(&mockPoster{}, "", "")
	_, err := sender.Send(context.Background(), &models.SentNotification{})
	assert.Error(t, err)
}

func TestMockSender(t *testing.T) {
	sender := NewMockSender(models.ChannelSMS, 10*time.Millisecond)
	assert.Equal(t, models.ChannelSMS, sender.Channel())

	start := time.Now()
	resp, err := sender.Send(context.Background(), &models.SentNotification{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, models.JSONMap{"status": "sent", "provider": "mock_sms"}, resp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMockSender(models.ChannelEmail, time.Minute).Send(ctx, &models.SentNotification{})
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeEmailAPI struct {
	SendEmailFunc func(ctx context.Context, to, subject, body string) (string, error)
}

func (f *fakeEmailAPI) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	return f.SendEmailFunc(ctx, to, subject, body)
}

type fakeSMSAPI struct {
	SendSMSFunc func(ctx context.Context, phone, message, senderID string) (string, error)
}

func (f *fakeSMSAPI) SendSMS(ctx context.Context, phone, message, senderID string) (string, error) {
	return f.SendSMSFunc(ctx, phone, message, senderID)
}

func TestSESSender_SubjectFallsBackToTypeLabel(t *testing.T) {
	var subjects []string
	sender := NewSESSender(&fakeEmailAPI{
		SendEmailFunc: func(_ context.Context, to, subject, body string) (string, error) {
			subjects = append(subjects, subject)
			return "ses-1", nil
		},
	})

	title := "Your ticket"
	resp, err := sender.Send(context.Background(), &models.SentNotification{
		NotificationType: models.TypeSaleConfirmed, Recipient: "a@example.com", Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", resp["message_id"])

	_, err = sender.Send(context.Background(), &models.SentNotification{
		NotificationType: models.TypeBirthday, Recipient: "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Your ticket", "Birthday"}, subjects)
}

func TestSNSSender_UsesTenantSenderID(t *testing.T) {
	var gotSender string
	sender := NewSNSSender(&fakeSMSAPI{
		SendSMSFunc: func(_ context.Context, phone, message, senderID string) (string, error) {
			gotSender = senderID
			return "sns-1", nil
		},
	}, func(_ context.Context, tenantID string) string {
		return "TIX-" + tenantID
	})

	tenant := "t-1"
	resp, err := sender.Send(context.Background(), &models.SentNotification{TenantID: &tenant, Recipient: "+1", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "TIX-t-1", gotSender)
	assert.Equal(t, "sns", resp["provider"])
}

func TestWebhookNotifier(t *testing.T) {
	var (
		gotURL     string
		gotHeaders map[string]string
		gotPayload map[string]interface{}
	)
	poster := &mockPoster{
		PostJSONFunc: func(_ context.Context, url string, headers map[string]string, payload, _ interface{}) error {
			gotURL = url
			gotHeaders = headers
			gotPayload = payload.(map[string]interface{})
			return nil
		},
	}
	w := NewWebhookNotifier(poster, logger.NewTestLogger(t))

	n := &models.SentNotification{
		ID: "n-1", NotificationType: models.TypeSaleConfirmed, Channel: models.ChannelWhatsApp,
		Recipient: "+5511999990000", Status: models.StatusSent,
	}

	w.Notify(context.Background(), &models.ChannelConfig{}, n)
	assert.Empty(t, gotURL)

	w.Notify(context.Background(), &models.ChannelConfig{WebhookURL: "https://hooks.example.com/n", WebhookAPIKey: "k-1"}, n)
	assert.Equal(t, "https://hooks.example.com/n", gotURL)
	assert.Equal(t, "k-1", gotHeaders["X-API-Key"])
	assert.Equal(t, "notification_service", gotPayload["source"])
	assert.Equal(t, "notification_sent", gotPayload["event_type"])
	assert.Equal(t, "n-1", gotPayload["notification_id"])
	assert.Equal(t, models.StatusSent, gotPayload["status"])
}

func TestWebhookNotifier_FailureIsSwallowed(t *testing.T) {
	poster := &mockPoster{
		PostJSONFunc: func(context.Context, string, map[string]string, interface{}, interface{}) error {
			return errors.New("dial tcp: refused")
		},
	}
	w := NewWebhookNotifier(poster, logger.NewTestLogger(t))
	assert.NotPanics(t, func() {
		w.Notify(context.Background(), &models.ChannelConfig{WebhookURL: "http://localhost:1"}, &models.SentNotification{ID: "n-1"})
	})
}
