package notification

import (
	"context"
	"time"

	"event-notifications/internal/common/logger"
	"event-notifications/internal/common/metrics"
	"event-notifications/internal/models"
)

// WebhookNotifier tells a tenant's automation endpoint that a message went
// out. Failures are logged and never surface to the caller.
type WebhookNotifier struct {
	client JSONPoster
	logger logger.Logger
	now    func() time.Time
}

func NewWebhookNotifier(client JSONPoster, log logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{client: client, logger: log, now: time.Now}
}

// Notify posts the delivery summary of n to cfg.WebhookURL. It is a no-op
// when the tenant has no webhook.
func (w *WebhookNotifier) Notify(ctx context.Context, cfg *models.ChannelConfig, n *models.SentNotification) {
	if cfg == nil || cfg.WebhookURL == "" {
		return
	}

	payload := map[string]interface{}{
		"source":          "notification_service",
		"event_type":      "notification_sent",
		"notification_id": n.ID,
		"type":            n.NotificationType,
		"channel":         n.Channel,
		"recipient":       n.Recipient,
		"status":          n.Status,
		"timestamp":       w.now().Format(time.RFC3339),
	}
	headers := map[string]string{}
	if cfg.WebhookAPIKey != "" {
		headers["X-API-Key"] = cfg.WebhookAPIKey
	}

	if err := w.client.PostJSON(ctx, cfg.WebhookURL, headers, payload, nil); err != nil {
		metrics.WebhookCalls.WithLabelValues("error").Inc()
		w.logger.Error("Webhook notification failed", map[string]interface{}{
			"notificationId": n.ID,
			"error":          err.Error(),
		})
		return
	}

	metrics.WebhookCalls.WithLabelValues("ok").Inc()
	w.logger.Info("Webhook notified", map[string]interface{}{
		"notificationId": n.ID,
	})
}
