package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/common/metrics"
	"event-notifications/internal/models"
)

const (
	testTitle        = "Notification test"
	testBodyTemplate = "This is a test message from the %s channel. System working correctly!"
)

type TemplateStore interface {
	ActiveByType(ctx context.Context, tenantID string, nt models.NotificationType) ([]models.Template, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.SentNotification) error
	MarkSent(ctx context.Context, id string, sentAt time.Time, response models.JSONMap) error
	MarkFailed(ctx context.Context, id, detail string) (int, error)
}

type ConfigStore interface {
	GetOrDefault(ctx context.Context, tenantID string) (*models.ChannelConfig, error)
}

// Indexer receives every notification once its delivery outcome is known.
type Indexer interface {
	IndexNotification(ctx context.Context, n *models.SentNotification) error
}

// Dependencies groups what a Dispatcher is built from. Indexer and Webhook
// are optional.
type Dependencies struct {
	Templates     TemplateStore
	Notifications NotificationStore
	Configs       ConfigStore
	Recipients    *RecipientResolver
	Senders       []ChannelSender
	Webhook       *WebhookNotifier
	Indexer       Indexer
	Logger        logger.Logger
}

// Dispatcher turns events and operator requests into persisted, delivered
// notifications.
type Dispatcher struct {
	templates     TemplateStore
	notifications NotificationStore
	configs       ConfigStore
	recipients    *RecipientResolver
	senders       map[models.Channel]ChannelSender
	webhook       *WebhookNotifier
	indexer       Indexer
	logger        logger.Logger
	now           func() time.Time
}

func NewDispatcher(deps Dependencies) *Dispatcher {
	senders := make(map[models.Channel]ChannelSender, len(deps.Senders))
	for _, s := range deps.Senders {
		senders[s.Channel()] = s
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Dispatcher{
		templates:     deps.Templates,
		notifications: deps.Notifications,
		configs:       deps.Configs,
		recipients:    deps.Recipients,
		senders:       senders,
		webhook:       deps.Webhook,
		indexer:       deps.Indexer,
		logger:        log.Named("dispatcher"),
		now:           time.Now,
	}
}

// ProcessEvent dispatches every active template registered for the event's
// notification type and returns how many notifications were created.
// Unknown events are ignored.
func (d *Dispatcher) ProcessEvent(ctx context.Context, tenantID, event string, data map[string]interface{}) (int, error) {
	nt, ok := TypeForEvent(event)
	metrics.EventsDispatched.WithLabelValues(event, fmt.Sprint(ok)).Inc()
	if !ok {
		d.logger.Debug("Event has no notification type", map[string]interface{}{"event": event})
		return 0, nil
	}

	log := d.logger.WithFields(map[string]interface{}{
		"event":    event,
		"tenantId": tenantID,
		"type":     nt,
	})

	templates, err := d.templates.ActiveByType(ctx, tenantID, nt)
	if err != nil {
		log.WithError(err).Error("Failed to load templates", nil)
		return 0, errors.NewQueryExecutionFailedError("load active templates", err)
	}
	if len(templates) == 0 {
		log.Debug("No active templates for event", nil)
		return 0, nil
	}

	created := 0
	for _, tpl := range templates {
		n, err := d.processTemplate(ctx, tpl, data)
		created += n
		if err != nil {
			log.WithError(err).Error("Failed to process template", map[string]interface{}{
				"templateId": tpl.ID,
			})
		}
	}

	log.Info("Event dispatched", map[string]interface{}{
		"templates":     len(templates),
		"notifications": created,
	})
	return created, nil
}

func (d *Dispatcher) processTemplate(ctx context.Context, tpl models.Template, data map[string]interface{}) (int, error) {
	recipients, err := d.recipients.Resolve(ctx, tpl, data)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, r := range recipients {
		contact := r.ContactFor(tpl.Channel)
		if contact == "" {
			continue
		}

		now := d.now()
		templateID := tpl.ID
		tenantID := tpl.TenantID
		n := &models.SentNotification{
			TemplateID:       &templateID,
			TenantID:         &tenantID,
			NotificationType: tpl.NotificationType,
			Channel:          tpl.Channel,
			Recipient:        contact,
			Body:             Render(tpl.Body, data, r.Name, now),
			UserID:           r.UserID,
			ContextData:      models.JSONMap(data),
		}
		if tpl.Title != nil {
			title := Render(*tpl.Title, data, r.Name, now)
			n.Title = &title
		}
		if eventID, ok := stringValue(data, "event_id"); ok {
			n.EventID = &eventID
		}

		if err := d.notifications.Create(ctx, n); err != nil {
			return created, fmt.Errorf("persist notification: %w", err)
		}
		created++

		// delivery failures are recorded on the row
		_ = d.Deliver(ctx, n)
	}
	return created, nil
}

// Deliver sends n over its channel and records the outcome. A channel with
// no sender leaves the row pending.
func (d *Dispatcher) Deliver(ctx context.Context, n *models.SentNotification) error {
	log := d.logger.WithFields(map[string]interface{}{
		"notificationId": n.ID,
		"channel":        n.Channel,
	})

	sender, ok := d.senders[n.Channel]
	if !ok {
		log.Warn("No sender for channel, notification left pending", nil)
		metrics.NotificationsDelivered.WithLabelValues(string(n.Channel), string(models.StatusPending)).Inc()
		d.index(ctx, n)
		return nil
	}

	start := time.Now()
	resp, sendErr := sender.Send(ctx, n)
	metrics.NotificationDeliveryDuration.WithLabelValues(string(n.Channel)).Observe(time.Since(start).Seconds())

	if sendErr != nil {
		detail := sendErr.Error()
		attempts, err := d.notifications.MarkFailed(ctx, n.ID, detail)
		if err != nil {
			log.WithError(err).Error("Failed to record delivery failure", nil)
			attempts = n.Attempts + 1
		}
		n.Status = models.StatusFailed
		n.ErrorDetail = &detail
		n.Attempts = attempts

		metrics.NotificationsDelivered.WithLabelValues(string(n.Channel), string(models.StatusFailed)).Inc()
		log.Error("Notification delivery failed", map[string]interface{}{
			"error":    detail,
			"attempts": attempts,
		})
		d.index(ctx, n)
		return errors.NewNotificationSendFailedError(string(n.Channel), sendErr)
	}

	sentAt := d.now()
	if err := d.notifications.MarkSent(ctx, n.ID, sentAt, resp); err != nil {
		log.WithError(err).Error("Failed to record delivery", nil)
		return fmt.Errorf("record delivery of %s: %w", n.ID, err)
	}
	n.Status = models.StatusSent
	n.SentAt = &sentAt
	n.ProviderResponse = resp

	metrics.NotificationsDelivered.WithLabelValues(string(n.Channel), string(models.StatusSent)).Inc()
	log.Info("Notification sent", nil)

	if n.Channel == models.ChannelWhatsApp && d.webhook != nil && n.TenantID != nil {
		d.webhook.Notify(ctx, d.channelConfig(ctx, *n.TenantID), n)
	}
	d.index(ctx, n)
	return nil
}

// SendManual persists an operator-written notification and delivers it
// unless it is scheduled. Scheduled rows stay pending.
func (d *Dispatcher) SendManual(ctx context.Context, tenantID string, req models.ManualSendRequest) (*models.SentNotification, error) {
	if !req.Channel.Valid() {
		return nil, errors.NewInvalidChannelError(string(req.Channel))
	}
	if !req.NotificationType.Valid() {
		return nil, errors.NewInvalidRequestError("unknown notification type " + string(req.NotificationType))
	}

	contextData := models.JSONMap{
		"notification_type": req.NotificationType,
		"channel":           req.Channel,
		"recipient":         req.Recipient,
		"body":              req.Body,
	}
	if req.Title != nil {
		contextData["title"] = *req.Title
	}
	if req.EventID != nil {
		contextData["event_id"] = *req.EventID
	}
	if req.ScheduledFor != nil {
		contextData["scheduled_for"] = req.ScheduledFor.Format(time.RFC3339)
	}

	n := &models.SentNotification{
		TenantID:         &tenantID,
		NotificationType: req.NotificationType,
		Channel:          req.Channel,
		Recipient:        req.Recipient,
		Title:            req.Title,
		Body:             req.Body,
		EventID:          req.EventID,
		ScheduledFor:     req.ScheduledFor,
		ContextData:      contextData,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	if n.ScheduledFor != nil {
		d.logger.Info("Manual notification scheduled", map[string]interface{}{
			"notificationId": n.ID,
			"scheduledFor":   n.ScheduledFor,
		})
		return n, nil
	}
	return n, d.Deliver(ctx, n)
}

// SendTest delivers a canned sale_confirmed message synchronously. The
// result always describes the outcome; an error is returned only for an
// invalid channel.
func (d *Dispatcher) SendTest(ctx context.Context, tenantID string, channel models.Channel, recipient string) (*models.TestSendResult, error) {
	if !channel.Valid() {
		return nil, errors.NewInvalidChannelError(string(channel))
	}

	title := testTitle
	n := &models.SentNotification{
		TenantID:         &tenantID,
		NotificationType: models.TypeSaleConfirmed,
		Channel:          channel,
		Recipient:        recipient,
		Title:            &title,
		Body:             fmt.Sprintf(testBodyTemplate, strings.ToUpper(string(channel))),
		ContextData:      models.JSONMap{"test": true},
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return &models.TestSendResult{
			Success: false,
			Message: SendTestFailureMessage(channel, err.Error()),
			Error:   err.Error(),
		}, nil
	}

	if err := d.Deliver(ctx, n); err != nil {
		detail := failureText(err)
		return &models.TestSendResult{
			Success:        false,
			Message:        SendTestFailureMessage(channel, detail),
			NotificationID: n.ID,
			Error:          detail,
		}, nil
	}

	return &models.TestSendResult{
		Success:        true,
		Message:        fmt.Sprintf("Test sent over %s", channel.Label()),
		NotificationID: n.ID,
		Status:         n.Status,
	}, nil
}

// SendTestFailureMessage is the message of a failed test send.
func SendTestFailureMessage(channel models.Channel, detail string) string {
	return fmt.Sprintf("Error testing %s: %s", channel, detail)
}

func failureText(err error) string {
	if stdErr, ok := errors.As(err); ok && stdErr.Details != "" {
		return stdErr.Details
	}
	return err.Error()
}

// channelConfig falls back to defaults when the tenant config cannot be read.
func (d *Dispatcher) channelConfig(ctx context.Context, tenantID string) *models.ChannelConfig {
	if d.configs != nil {
		cfg, err := d.configs.GetOrDefault(ctx, tenantID)
		if err == nil {
			return cfg
		}
		d.logger.WithError(err).Warn("Using default channel config", map[string]interface{}{"tenantId": tenantID})
	}
	cfg := models.DefaultChannelConfig(tenantID)
	return &cfg
}

func (d *Dispatcher) index(ctx context.Context, n *models.SentNotification) {
	if d.indexer == nil {
		return
	}
	if err := d.indexer.IndexNotification(ctx, n); err != nil {
		d.logger.WithError(err).Warn("Failed to index notification", map[string]interface{}{
			"notificationId": n.ID,
		})
	}
}
