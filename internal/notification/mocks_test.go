package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"event-notifications/internal/models"
	"event-notifications/internal/repository"
)

type mockTemplateStore struct {
	ActiveByTypeFunc func(ctx context.Context, tenantID string, nt models.NotificationType) ([]models.Template, error)
}

func (m *mockTemplateStore) ActiveByType(ctx context.Context, tenantID string, nt models.NotificationType) ([]models.Template, error) {
	return m.ActiveByTypeFunc(ctx, tenantID, nt)
}

// memoryNotifications records rows in memory and assigns sequential ids.
type memoryNotifications struct {
	mu        sync.Mutex
	rows      []*models.SentNotification
	CreateErr error
	MarkErr   error
}

func (m *memoryNotifications) Create(_ context.Context, n *models.SentNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	n.ID = fmt.Sprintf("n-%d", len(m.rows)+1)
	n.Status = models.StatusPending
	cp := *n
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memoryNotifications) find(id string) *models.SentNotification {
	for _, r := range m.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (m *memoryNotifications) MarkSent(_ context.Context, id string, sentAt time.Time, resp models.JSONMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	r := m.find(id)
	r.Status = models.StatusSent
	r.SentAt = &sentAt
	r.ProviderResponse = resp
	return nil
}

func (m *memoryNotifications) MarkFailed(_ context.Context, id, detail string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id)
	r.Status = models.StatusFailed
	r.ErrorDetail = &detail
	r.Attempts++
	return r.Attempts, nil
}

type mockConfigStore struct {
	GetOrDefaultFunc func(ctx context.Context, tenantID string) (*models.ChannelConfig, error)
}

func (m *mockConfigStore) GetOrDefault(ctx context.Context, tenantID string) (*models.ChannelConfig, error) {
	return m.GetOrDefaultFunc(ctx, tenantID)
}

type mockUserStore struct {
	CashClosingRecipientsFunc func(ctx context.Context, tenantID string) ([]repository.Contact, error)
	ByIDFunc                  func(ctx context.Context, id string) (*repository.Contact, error)
}

func (m *mockUserStore) CashClosingRecipients(ctx context.Context, tenantID string) ([]repository.Contact, error) {
	return m.CashClosingRecipientsFunc(ctx, tenantID)
}

func (m *mockUserStore) ByID(ctx context.Context, id string) (*repository.Contact, error) {
	return m.ByIDFunc(ctx, id)
}

type mockSender struct {
	channel  models.Channel
	SendFunc func(ctx context.Context, n *models.SentNotification) (models.JSONMap, error)
	calls    []string
}

func (m *mockSender) Channel() models.Channel { return m.channel }

func (m *mockSender) Send(ctx context.Context, n *models.SentNotification) (models.JSONMap, error) {
	m.calls = append(m.calls, n.Recipient)
	if m.SendFunc == nil {
		return models.JSONMap{"status": "sent"}, nil
	}
	return m.SendFunc(ctx, n)
}

type mockPoster struct {
	PostJSONFunc func(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error
}

func (m *mockPoster) PostJSON(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error {
	return m.PostJSONFunc(ctx, url, headers, payload, out)
}

type mockIndexer struct {
	indexed []models.Status
}

func (m *mockIndexer) IndexNotification(_ context.Context, n *models.SentNotification) error {
	m.indexed = append(m.indexed, n.Status)
	return nil
}
