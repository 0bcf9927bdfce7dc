package notification

import (
	"context"
	"testing"

	commonerrors "event-notifications/internal/common/errors"
	"event-notifications/internal/models"
	"event-notifications/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTemplates struct {
	rows map[string]*models.Template
}

func newMemoryTemplates(seed ...models.Template) *memoryTemplates {
	m := &memoryTemplates{rows: map[string]*models.Template{}}
	for i := range seed {
		t := seed[i]
		m.rows[t.ID] = &t
	}
	return m
}

func (m *memoryTemplates) List(_ context.Context, tenantID string, _ models.TemplateFilter) ([]models.Template, error) {
	out := []models.Template{}
	for _, t := range m.rows {
		if t.TenantID == tenantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memoryTemplates) Get(_ context.Context, tenantID, id string) (*models.Template, error) {
	t, ok := m.rows[id]
	if !ok || t.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memoryTemplates) ActiveExists(_ context.Context, tenantID string, nt models.NotificationType, ch models.Channel) (bool, error) {
	for _, t := range m.rows {
		if t.TenantID == tenantID && t.NotificationType == nt && t.Channel == ch && t.Active {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryTemplates) Create(_ context.Context, t *models.Template) error {
	t.ID = "tpl-new"
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memoryTemplates) Update(_ context.Context, t *models.Template) error {
	if _, ok := m.rows[t.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memoryTemplates) Deactivate(_ context.Context, tenantID, id string) error {
	t, ok := m.rows[id]
	if !ok || t.TenantID != tenantID {
		return repository.ErrNotFound
	}
	t.Active = false
	return nil
}

func TestTemplateService_Create(t *testing.T) {
	repo := newMemoryTemplates()
	svc := NewTemplateService(repo)

	tpl, err := svc.Create(context.Background(), "t-1", "u-1", models.TemplateInput{
		Name:             "Birthday",
		NotificationType: models.TypeBirthday,
		Channel:          models.ChannelWhatsApp,
		Body:             "Happy birthday {name}!",
	})
	require.NoError(t, err)
	assert.True(t, tpl.Active)
	assert.Equal(t, "u-1", *tpl.CreatedBy)
	assert.Equal(t, "{name}, {current_date}, {current_time}, {event_name}, {event_date}", tpl.AvailableVariables)
}

func TestTemplateService_Create_RejectsDuplicateActive(t *testing.T) {
	repo := newMemoryTemplates(models.Template{
		ID: "tpl-1", TenantID: "t-1", NotificationType: models.TypeBirthday, Channel: models.ChannelWhatsApp, Active: true,
	})
	svc := NewTemplateService(repo)
	in := models.TemplateInput{
		Name: "Second", NotificationType: models.TypeBirthday, Channel: models.ChannelWhatsApp, Body: "x",
	}

	_, err := svc.Create(context.Background(), "t-1", "u-1", in)
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeDuplicateActiveTemplate))

	// other tenants and inactive drafts are unaffected
	_, err = svc.Create(context.Background(), "t-2", "u-1", in)
	assert.NoError(t, err)

	inactive := false
	in.Active = &inactive
	_, err = svc.Create(context.Background(), "t-1", "u-1", in)
	assert.NoError(t, err)
}

func TestTemplateService_Update(t *testing.T) {
	repo := newMemoryTemplates(
		models.Template{ID: "tpl-1", TenantID: "t-1", Name: "Old", Body: "old", NotificationType: models.TypeBirthday, Channel: models.ChannelSMS, Active: true},
		models.Template{ID: "tpl-2", TenantID: "t-1", Name: "Draft", Body: "draft", NotificationType: models.TypeBirthday, Channel: models.ChannelSMS},
	)
	svc := NewTemplateService(repo)

	body := "new {name}"
	tpl, err := svc.Update(context.Background(), "t-1", "tpl-1", models.TemplatePatch{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, "Old", tpl.Name)
	assert.Equal(t, "new {name}", repo.rows["tpl-1"].Body)

	active := true
	_, err = svc.Update(context.Background(), "t-1", "tpl-2", models.TemplatePatch{Active: &active})
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeDuplicateActiveTemplate))

	_, err = svc.Update(context.Background(), "t-1", "missing", models.TemplatePatch{Body: &body})
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeTemplateNotFound))
}

func TestTemplateService_Delete(t *testing.T) {
	repo := newMemoryTemplates(models.Template{ID: "tpl-1", TenantID: "t-1", Active: true})
	svc := NewTemplateService(repo)

	require.NoError(t, svc.Delete(context.Background(), "t-1", "tpl-1"))
	assert.False(t, repo.rows["tpl-1"].Active)
	assert.Contains(t, repo.rows, "tpl-1")

	err := svc.Delete(context.Background(), "t-2", "tpl-1")
	assert.True(t, commonerrors.HasCode(err, commonerrors.ErrCodeTemplateNotFound))
}
