package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"event-notifications/internal/common/logger"
	"event-notifications/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configCols = []string{
	"tenant_id", "webhook_url", "webhook_api_key", "whatsapp_enabled", "whatsapp_number",
	"sms_enabled", "sms_api_key", "sms_sender", "email_enabled", "email_smtp_host",
	"email_smtp_port", "email_username", "email_password", "email_sender", "updated_at",
}

var configUpdatedAt = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

func storedConfig(tenantID string) models.ChannelConfig {
	return models.ChannelConfig{
		TenantID:        tenantID,
		WebhookURL:      "https://hooks.example.com/n",
		WebhookAPIKey:   "k-1",
		WhatsAppEnabled: true,
		WhatsAppNumber:  "+5511999990000",
		EmailSMTPPort:   587,
		UpdatedAt:       configUpdatedAt,
	}
}

func configRow(tenantID string) *sqlmock.Rows {
	return sqlmock.NewRows(configCols).AddRow(
		tenantID, "https://hooks.example.com/n", "k-1", true, "+5511999990000",
		false, "", "", false, "", 587, "", "", "", configUpdatedAt)
}

func TestConfigRepository_ReadThroughCache(t *testing.T) {
	db, mock := newMockDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewConfigRepository(db, rdb, time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(`FROM notification_configs WHERE tenant_id = \$1`).
		WithArgs("t-1").
		WillReturnRows(configRow("t-1"))

	first, err := repo.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/n", first.WebhookURL)
	assert.True(t, mr.Exists("notifcfg:t-1"))

	// second read is served from redis; no further SQL expected
	second, err := repo.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, first.WebhookURL, second.WebhookURL)
	assert.Equal(t, first.WhatsAppNumber, second.WhatsAppNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigRepository_SaveInvalidatesCache(t *testing.T) {
	db, mock := newMockDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewConfigRepository(db, rdb, time.Minute, logger.NewTestLogger(t))

	cached, _ := json.Marshal(models.DefaultChannelConfig("t-1"))
	require.NoError(t, mr.Set("notifcfg:t-1", string(cached)))

	mock.ExpectQuery(`INSERT INTO notification_configs`).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	cfg := models.DefaultChannelConfig("t-1")
	cfg.SMSEnabled = true
	require.NoError(t, repo.Save(context.Background(), &cfg))

	assert.False(t, mr.Exists("notifcfg:t-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigRepository_GetOrCreate_InsertsDefault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConfigRepository(db, nil, time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(`FROM notification_configs WHERE tenant_id = \$1`).
		WithArgs("t-2").
		WillReturnRows(sqlmock.NewRows(configCols))
	mock.ExpectQuery(`INSERT INTO notification_configs`).
		WithArgs("t-2", "", "", true, "", false, "", "", false, "", 587, "", "", "").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	cfg, err := repo.GetOrCreate(context.Background(), "t-2")
	require.NoError(t, err)
	assert.True(t, cfg.WhatsAppEnabled)
	assert.False(t, cfg.SMSEnabled)
	assert.Equal(t, 587, cfg.EmailSMTPPort)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigRepository_GetOrDefault_DoesNotPersist(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConfigRepository(db, nil, time.Minute, logger.NewTestLogger(t))

	mock.ExpectQuery(`FROM notification_configs`).
		WillReturnRows(sqlmock.NewRows(configCols))

	cfg, err := repo.GetOrDefault(context.Background(), "t-3")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultChannelConfig("t-3"), *cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigRepository_CacheErrorFallsBackToDatabase(t *testing.T) {
	db, mock := newMockDB(t)
	rdb, rmock := redismock.NewClientMock()
	repo := NewConfigRepository(db, rdb, time.Minute, logger.NewTestLogger(t))

	rmock.ExpectGet("notifcfg:t-1").SetErr(errors.New("redis down"))
	mock.ExpectQuery(`FROM notification_configs`).WillReturnRows(configRow("t-1"))
	cached, _ := json.Marshal(storedConfig("t-1"))
	rmock.ExpectSet("notifcfg:t-1", cached, time.Minute).SetErr(errors.New("redis down"))

	cfg, err := repo.Get(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, storedConfig("t-1"), *cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, rmock.ExpectationsWereMet())
}
