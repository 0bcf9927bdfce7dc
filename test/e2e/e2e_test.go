//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-notifications/internal/api"
	"event-notifications/internal/common/auth"
	"event-notifications/internal/common/config"
	"event-notifications/internal/common/database"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/models"
	"event-notifications/internal/notification"
	"event-notifications/internal/reporting"
	"event-notifications/internal/repository"
)

// Runs against a local postgres (and redis when REDIS_ADDRESS is set):
//
//	go test -tags e2e ./test/e2e/...
func TestMain(m *testing.M) {
	defaults := map[string]string{
		"DB_HOST":     "localhost",
		"DB_NAME":     "notifications",
		"DB_USER":     "postgres",
		"DB_PASSWORD": "postgres",
		"JWT_SECRET":  "e2e-secret",
	}
	for k, v := range defaults {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
	os.Exit(m.Run())
}

type stack struct {
	server *httptest.Server
	token  string
	api    *api.Handler
}

func TestFullE2E(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)

	t.Log("🚀 Starting E2E test against real services...")

	pg := connectPostgres(ctx, t, cfg)
	cache := connectRedis(ctx, t, cfg)
	createDatabaseTables(ctx, t, pg)

	tenantID := uuid.NewString()
	s := buildStack(t, cfg, pg, cache, tenantID)
	defer s.server.Close()

	phone := "+55119" + uuid.NewString()[:8]

	// 1. enable sms for the tenant
	var settings models.ChannelConfig
	s.call(t, http.MethodPut, "/settings", map[string]interface{}{"sms_enabled": true}, http.StatusOK, &settings)
	assert.True(t, settings.SMSEnabled)

	// 2. register a template for confirmed sales
	var tpl models.Template
	s.call(t, http.MethodPost, "/templates", map[string]interface{}{
		"name":              "Sale confirmation",
		"notification_type": "sale_confirmed",
		"channel":           "sms",
		"body":              "Hi {name}, your ticket for {event_name} is confirmed",
	}, http.StatusCreated, &tpl)
	assert.True(t, tpl.Active)

	// a second active template for the same type and channel is rejected
	s.call(t, http.MethodPost, "/templates", map[string]interface{}{
		"name":              "Duplicate",
		"notification_type": "sale_confirmed",
		"channel":           "sms",
		"body":              "x",
	}, http.StatusBadRequest, nil)

	// 3. dispatch the platform event
	var dispatched struct {
		Dispatched int  `json:"dispatched"`
		Mapped     bool `json:"mapped"`
	}
	s.call(t, http.MethodPost, "/events", map[string]interface{}{
		"event": "sale_approved",
		"context": map[string]interface{}{
			"buyer_cpf":   "123.456.789-00",
			"buyer_phone": phone,
			"buyer_name":  "Ana",
			"event_name":  "Summer Fest",
		},
	}, http.StatusOK, &dispatched)
	assert.True(t, dispatched.Mapped)
	assert.Equal(t, 1, dispatched.Dispatched)

	// 4. the delivery shows up in history
	var history []models.SentNotification
	s.call(t, http.MethodGet, "/history?channel=sms&recipient="+phone[1:], nil, http.StatusOK, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusSent, history[0].Status)
	assert.Equal(t, "Hi Ana, your ticket for Summer Fest is confirmed", history[0].Body)
	assert.NotNil(t, history[0].SentAt)

	// 5. dashboard and statistics
	var dash models.Dashboard
	s.call(t, http.MethodGet, "/dashboard", nil, http.StatusOK, &dash)
	assert.GreaterOrEqual(t, dash.SentToday, int64(1))

	var stats models.ChannelStatistics
	s.call(t, http.MethodGet, "/statistics/channels?period_days=1", nil, http.StatusOK, &stats)
	assert.Len(t, stats.Channels, 4)

	// 6. export
	records := s.exportCSV(t, "/export/csv?recipient="+phone[1:])
	require.Len(t, records, 2)
	assert.Equal(t, "sms", records[1][2])

	// 7. synchronous channel test
	var result models.TestSendResult
	s.call(t, http.MethodPost, "/channels/sms/test?recipient="+phone, nil, http.StatusOK, &result)
	assert.True(t, result.Success)

	// 8. manual send is accepted and delivered in the background
	s.call(t, http.MethodPost, "/send", map[string]interface{}{
		"notification_type": "financial_alert",
		"channel":           "sms",
		"recipient":         phone,
		"body":              "Gate opens at 8pm",
	}, http.StatusAccepted, nil)
	s.api.Wait()

	s.call(t, http.MethodGet, "/history?notification_type=financial_alert&recipient="+phone[1:], nil, http.StatusOK, &history)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusSent, history[0].Status)

	// 9. deactivation
	s.call(t, http.MethodDelete, "/templates/"+tpl.ID, nil, http.StatusOK, nil)

	t.Log("✅ E2E flow passed")
}

func connectPostgres(ctx context.Context, t *testing.T, cfg *config.Config) *database.PostgresClient {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL client creation failed")
	require.NoError(t, pg.Ping(ctx), "❌ PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })
	t.Log("✅ PostgreSQL connected")
	return pg
}

func connectRedis(ctx context.Context, t *testing.T, cfg *config.Config) redis.Cmdable {
	if cfg.Database.Redis.Address == "" {
		t.Log("ℹ️ Redis not configured, config cache disabled")
		return nil
	}
	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	require.NoError(t, rdb.Ping(ctx), "❌ Redis ping failed")
	t.Cleanup(func() { rdb.Close() })
	t.Log("✅ Redis connected")
	return rdb.Client
}

// createDatabaseTables migrates the owned schema and creates minimal
// versions of the platform tables the reports join against.
func createDatabaseTables(ctx context.Context, t *testing.T, pg *database.PostgresClient) {
	require.NoError(t, database.Migrate(ctx, pg.DB))

	platform := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id        UUID PRIMARY KEY,
			name      TEXT,
			phone     TEXT,
			email     TEXT,
			role      TEXT NOT NULL DEFAULT 'promoter',
			tenant_id UUID,
			active    BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id   UUID PRIMARY KEY,
			name TEXT NOT NULL
		)`,
	}
	for _, stmt := range platform {
		_, err := pg.DB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	t.Log("✅ Database tables ready")
}

func buildStack(t *testing.T, cfg *config.Config, pg *database.PostgresClient, cache redis.Cmdable, tenantID string) *stack {
	log := logger.NewTestLogger(t)

	templates := repository.NewTemplateRepository(pg.DB)
	notifications := repository.NewNotificationRepository(pg.DB)
	configs := repository.NewConfigRepository(pg.DB, cache, time.Minute, log)

	dispatcher := notification.NewDispatcher(notification.Dependencies{
		Templates:     templates,
		Notifications: notifications,
		Configs:       configs,
		Recipients:    notification.NewRecipientResolver(repository.NewUserRepository(pg.DB)),
		Senders: []notification.ChannelSender{
			notification.NewMockSender(models.ChannelSMS, 0),
			notification.NewMockSender(models.ChannelEmail, 0),
		},
		Logger: log,
	})

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	h := api.NewHandler(api.Dependencies{
		Templates:  notification.NewTemplateService(templates),
		Reporting:  reporting.NewService(notifications, reporting.Config{}, log),
		Dispatcher: dispatcher,
		Settings:   configs,
		Tokens:     verifier,
		Checks:     map[string]api.ReadinessCheck{"postgres": pg.Ping},
		Logger:     log,
	})
	router, err := api.NewRouter(h)
	require.NoError(t, err)

	// admins read across tenants, so history assertions filter by recipient
	token, err := verifier.Issue(auth.Principal{UserID: uuid.NewString(), TenantID: tenantID, Role: auth.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	return &stack{server: httptest.NewServer(router), token: token, api: h}
}

func (s *stack) request(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+api.BasePath+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	res, err := s.server.Client().Do(req)
	require.NoError(t, err)
	return res
}

func (s *stack) call(t *testing.T, method, path string, body interface{}, wantStatus int, out interface{}) {
	t.Helper()
	res := s.request(t, method, path, body)
	defer res.Body.Close()

	require.Equal(t, wantStatus, res.StatusCode, "%s %s", method, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
}

func (s *stack) exportCSV(t *testing.T, path string) [][]string {
	t.Helper()
	res := s.request(t, http.MethodGet, path, nil)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	records, err := csv.NewReader(res.Body).ReadAll()
	require.NoError(t, err)
	return records
}
