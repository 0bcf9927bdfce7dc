package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-notifications/internal/common/logger"
	"event-notifications/internal/common/metrics"
	"event-notifications/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const configCachePrefix = "notifcfg:"

const configColumns = `tenant_id,
	COALESCE(webhook_url, '') AS webhook_url,
	COALESCE(webhook_api_key, '') AS webhook_api_key,
	whatsapp_enabled,
	COALESCE(whatsapp_number, '') AS whatsapp_number,
	sms_enabled,
	COALESCE(sms_api_key, '') AS sms_api_key,
	COALESCE(sms_sender, '') AS sms_sender,
	email_enabled,
	COALESCE(email_smtp_host, '') AS email_smtp_host,
	email_smtp_port,
	COALESCE(email_username, '') AS email_username,
	COALESCE(email_password, '') AS email_password,
	COALESCE(email_sender, '') AS email_sender,
	updated_at`

// ConfigRepository stores per-tenant channel configuration with a
// read-through Redis cache. A nil cache disables caching.
type ConfigRepository struct {
	db     *sqlx.DB
	cache  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewConfigRepository(db *sqlx.DB, cache redis.Cmdable, ttl time.Duration, log logger.Logger) *ConfigRepository {
	return &ConfigRepository{db: db, cache: cache, ttl: ttl, logger: log}
}

func cacheKey(tenantID string) string {
	return configCachePrefix + tenantID
}

// Get returns the stored configuration or ErrNotFound.
func (r *ConfigRepository) Get(ctx context.Context, tenantID string) (*models.ChannelConfig, error) {
	if cfg, ok := r.fromCache(ctx, tenantID); ok {
		return cfg, nil
	}

	var cfg models.ChannelConfig
	err := r.db.GetContext(ctx, &cfg,
		`SELECT `+configColumns+` FROM notification_configs WHERE tenant_id = $1`, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get channel config for %s: %w", tenantID, err)
	}

	r.toCache(ctx, &cfg)
	return &cfg, nil
}

// GetOrDefault returns the stored configuration, or the default one
// without persisting it.
func (r *ConfigRepository) GetOrDefault(ctx context.Context, tenantID string) (*models.ChannelConfig, error) {
	cfg, err := r.Get(ctx, tenantID)
	if errors.Is(err, ErrNotFound) {
		def := models.DefaultChannelConfig(tenantID)
		return &def, nil
	}
	return cfg, err
}

// GetOrCreate returns the stored configuration, inserting the default one
// on first access.
func (r *ConfigRepository) GetOrCreate(ctx context.Context, tenantID string) (*models.ChannelConfig, error) {
	cfg, err := r.Get(ctx, tenantID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	def := models.DefaultChannelConfig(tenantID)
	if err := r.Save(ctx, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Save upserts cfg and drops the cached copy.
func (r *ConfigRepository) Save(ctx context.Context, cfg *models.ChannelConfig) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notification_configs
			(tenant_id, webhook_url, webhook_api_key, whatsapp_enabled, whatsapp_number,
			 sms_enabled, sms_api_key, sms_sender, email_enabled, email_smtp_host,
			 email_smtp_port, email_username, email_password, email_sender, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		 ON CONFLICT (tenant_id) DO UPDATE SET
			webhook_url = EXCLUDED.webhook_url,
			webhook_api_key = EXCLUDED.webhook_api_key,
			whatsapp_enabled = EXCLUDED.whatsapp_enabled,
			whatsapp_number = EXCLUDED.whatsapp_number,
			sms_enabled = EXCLUDED.sms_enabled,
			sms_api_key = EXCLUDED.sms_api_key,
			sms_sender = EXCLUDED.sms_sender,
			email_enabled = EXCLUDED.email_enabled,
			email_smtp_host = EXCLUDED.email_smtp_host,
			email_smtp_port = EXCLUDED.email_smtp_port,
			email_username = EXCLUDED.email_username,
			email_password = EXCLUDED.email_password,
			email_sender = EXCLUDED.email_sender,
			updated_at = NOW()
		 RETURNING updated_at`,
		cfg.TenantID, cfg.WebhookURL, cfg.WebhookAPIKey, cfg.WhatsAppEnabled, cfg.WhatsAppNumber,
		cfg.SMSEnabled, cfg.SMSAPIKey, cfg.SMSSender, cfg.EmailEnabled, cfg.EmailSMTPHost,
		cfg.EmailSMTPPort, cfg.EmailUsername, cfg.EmailPassword, cfg.EmailSender,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save channel config for %s: %w", cfg.TenantID, err)
	}

	r.invalidate(ctx, cfg.TenantID)
	return nil
}

func (r *ConfigRepository) fromCache(ctx context.Context, tenantID string) (*models.ChannelConfig, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, cacheKey(tenantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.ConfigCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.ConfigCacheLookups.WithLabelValues("error").Inc()
			r.logger.Warn("channel config cache read failed", map[string]interface{}{
				"tenantId": tenantID,
				"error":    err.Error(),
			})
		}
		return nil, false
	}

	var cfg models.ChannelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		metrics.ConfigCacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.ConfigCacheLookups.WithLabelValues("hit").Inc()
	return &cfg, true
}

func (r *ConfigRepository) toCache(ctx context.Context, cfg *models.ChannelConfig) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(cfg.TenantID), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("channel config cache write failed", map[string]interface{}{
			"tenantId": cfg.TenantID,
			"error":    err.Error(),
		})
	}
}

func (r *ConfigRepository) invalidate(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, cacheKey(tenantID)).Err(); err != nil {
		r.logger.Warn("channel config cache invalidation failed", map[string]interface{}{
			"tenantId": tenantID,
			"error":    err.Error(),
		})
	}
}
