package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the tables this service owns. users and events
// belong to the surrounding platform and are only read.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS notification_templates (
		id                  UUID PRIMARY KEY,
		tenant_id           TEXT NOT NULL,
		name                TEXT NOT NULL,
		notification_type   TEXT NOT NULL,
		channel             TEXT NOT NULL,
		title               TEXT,
		body                TEXT NOT NULL,
		active              BOOLEAN NOT NULL DEFAULT TRUE,
		available_variables TEXT NOT NULL DEFAULT '',
		created_by          TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notification_templates_lookup
		ON notification_templates (tenant_id, notification_type, channel) WHERE active`,
	`CREATE TABLE IF NOT EXISTS sent_notifications (
		id                UUID PRIMARY KEY,
		template_id       UUID REFERENCES notification_templates(id),
		tenant_id         TEXT,
		notification_type TEXT NOT NULL,
		channel           TEXT NOT NULL,
		recipient         TEXT NOT NULL,
		title             TEXT,
		body              TEXT NOT NULL,
		status            TEXT NOT NULL DEFAULT 'pending',
		attempts          INTEGER NOT NULL DEFAULT 0,
		event_id          TEXT,
		user_id           TEXT,
		context_data      JSONB,
		scheduled_for     TIMESTAMPTZ,
		sent_at           TIMESTAMPTZ,
		error_detail      TEXT,
		provider_response JSONB,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sent_notifications_created
		ON sent_notifications (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_sent_notifications_tenant_status
		ON sent_notifications (tenant_id, status)`,
	`CREATE TABLE IF NOT EXISTS notification_configs (
		tenant_id        TEXT PRIMARY KEY,
		webhook_url      TEXT,
		webhook_api_key  TEXT,
		whatsapp_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		whatsapp_number  TEXT,
		sms_enabled      BOOLEAN NOT NULL DEFAULT FALSE,
		sms_api_key      TEXT,
		sms_sender       TEXT,
		email_enabled    BOOLEAN NOT NULL DEFAULT FALSE,
		email_smtp_host  TEXT,
		email_smtp_port  INTEGER NOT NULL DEFAULT 587,
		email_username   TEXT,
		email_password   TEXT,
		email_sender     TEXT,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the owned tables when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i, err)
		}
	}
	return nil
}
