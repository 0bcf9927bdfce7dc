package models

import "time"

// Default SMTP submission port for new configurations.
const DefaultSMTPPort = 587

// ChannelConfig is the per-tenant channel switchboard and provider settings.
type ChannelConfig struct {
	TenantID        string    `db:"tenant_id" json:"tenant_id"`
	WebhookURL      string    `db:"webhook_url" json:"webhook_url"`
	WebhookAPIKey   string    `db:"webhook_api_key" json:"webhook_api_key"`
	WhatsAppEnabled bool      `db:"whatsapp_enabled" json:"whatsapp_enabled"`
	WhatsAppNumber  string    `db:"whatsapp_number" json:"whatsapp_number"`
	SMSEnabled      bool      `db:"sms_enabled" json:"sms_enabled"`
	SMSAPIKey       string    `db:"sms_api_key" json:"sms_api_key"`
	SMSSender       string    `db:"sms_sender" json:"sms_sender"`
	EmailEnabled    bool      `db:"email_enabled" json:"email_enabled"`
	EmailSMTPHost   string    `db:"email_smtp_host" json:"email_smtp_host"`
	EmailSMTPPort   int       `db:"email_smtp_port" json:"email_smtp_port"`
	EmailUsername   string    `db:"email_username" json:"email_user"`
	EmailPassword   string    `db:"email_password" json:"email_password"`
	EmailSender     string    `db:"email_sender" json:"email_sender"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultChannelConfig is what a tenant gets before saving anything.
func DefaultChannelConfig(tenantID string) ChannelConfig {
	return ChannelConfig{
		TenantID:        tenantID,
		WhatsAppEnabled: true,
		EmailSMTPPort:   DefaultSMTPPort,
	}
}


// ChannelConfigPatch is a partial settings update.
type ChannelConfigPatch struct {
	WebhookURL      *string `json:"webhook_url" binding:"omitempty,url"`
	WebhookAPIKey   *string `json:"webhook_api_key"`
	WhatsAppEnabled *bool   `json:"whatsapp_enabled"`
	WhatsAppNumber  *string `json:"whatsapp_number" binding:"omitempty,phone"`
	SMSEnabled      *bool   `json:"sms_enabled"`
	SMSAPIKey       *string `json:"sms_api_key"`
	SMSSender       *string `json:"sms_sender"`
	EmailEnabled    *bool   `json:"email_enabled"`
	EmailSMTPHost   *string `json:"email_smtp_host"`
	EmailSMTPPort   *int    `json:"email_smtp_port" binding:"omitempty,min=1,max=65535"`
	EmailUsername   *string `json:"email_user"`
	EmailPassword   *string `json:"email_password"`
	EmailSender     *string `json:"email_sender" binding:"omitempty,email"`
}

// Apply merges the set fields into cfg.
func (p ChannelConfigPatch) Apply(cfg *ChannelConfig) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&cfg.WebhookURL, p.WebhookURL)
	setString(&cfg.WebhookAPIKey, p.WebhookAPIKey)
	setBool(&cfg.WhatsAppEnabled, p.WhatsAppEnabled)
	setString(&cfg.WhatsAppNumber, p.WhatsAppNumber)
	setBool(&cfg.SMSEnabled, p.SMSEnabled)
	setString(&cfg.SMSAPIKey, p.SMSAPIKey)
	setString(&cfg.SMSSender, p.SMSSender)
	setBool(&cfg.EmailEnabled, p.EmailEnabled)
	setString(&cfg.EmailSMTPHost, p.EmailSMTPHost)
	if p.EmailSMTPPort != nil {
		cfg.EmailSMTPPort = *p.EmailSMTPPort
	}
	setString(&cfg.EmailUsername, p.EmailUsername)
	setString(&cfg.EmailPassword, p.EmailPassword)
	setString(&cfg.EmailSender, p.EmailSender)
}
