package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogs(t *testing.T) {
	assert.Len(t, AllNotificationTypes(), 9)
	for _, nt := range AllNotificationTypes() {
		assert.True(t, nt.Valid(), nt)
		assert.NotEqual(t, string(nt), nt.Label())
	}
	assert.False(t, NotificationType("coupon_issued").Valid())
	assert.Equal(t, "coupon_issued", NotificationType("coupon_issued").Label())

	assert.Equal(t, []Channel{ChannelWhatsApp, ChannelSMS, ChannelEmail, ChannelPush}, AllChannels())
	assert.Equal(t, "E-mail", ChannelEmail.Label())
	assert.Equal(t, "Push Notification", ChannelPush.Label())
	assert.False(t, Channel("fax").Valid())
}

func TestJSONMap_Scan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"status":"sent","provider":"mock_sms"}`)))
	assert.Equal(t, "mock_sms", m["provider"])

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	require.NoError(t, m.Scan(`{"a":1}`))
	assert.Equal(t, float64(1), m["a"])

	assert.Error(t, m.Scan(42))
}

func TestJSONMap_Value(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JSONMap{"k": "v"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(v.([]byte)))
}

func TestDefaultChannelConfig(t *testing.T) {
	cfg := DefaultChannelConfig("tenant-1")
	assert.Equal(t, "tenant-1", cfg.TenantID)
	assert.True(t, cfg.WhatsAppEnabled)
	assert.False(t, cfg.SMSEnabled)
	assert.False(t, cfg.EmailEnabled)
	assert.Equal(t, 587, cfg.EmailSMTPPort)
}

func TestChannelConfigPatch_Apply(t *testing.T) {
	cfg := DefaultChannelConfig("tenant-1")
	cfg.SMSSender = "EVENTS"

	url := "https://hooks.example.com/n"
	off := false
	on := true
	port := 2525
	ChannelConfigPatch{
		WebhookURL:      &url,
		WhatsAppEnabled: &off,
		EmailEnabled:    &on,
		EmailSMTPPort:   &port,
	}.Apply(&cfg)

	assert.Equal(t, url, cfg.WebhookURL)
	assert.False(t, cfg.WhatsAppEnabled)
	assert.True(t, cfg.EmailEnabled)
	assert.Equal(t, 2525, cfg.EmailSMTPPort)
	assert.Equal(t, "EVENTS", cfg.SMSSender, "unset fields are preserved")
}
