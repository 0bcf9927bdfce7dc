package models

import "time"

// Dashboard summarizes today's activity and the last seven days.
type Dashboard struct {
	SentToday    int64                `json:"sent_today"`
	Pending      int64                `json:"pending"`
	FailedToday  int64                `json:"failed_today"`
	SuccessRate  float64              `json:"success_rate"`
	Recent       []RecentNotification `json:"recent_notifications"`
	TypeCounts   []TypeCount          `json:"type_counts"`
	ChannelStats []ChannelSummary     `json:"channel_stats"`
}

// RecentNotification is a dashboard row with a shortened body.
type RecentNotification struct {
	ID               string           `db:"id" json:"id"`
	NotificationType NotificationType `db:"notification_type" json:"notification_type"`
	Channel          Channel          `db:"channel" json:"channel"`
	Recipient        string           `db:"recipient" json:"recipient"`
	Body             string           `db:"body" json:"body"`
	Status           Status           `db:"status" json:"status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	SentAt           *time.Time       `db:"sent_at" json:"sent_at"`
}

type TypeCount struct {
	NotificationType NotificationType `db:"notification_type" json:"notification_type"`
	Count            int64            `db:"count" json:"count"`
}

type ChannelSummary struct {
	Channel     Channel `db:"channel" json:"channel"`
	Total       int64   `db:"total" json:"total"`
	Sent        int64   `db:"sent" json:"sent"`
	SuccessRate float64 `db:"-" json:"success_rate"`
}

// ChannelStatistics is the per-channel breakdown over a period.
type ChannelStatistics struct {
	PeriodDays int                `json:"period_days"`
	Since      time.Time          `json:"since"`
	Channels   []ChannelBreakdown `json:"channels"`
	Summary    StatisticsSummary  `json:"summary"`
}

type ChannelBreakdown struct {
	Channel        Channel `db:"channel" json:"channel"`
	Label          string  `db:"-" json:"label"`
	Total          int64   `db:"total" json:"total"`
	Sent           int64   `db:"sent" json:"sent"`
	Failed         int64   `db:"failed" json:"failed"`
	Pending        int64   `db:"pending" json:"pending"`
	SuccessRate    float64 `db:"-" json:"success_rate"`
	AvgSendSeconds float64 `db:"avg_send_seconds" json:"avg_send_seconds"`
	Active         bool    `db:"-" json:"active"`
}

type StatisticsSummary struct {
	MostUsedChannel    *Channel `json:"most_used_channel"`
	BestSuccessChannel *Channel `json:"best_success_channel"`
	Total              int64    `json:"total"`
}
