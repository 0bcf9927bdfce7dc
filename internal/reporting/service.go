// Package reporting answers the read side of the notification service:
// history, dashboard counters and per-channel statistics.
package reporting

import (
	"context"
	"math"
	"time"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/models"
	"event-notifications/internal/repository"
)

const (
	recentLimit        = 10
	recentBodyMaxChars = 100
	dashboardWindow    = 7 * 24 * time.Hour
)

// Store is the reporting subset of the notification repository.
type Store interface {
	History(ctx context.Context, f models.HistoryFilter) ([]models.SentNotification, error)
	CountDay(ctx context.Context, s repository.Scope, dayStart time.Time) (repository.DailyCounts, error)
	Recent(ctx context.Context, s repository.Scope, limit int) ([]models.RecentNotification, error)
	TypeCounts(ctx context.Context, s repository.Scope, since time.Time) ([]models.TypeCount, error)
	ChannelSummaries(ctx context.Context, s repository.Scope, since time.Time) ([]models.ChannelSummary, error)
	ChannelBreakdown(ctx context.Context, s repository.Scope, since time.Time) ([]models.ChannelBreakdown, error)
}

type Config struct {
	DefaultLimit      int
	MaxLimit          int
	ExportLimit       int
	DefaultPeriodDays int
}

type Service struct {
	store  Store
	config Config
	logger logger.Logger
	now    func() time.Time
}

func NewService(store Store, cfg Config, log logger.Logger) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 1000
	}
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = 10000
	}
	if cfg.DefaultPeriodDays <= 0 {
		cfg.DefaultPeriodDays = 30
	}
	return &Service{store: store, config: cfg, logger: log, now: time.Now}
}

// History returns one page of notifications. Limits outside [1, MaxLimit]
// are replaced by the default or clamped.
func (s *Service) History(ctx context.Context, f models.HistoryFilter) ([]models.SentNotification, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = s.config.DefaultLimit
	case f.Limit > s.config.MaxLimit:
		f.Limit = s.config.MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	rows, err := s.store.History(ctx, f)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("notification history", err)
	}
	return rows, nil
}

// ExportRows returns the rows an export covers: the caller's history filter
// and offset with the limit replaced by the export limit.
func (s *Service) ExportRows(ctx context.Context, f models.HistoryFilter) ([]models.SentNotification, error) {
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Limit = s.config.ExportLimit

	rows, err := s.store.History(ctx, f)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("export history", err)
	}
	return rows, nil
}

// Dashboard builds today's counters plus the seven day breakdowns.
func (s *Service) Dashboard(ctx context.Context, scope repository.Scope) (*models.Dashboard, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	since := dayStart.Add(-dashboardWindow)

	counts, err := s.store.CountDay(ctx, scope, dayStart)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("dashboard counters", err)
	}
	recent, err := s.store.Recent(ctx, scope, recentLimit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("dashboard recent", err)
	}
	types, err := s.store.TypeCounts(ctx, scope, since)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("dashboard types", err)
	}
	channels, err := s.store.ChannelSummaries(ctx, scope, since)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("dashboard channels", err)
	}

	for i := range recent {
		recent[i].Body = truncate(recent[i].Body, recentBodyMaxChars)
	}
	for i := range channels {
		channels[i].SuccessRate = rate(channels[i].Sent, channels[i].Total)
	}

	return &models.Dashboard{
		SentToday:    counts.SentToday,
		Pending:      counts.Pending,
		FailedToday:  counts.FailedToday,
		SuccessRate:  rate(counts.SentToday, counts.TotalToday),
		Recent:       recent,
		TypeCounts:   types,
		ChannelStats: channels,
	}, nil
}

// ChannelStatistics reports every channel over the last periodDays, zero
// filled for channels with no traffic. periodDays <= 0 uses the default.
func (s *Service) ChannelStatistics(ctx context.Context, scope repository.Scope, periodDays int) (*models.ChannelStatistics, error) {
	if periodDays <= 0 {
		periodDays = s.config.DefaultPeriodDays
	}
	since := s.now().AddDate(0, 0, -periodDays)

	rows, err := s.store.ChannelBreakdown(ctx, scope, since)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("channel statistics", err)
	}
	byChannel := make(map[models.Channel]models.ChannelBreakdown, len(rows))
	for _, r := range rows {
		byChannel[r.Channel] = r
	}

	stats := &models.ChannelStatistics{PeriodDays: periodDays, Since: since}
	var mostUsed, bestRate *models.ChannelBreakdown
	for _, ch := range models.AllChannels() {
		b := byChannel[ch]
		b.Channel = ch
		b.Label = ch.Label()
		b.SuccessRate = rate(b.Sent, b.Total)
		b.AvgSendSeconds = round2(b.AvgSendSeconds)
		b.Active = b.Total > 0
		stats.Channels = append(stats.Channels, b)
		stats.Summary.Total += b.Total
	}

	if stats.Summary.Total > 0 {
		for i := range stats.Channels {
			c := &stats.Channels[i]
			if mostUsed == nil || c.Total > mostUsed.Total {
				mostUsed = c
			}
			if bestRate == nil || c.SuccessRate > bestRate.SuccessRate {
				bestRate = c
			}
		}
		stats.Summary.MostUsedChannel = &mostUsed.Channel
		stats.Summary.BestSuccessChannel = &bestRate.Channel
	}
	return stats, nil
}

func rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// truncate shortens s to max runes followed by "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
