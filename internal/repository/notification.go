package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"event-notifications/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Scope limits reporting queries to one tenant unless AllTenants is set.
type Scope struct {
	TenantID   string
	AllTenants bool
}

// NotificationRepository persists sent notifications and answers the
// reporting queries over them.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts n as a pending row.
func (r *NotificationRepository) Create(ctx context.Context, n *models.SentNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Status == "" {
		n.Status = models.StatusPending
	}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO sent_notifications
			(id, template_id, tenant_id, notification_type, channel, recipient, title, body,
			 status, attempts, event_id, user_id, context_data, scheduled_for)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at`,
		n.ID, n.TemplateID, n.TenantID, n.NotificationType, n.Channel, n.Recipient, n.Title, n.Body,
		n.Status, n.Attempts, n.EventID, n.UserID, n.ContextData, n.ScheduledFor,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// MarkSent records a successful delivery.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, response models.JSONMap) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sent_notifications
		 SET status = $1, sent_at = $2, provider_response = $3, error_detail = NULL
		 WHERE id = $4`,
		models.StatusSent, sentAt, response, id)
	if err != nil {
		return fmt.Errorf("mark notification %s sent: %w", id, err)
	}
	return nil
}

// MarkFailed records a failed delivery and returns the new attempt count.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id, detail string) (int, error) {
	var attempts int
	err := r.db.QueryRowxContext(ctx,
		`UPDATE sent_notifications
		 SET status = $1, error_detail = $2, attempts = attempts + 1
		 WHERE id = $3
		 RETURNING attempts`,
		models.StatusFailed, detail, id,
	).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("mark notification %s failed: %w", id, err)
	}
	return attempts, nil
}

const historyColumns = `n.id, n.template_id, n.tenant_id, n.notification_type, n.channel, n.recipient,
	n.title, n.body, n.status, n.attempts, n.event_id, n.user_id, n.scheduled_for, n.sent_at,
	n.created_at, n.error_detail, e.name AS event_name, u.name AS user_name`

// History returns rows matching every set field of f, newest first.
func (r *NotificationRepository) History(ctx context.Context, f models.HistoryFilter) ([]models.SentNotification, error) {
	where, args := historyWhere(f)

	query := `SELECT ` + historyColumns + `
		FROM sent_notifications n
		LEFT JOIN events e ON e.id::text = n.event_id
		LEFT JOIN users u ON u.id::text = n.user_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	args = append(args, f.Offset, f.Limit)
	query += fmt.Sprintf(` ORDER BY n.created_at DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	rows := []models.SentNotification{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return rows, nil
}

func historyWhere(f models.HistoryFilter) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if !f.AllTenants {
		add("n.tenant_id = $%d", f.TenantID)
	}
	if f.NotificationType != "" {
		add("n.notification_type = $%d", f.NotificationType)
	}
	if f.Channel != "" {
		add("n.channel = $%d", f.Channel)
	}
	if f.Status != "" {
		add("n.status = $%d", f.Status)
	}
	if f.EventID != "" {
		add("n.event_id = $%d", f.EventID)
	}
	if f.Recipient != "" {
		add("n.recipient ILIKE $%d", "%"+f.Recipient+"%")
	}
	if f.DateFrom != nil {
		add("n.created_at::date >= $%d::date", f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		add("n.created_at::date <= $%d::date", f.DateTo.Format("2006-01-02"))
	}
	return where, args
}

func scopeClause(s Scope, argIndex int) (string, []interface{}) {
	if s.AllTenants {
		return "TRUE", nil
	}
	return fmt.Sprintf("tenant_id = $%d", argIndex), []interface{}{s.TenantID}
}

// DailyCounts holds the dashboard counters for one day.
type DailyCounts struct {
	SentToday   int64 `db:"sent_today"`
	FailedToday int64 `db:"failed_today"`
	TotalToday  int64 `db:"total_today"`
	Pending     int64 `db:"pending"`
}

// CountDay returns counters for rows created in [dayStart, dayStart+24h) and
// the all-time pending count.
func (r *NotificationRepository) CountDay(ctx context.Context, s Scope, dayStart time.Time) (DailyCounts, error) {
	scope, scopeArgs := scopeClause(s, 3)
	args := append([]interface{}{dayStart, dayStart.Add(24 * time.Hour)}, scopeArgs...)

	var c DailyCounts
	err := r.db.GetContext(ctx, &c,
		`SELECT
			COUNT(*) FILTER (WHERE status = 'sent' AND created_at >= $1 AND created_at < $2) AS sent_today,
			COUNT(*) FILTER (WHERE status = 'failed' AND created_at >= $1 AND created_at < $2) AS failed_today,
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2) AS total_today,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending
		 FROM sent_notifications WHERE `+scope, args...)
	if err != nil {
		return DailyCounts{}, fmt.Errorf("count daily notifications: %w", err)
	}
	return c, nil
}

// Recent returns the newest rows.
func (r *NotificationRepository) Recent(ctx context.Context, s Scope, limit int) ([]models.RecentNotification, error) {
	scope, scopeArgs := scopeClause(s, 2)
	args := append([]interface{}{limit}, scopeArgs...)

	rows := []models.RecentNotification{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, notification_type, channel, recipient, body, status, created_at, sent_at
		 FROM sent_notifications WHERE `+scope+`
		 ORDER BY created_at DESC LIMIT $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent notifications: %w", err)
	}
	return rows, nil
}

// TypeCounts groups rows created since by type.
func (r *NotificationRepository) TypeCounts(ctx context.Context, s Scope, since time.Time) ([]models.TypeCount, error) {
	scope, scopeArgs := scopeClause(s, 2)
	args := append([]interface{}{since}, scopeArgs...)

	rows := []models.TypeCount{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT notification_type, COUNT(*) AS count
		 FROM sent_notifications WHERE created_at >= $1 AND `+scope+`
		 GROUP BY notification_type ORDER BY count DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("count notifications by type: %w", err)
	}
	return rows, nil
}

// ChannelSummaries groups rows created since by channel with sent counts.
func (r *NotificationRepository) ChannelSummaries(ctx context.Context, s Scope, since time.Time) ([]models.ChannelSummary, error) {
	scope, scopeArgs := scopeClause(s, 2)
	args := append([]interface{}{since}, scopeArgs...)

	rows := []models.ChannelSummary{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT channel, COUNT(*) AS total, COUNT(*) FILTER (WHERE status = 'sent') AS sent
		 FROM sent_notifications WHERE created_at >= $1 AND `+scope+`
		 GROUP BY channel ORDER BY channel`, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize channels: %w", err)
	}
	return rows, nil
}

// ChannelBreakdown returns per-channel status counts and the average
// created-to-sent latency of sent rows, for rows created since.
func (r *NotificationRepository) ChannelBreakdown(ctx context.Context, s Scope, since time.Time) ([]models.ChannelBreakdown, error) {
	scope, scopeArgs := scopeClause(s, 2)
	args := append([]interface{}{since}, scopeArgs...)

	rows := []models.ChannelBreakdown{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT channel,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'sent') AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COALESCE(AVG(EXTRACT(EPOCH FROM (sent_at - created_at))) FILTER (WHERE status = 'sent'), 0) AS avg_send_seconds
		 FROM sent_notifications WHERE created_at >= $1 AND `+scope+`
		 GROUP BY channel`, args...)
	if err != nil {
		return nil, fmt.Errorf("break down channels: %w", err)
	}
	return rows, nil
}
