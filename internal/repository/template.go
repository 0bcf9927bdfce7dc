package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"event-notifications/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const templateColumns = `id, tenant_id, name, notification_type, channel, title, body,
	active, available_variables, created_by, created_at, updated_at`

// TemplateRepository persists notification templates.
type TemplateRepository struct {
	db *sqlx.DB
}

func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// List returns the tenant's templates, newest first.
func (r *TemplateRepository) List(ctx context.Context, tenantID string, f models.TemplateFilter) ([]models.Template, error) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}

	if f.NotificationType != "" {
		args = append(args, f.NotificationType)
		where = append(where, fmt.Sprintf("notification_type = $%d", len(args)))
	}
	if f.Channel != "" {
		args = append(args, f.Channel)
		where = append(where, fmt.Sprintf("channel = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}

	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	templates := []models.Template{}
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// Get fetches one template owned by tenantID.
func (r *TemplateRepository) Get(ctx context.Context, tenantID, id string) (*models.Template, error) {
	var t models.Template
	err := r.db.GetContext(ctx, &t,
		`SELECT `+templateColumns+` FROM notification_templates WHERE id = $1 AND tenant_id = $2`,
		id, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get template %s: %w", id, err)
	}
	return &t, nil
}

// ActiveExists reports whether the tenant already has an active template
// for the type and channel.
func (r *TemplateRepository) ActiveExists(ctx context.Context, tenantID string, nt models.NotificationType, ch models.Channel) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (
			SELECT 1 FROM notification_templates
			WHERE tenant_id = $1 AND notification_type = $2 AND channel = $3 AND active
		)`, tenantID, nt, ch)
	if err != nil {
		return false, fmt.Errorf("check active template: %w", err)
	}
	return exists, nil
}

// ActiveByType returns the tenant's active templates of one type.
func (r *TemplateRepository) ActiveByType(ctx context.Context, tenantID string, nt models.NotificationType) ([]models.Template, error) {
	templates := []models.Template{}
	err := r.db.SelectContext(ctx, &templates,
		`SELECT `+templateColumns+` FROM notification_templates
		 WHERE tenant_id = $1 AND notification_type = $2 AND active
		 ORDER BY created_at`, tenantID, nt)
	if err != nil {
		return nil, fmt.Errorf("load active templates for %s: %w", nt, err)
	}
	return templates, nil
}

// Create inserts t, assigning its id and timestamps.
func (r *TemplateRepository) Create(ctx context.Context, t *models.Template) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notification_templates
			(id, tenant_id, name, notification_type, channel, title, body, active, available_variables, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		t.ID, t.TenantID, t.Name, t.NotificationType, t.Channel, t.Title, t.Body,
		t.Active, t.AvailableVariables, t.CreatedBy,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// Update writes the mutable fields of t.
func (r *TemplateRepository) Update(ctx context.Context, t *models.Template) error {
	err := r.db.QueryRowxContext(ctx,
		`UPDATE notification_templates
		 SET name = $1, title = $2, body = $3, active = $4, updated_at = $5
		 WHERE id = $6 AND tenant_id = $7
		 RETURNING updated_at`,
		t.Name, t.Title, t.Body, t.Active, time.Now().UTC(), t.ID, t.TenantID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update template %s: %w", t.ID, err)
	}
	return nil
}

// Deactivate soft-deletes a template. The row is kept for history joins.
func (r *TemplateRepository) Deactivate(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_templates SET active = FALSE, updated_at = $1
		 WHERE id = $2 AND tenant_id = $3`,
		time.Now().UTC(), id, tenantID)
	if err != nil {
		return fmt.Errorf("deactivate template %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate template %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
