package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Contact is a platform user reachable by phone or e-mail.
type Contact struct {
	UserID string `db:"id"`
	Name   string `db:"name"`
	Phone  string `db:"phone"`
	Email  string `db:"email"`
}

// UserRepository reads the platform's users table.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CashClosingRecipients returns active users with a phone who are admins,
// or promoters belonging to tenantID.
func (r *UserRepository) CashClosingRecipients(ctx context.Context, tenantID string) ([]Contact, error) {
	contacts := []Contact{}
	err := r.db.SelectContext(ctx, &contacts,
		`SELECT id::text AS id, COALESCE(name, '') AS name, phone, COALESCE(email, '') AS email
		 FROM users
		 WHERE active AND phone IS NOT NULL AND phone <> ''
		   AND (role = 'admin' OR (role = 'promoter' AND tenant_id::text = $1))
		 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load cash closing recipients: %w", err)
	}
	return contacts, nil
}

// ByID returns one user's contact details or ErrNotFound.
func (r *UserRepository) ByID(ctx context.Context, id string) (*Contact, error) {
	var c Contact
	err := r.db.GetContext(ctx, &c,
		`SELECT id::text AS id, COALESCE(name, '') AS name, COALESCE(phone, '') AS phone, COALESCE(email, '') AS email
		 FROM users WHERE id::text = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &c, nil
}
