package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CashClosingRecipients(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`role = 'admin' OR \(role = 'promoter' AND tenant_id::text = \$1\)`).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "email"}).
			AddRow("1", "Admin", "+5511900000001", "admin@example.com").
			AddRow("7", "Promoter", "+5511900000007", ""))

	contacts, err := repo.CashClosingRecipients(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "+5511900000007", contacts[1].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE id::text = \$1`).
		WithArgs("7").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "email"}).
			AddRow("7", "Promoter", "+5511900000007", ""))
	mock.ExpectQuery(`FROM users WHERE id::text = \$1`).
		WithArgs("8").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "email"}))

	c, err := repo.ByID(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Promoter", c.Name)

	_, err = repo.ByID(context.Background(), "8")
	assert.ErrorIs(t, err, ErrNotFound)
}
