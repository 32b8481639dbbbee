package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soscomida/soscomida/internal/domain"
	"github.com/soscomida/soscomida/internal/usecase"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestAtomicMapsMissingRowToNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "delegations" WHERE id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.Atomic(ctx, func(tx usecase.Tx) error {
		_, err := tx.LockDelegation(ctx, "missing")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDelegationDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "delegations"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := store.Atomic(ctx, func(tx usecase.Tx) error {
		return tx.CreateDelegation(ctx, domain.Delegation{
			ID:            "d2",
			ModeratorID:   "mod-1",
			InstitutionID: "inst-2",
			Target:        domain.ReceiptRef{ID: "r1"},
			Status:        domain.DelegationPending,
			CreatedAt:     time.Now(),
		})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockReceiptRequest(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db)
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "receipt_requests" WHERE id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "household_size", "status", "c_date"}).
			AddRow("r1", "user-1", "Maria", 4, "aprovada", created))
	mock.ExpectCommit()

	var locked domain.Request
	err := store.Atomic(ctx, func(tx usecase.Tx) error {
		var err error
		locked, err = tx.LockRequest(ctx, domain.ReceiptRef{ID: "r1"})
		return err
	})
	require.NoError(t, err)

	r, ok := locked.(*domain.ReceiptRequest)
	require.True(t, ok)
	assert.Equal(t, "Maria", r.Name)
	assert.Equal(t, domain.RequestApproved, r.Status)
	assert.Equal(t, created, r.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveDelegationNone(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "delegations" WHERE donation_request_id = .* AND status IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := store.Atomic(ctx, func(tx usecase.Tx) error {
		active, err := tx.FindActiveDelegation(ctx, domain.DonationRef{ID: "d1"})
		assert.Nil(t, active)
		return err
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDelegationStatusMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "delegations" SET "status"=`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Atomic(ctx, func(tx usecase.Tx) error {
		return tx.UpdateDelegationStatus(ctx, domain.Delegation{ID: "gone", Status: domain.DelegationAccepted})
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelegationFromModelRejectsAmbiguousTarget(t *testing.T) {
	a, b := "a", "b"
	_, err := delegationFromModel(delegationToModel(domain.Delegation{ID: "x"}))
	assert.ErrorIs(t, err, domain.ErrState)

	m := delegationToModel(domain.Delegation{ID: "x", Target: domain.DonationRef{ID: a}})
	m.ReceiptRequestID = &b
	_, err = delegationFromModel(m)
	assert.ErrorIs(t, err, domain.ErrState)

	d, err := delegationFromModel(delegationToModel(domain.Delegation{ID: "x", Target: domain.ReceiptRef{ID: b}}))
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiptRef{ID: "b"}, d.Target)
}
