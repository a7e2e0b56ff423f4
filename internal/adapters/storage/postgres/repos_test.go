package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPetsRepo_GetByIDNotFoundWrapsDomainSentinel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pets")).
		WithArgs("p1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "p1")
	assert.ErrorIs(t, err, pets.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetsRepo_ListBuildsFilter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "name", "species", "breed", "age", "description", "image", "status", "created_at", "updated_at"}).
		AddRow("p1", "Rex", "Dog", "Beagle", 2.5, "friendly dog", "https://x/y.jpg", "Pending", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(species) = lower($1) AND status = $2 AND (name ILIKE $3 OR species ILIKE $3 OR breed ILIKE $3)")).
		WithArgs("dog", "Pending", `%re\_x%`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), pets.ListFilter{Species: "dog", Status: pets.StatusPending, Query: "re_x"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pets.StatusPending, got[0].Status)
	assert.Equal(t, 2.5, got[0].Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPetsRepo_SetStatusZeroRowsIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPetsRepo(db)
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE pets SET status = $2")).
		WithArgs("p1", "Adopted", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "p1", pets.StatusAdopted, at)
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestApplicationsRepo_CreateUniqueViolationIsDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationsRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "applications_pet_user_key"})

	err := repo.Create(context.Background(), applications.Application{ID: "a1", PetID: "p1", UserID: "u1", Status: applications.StatusPending})
	assert.ErrorIs(t, err, applications.ErrDuplicate)
}

func TestApplicationsRepo_OtherInsertErrorsPassThrough(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationsRepo(db)
	boom := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applications")).WillReturnError(boom)

	err := repo.Create(context.Background(), applications.Application{ID: "a1"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, applications.ErrDuplicate)
}

func TestApplicationsRepo_RejectPendingSiblingsReturnsRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationsRepo(db)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "pet_id", "pet_name", "user_id", "user_name", "user_email", "message", "status", "reviewed_by", "reviewed_by_name", "created_at", "updated_at"}).
		AddRow("a2", "p1", "Rex", "u2", "Bob", "bob@x.io", "hi", "Rejected", "admin1", "Admin", at, at)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE pet_id = $1 AND id <> $2 AND status = 'Pending'")).
		WithArgs("p1", "a1", "admin1", "Admin", at).
		WillReturnRows(rows)

	got, err := repo.RejectPendingSiblings(context.Background(), "p1", "a1", "admin1", "Admin", at)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, applications.StatusRejected, got[0].Status)
	assert.Equal(t, "Admin", got[0].ReviewedByName)
}

func TestApplicationsRepo_LockPetUsesAdvisoryLock(t *testing.T) {
	db, mock := newMock(t)
	repo := NewApplicationsRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockPet(context.Background(), "p1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepo_CreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUsersRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), users.User{ID: "u1", Email: "a@b.co"})
	assert.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestUsersRepo_EmptyResetTokenNeverMatches(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUsersRepo(db)

	_, err := repo.GetByResetTokenHash(context.Background(), "")
	assert.ErrorIs(t, err, users.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CommitsAndPropagatesTx(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	repo := NewApplicationsRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return repo.LockPet(ctx, "p1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		// anidado: reutiliza la misma tx
		return tm.RunInTx(ctx, func(context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
