package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pet-adoption/internal/domain/applications"
)

type ApplicationsRepo struct {
	db *sql.DB
}

func NewApplicationsRepo(db *sql.DB) *ApplicationsRepo {
	return &ApplicationsRepo{db: db}
}

const applicationColumns = `id, pet_id, pet_name, user_id, user_name, user_email, message, status,
			reviewed_by, reviewed_by_name, created_at, updated_at`

func (r *ApplicationsRepo) Create(ctx context.Context, a applications.Application) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		a.ID,
		a.PetID,
		a.PetName,
		a.UserID,
		a.UserName,
		a.UserEmail,
		a.Message,
		string(a.Status),
		nullString(a.ReviewedBy),
		nullString(a.ReviewedByName),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return applications.ErrDuplicate
	}
	return err
}

func (r *ApplicationsRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE id = $1
	`, id)

	a, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return applications.Application{}, fmt.Errorf("application %s: %w", id, applications.ErrApplicationNotFound)
		}
		return applications.Application{}, err
	}
	return a, nil
}

func (r *ApplicationsRepo) ListAll(ctx context.Context) ([]applications.Application, error) {
	return r.list(ctx, "", nil)
}

func (r *ApplicationsRepo) ListByUser(ctx context.Context, userID string) ([]applications.Application, error) {
	return r.list(ctx, "WHERE user_id = $1", []any{userID})
}

func (r *ApplicationsRepo) ListByPet(ctx context.Context, petID string) ([]applications.Application, error) {
	return r.list(ctx, "WHERE pet_id = $1", []any{petID})
}

func (r *ApplicationsRepo) SaveReview(ctx context.Context, a applications.Application) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE applications
		SET status = $2, reviewed_by = $3, reviewed_by_name = $4, updated_at = $5
		WHERE id = $1
	`,
		a.ID,
		string(a.Status),
		nullString(a.ReviewedBy),
		nullString(a.ReviewedByName),
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "application", a.ID, applications.ErrApplicationNotFound)
}

func (r *ApplicationsRepo) RejectPendingSiblings(ctx context.Context, petID, exceptID, reviewerID, reviewerName string, at time.Time) ([]applications.Application, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		UPDATE applications
		SET status = 'Rejected', reviewed_by = $3, reviewed_by_name = $4, updated_at = $5
		WHERE pet_id = $1 AND id <> $2 AND status = 'Pending'
		RETURNING `+applicationColumns,
		petID, exceptID, reviewerID, reviewerName, at,
	)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func (r *ApplicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "application", id, applications.ErrApplicationNotFound)
}

func (r *ApplicationsRepo) DeleteByPet(ctx context.Context, petID string) (int, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM applications WHERE pet_id = $1`, petID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// LockPet toma un advisory lock transaccional por mascota; se libera en commit/rollback.
func (r *ApplicationsRepo) LockPet(ctx context.Context, petID string) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, petID)
	if err != nil {
		return fmt.Errorf("lock pet %s: %w", petID, err)
	}
	return nil
}

func (r *ApplicationsRepo) list(ctx context.Context, where string, args []any) ([]applications.Application, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		`+where+`
		ORDER BY created_at DESC, id
	`, args...)
	if err != nil {
		return nil, err
	}
	return collectApplications(rows)
}

func collectApplications(rows *sql.Rows) ([]applications.Application, error) {
	defer rows.Close()

	out := make([]applications.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanApplication(row rowScanner) (applications.Application, error) {
	var (
		a          applications.Application
		status     string
		reviewedBy sql.NullString
		reviewName sql.NullString
	)
	if err := row.Scan(
		&a.ID,
		&a.PetID,
		&a.PetName,
		&a.UserID,
		&a.UserName,
		&a.UserEmail,
		&a.Message,
		&status,
		&reviewedBy,
		&reviewName,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return applications.Application{}, err
	}
	a.Status = applications.Status(status)
	a.ReviewedBy = reviewedBy.String
	a.ReviewedByName = reviewName.String
	return a, nil
}
