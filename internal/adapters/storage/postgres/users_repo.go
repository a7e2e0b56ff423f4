package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/auth"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `id, name, email, password_hash, role, reset_token_hash, reset_token_expiry, created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.ResetTokenHash),
		nullTime(u),
		u.CreatedAt,
		u.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return users.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET
			name = $2,
			email = $3,
			password_hash = $4,
			role = $5,
			reset_token_hash = $6,
			reset_token_expiry = $7,
			updated_at = $8
		WHERE id = $1
	`,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.ResetTokenHash),
		nullTime(u),
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return users.ErrEmailTaken
		}
		return err
	}
	return expectOne(res, "user", u.ID, users.ErrNotFound)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.getOne(ctx, "email = $1", email)
}

func (r *UsersRepo) GetByResetTokenHash(ctx context.Context, tokenHash string) (users.User, error) {
	if tokenHash == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.getOne(ctx, "reset_token_hash = $1", tokenHash)
}

func (r *UsersRepo) getOne(ctx context.Context, where string, arg string) (users.User, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+where, arg)

	var (
		u       users.User
		role    string
		tokHash sql.NullString
		tokExp  sql.NullTime
	)
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&tokHash,
		&tokExp,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, fmt.Errorf("user %s: %w", arg, users.ErrNotFound)
		}
		return users.User{}, err
	}
	u.Role = auth.Role(role)
	u.ResetTokenHash = tokHash.String
	if tokExp.Valid {
		u.ResetTokenExpiry = tokExp.Time
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(u users.User) sql.NullTime {
	if u.ResetTokenExpiry.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: u.ResetTokenExpiry, Valid: true}
}
