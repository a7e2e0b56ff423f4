package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `id, name, species, breed, age, description, image, status, created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Age,
		p.Description,
		p.Image,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update no toca status: lo escribe solo SetStatus.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			age = $5,
			description = $6,
			image = $7,
			updated_at = $8
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		p.Age,
		p.Description,
		p.Image,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "pet", p.ID, pets.ErrNotFound)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE id = $1
	`, id)

	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, fmt.Errorf("pet %s: %w", id, pets.ErrNotFound)
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error) {
	where, args := petFilterSQL(filter)

	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets`+where+`
		ORDER BY created_at DESC, id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "pet", id, pets.ErrNotFound)
}

func (r *PetsRepo) SetStatus(ctx context.Context, id string, status pets.Status, at time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE pets SET status = $2, updated_at = $3 WHERE id = $1
	`, id, string(status), at)
	if err != nil {
		return err
	}
	return expectOne(res, "pet", id, pets.ErrNotFound)
}

func petFilterSQL(f pets.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Species != "" {
		add("lower(species) = lower($%d)", f.Species)
	}
	if f.Breed != "" {
		add("lower(breed) = lower($%d)", f.Breed)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR species ILIKE $%d OR breed ILIKE $%d)", n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p      pets.Pet
		status string
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&p.Age,
		&p.Description,
		&p.Image,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Status = pets.Status(status)
	return p, nil
}

// expectOne traduce "0 filas afectadas" al sentinel del dominio.
func expectOne(res sql.Result, kind, id string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, notFound)
	}
	return nil
}
