package pets

import (
	"context"
	"strings"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, filter ListFilter) ([]Pet, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status Status, at time.Time) error
}

// ListFilter: campos vacíos = sin filtro. Query busca en nombre, especie y raza.
type ListFilter struct {
	Species string
	Breed   string
	Status  Status
	Query   string
}

// Cache de lecturas públicas del catálogo.
type Cache interface {
	Get(ctx context.Context, id string) (Pet, bool, error)
	Set(ctx context.Context, p Pet) error
	Invalidate(ctx context.Context, id string) error
}

// ApplicationPurger borra las solicitudes de una mascota eliminada.
// Evita importar el paquete applications (rompe ciclos).
type ApplicationPurger interface {
	DeleteByPet(ctx context.Context, petID string) (int, error)
}

// Matches aplica el filtro en memoria (repos in-memory y tests).
func (f ListFilter) Matches(p Pet) bool {
	if f.Species != "" && !strings.EqualFold(f.Species, p.Species) {
		return false
	}
	if f.Breed != "" && !strings.EqualFold(f.Breed, p.Breed) {
		return false
	}
	if f.Status != "" && f.Status != p.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(p.Name + " " + p.Species + " " + p.Breed)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}
