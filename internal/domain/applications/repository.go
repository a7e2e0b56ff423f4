package applications

import (
	"context"
	"time"
)

// Los repos devuelven listas ordenadas por CreatedAt descendente.
type Repository interface {
	// Create devuelve ErrDuplicate si ya existe una fila para (pet, user).
	Create(ctx context.Context, a Application) error
	GetByID(ctx context.Context, id string) (Application, error)

	ListAll(ctx context.Context) ([]Application, error)
	ListByUser(ctx context.Context, userID string) ([]Application, error)
	ListByPet(ctx context.Context, petID string) ([]Application, error)

	// SaveReview persiste status, revisor y UpdatedAt.
	SaveReview(ctx context.Context, a Application) error

	// RejectPendingSiblings rechaza en lote las Pending de la mascota excepto exceptID
	// y devuelve las filas ya actualizadas.
	RejectPendingSiblings(ctx context.Context, petID, exceptID, reviewerID, reviewerName string, at time.Time) ([]Application, error)

	Delete(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) (int, error)

	// LockPet serializa las mutaciones de una mascota hasta el fin de la tx del ctx.
	LockPet(ctx context.Context, petID string) error
}
