package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-adoption/internal/domain/applications"
)

type applicationRepo struct {
	mu   sync.RWMutex
	byID map[string]applications.Application
}

func NewApplicationRepo() applications.Repository {
	return &applicationRepo{
		byID: make(map[string]applications.Application),
	}
}

// Create respeta la misma unicidad (pet, user) que la tabla en Postgres.
func (r *applicationRepo) Create(ctx context.Context, a applications.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("application id required")
	}
	for _, cur := range r.byID {
		if cur.PetID == a.PetID && cur.UserID == a.UserID {
			return applications.ErrDuplicate
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (applications.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return applications.Application{}, fmt.Errorf("application %s: %w", id, applications.ErrApplicationNotFound)
	}
	return a, nil
}

func (r *applicationRepo) ListAll(ctx context.Context) ([]applications.Application, error) {
	return r.filter(func(applications.Application) bool { return true }), nil
}

func (r *applicationRepo) ListByUser(ctx context.Context, userID string) ([]applications.Application, error) {
	return r.filter(func(a applications.Application) bool { return a.UserID == userID }), nil
}

func (r *applicationRepo) ListByPet(ctx context.Context, petID string) ([]applications.Application, error) {
	return r.filter(func(a applications.Application) bool { return a.PetID == petID }), nil
}

func (r *applicationRepo) SaveReview(ctx context.Context, a applications.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[a.ID]
	if !ok {
		return fmt.Errorf("application %s: %w", a.ID, applications.ErrApplicationNotFound)
	}
	cur.Status = a.Status
	cur.ReviewedBy = a.ReviewedBy
	cur.ReviewedByName = a.ReviewedByName
	cur.UpdatedAt = a.UpdatedAt
	r.byID[a.ID] = cur
	return nil
}

func (r *applicationRepo) RejectPendingSiblings(ctx context.Context, petID, exceptID, reviewerID, reviewerName string, at time.Time) ([]applications.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]applications.Application, 0)
	for id, a := range r.byID {
		if a.PetID != petID || id == exceptID || a.Status != applications.StatusPending {
			continue
		}
		a.Status = applications.StatusRejected
		a.ReviewedBy = reviewerID
		a.ReviewedByName = reviewerName
		a.UpdatedAt = at
		r.byID[id] = a
		out = append(out, a)
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *applicationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("application %s: %w", id, applications.ErrApplicationNotFound)
	}
	delete(r.byID, id)
	return nil
}

func (r *applicationRepo) DeleteByPet(ctx context.Context, petID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, a := range r.byID {
		if a.PetID == petID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// LockPet no hace nada: TxManager ya serializa las transacciones en memoria.
func (r *applicationRepo) LockPet(ctx context.Context, petID string) error {
	return nil
}

func (r *applicationRepo) filter(keep func(applications.Application) bool) []applications.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]applications.Application, 0)
	for _, a := range r.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(out []applications.Application) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
