package pets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/store"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
)

type Service struct {
	repo   Repository
	tx     store.TxManager
	cache  Cache             // opcional
	purger ApplicationPurger // opcional
	log    logger.Logger
	now    func() time.Time
}

type Deps struct {
	Repo   Repository
	Tx     store.TxManager
	Cache  Cache
	Purger ApplicationPurger
	Log    logger.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:   d.Repo,
		tx:     d.Tx,
		cache:  d.Cache,
		purger: d.Purger,
		log:    log.With(map[string]any{"module": "pets"}),
		now:    time.Now,
	}
}

type CreateInput struct {
	Name        string
	Species     string
	Breed       string
	Age         *float64
	Description string
	Image       string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Pet, error) {
	p := Pet{
		Name:        strings.TrimSpace(in.Name),
		Species:     strings.TrimSpace(in.Species),
		Breed:       strings.TrimSpace(in.Breed),
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
	}
	if in.Age == nil {
		return Pet{}, invalid("age is required")
	}
	p.Age = *in.Age

	if err := validate(p); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p.ID = uuid.NewString()
	p.Status = StatusAvailable
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// UpdateInput: punteros para PATCH real, nil = no tocar.
// El status no se edita acá (lo deriva el motor de solicitudes).
type UpdateInput struct {
	Name        *string
	Species     *string
	Breed       *string
	Age         *float64
	Description *string
	Image       *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Pet, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		p.Species = strings.TrimSpace(*in.Species)
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		p.Image = strings.TrimSpace(*in.Image)
	}

	if err := validate(p); err != nil {
		return Pet{}, err
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, mapRepoErr(err)
	}
	s.InvalidateCache(ctx, p.ID)
	return p, nil
}

// Delete borra la mascota y sus solicitudes. Devuelve cuántas solicitudes se borraron.
func (s *Service) Delete(ctx context.Context, id string) (Pet, int, error) {
	var (
		deleted Pet
		purged  int
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if s.purger != nil {
			n, err := s.purger.DeleteByPet(ctx, p.ID)
			if err != nil {
				return fmt.Errorf("purge applications: %w", err)
			}
			purged = n
		}
		if err := s.repo.Delete(ctx, p.ID); err != nil {
			return mapRepoErr(err)
		}
		deleted = p
		return nil
	})
	if err != nil {
		return Pet{}, 0, err
	}

	s.InvalidateCache(ctx, deleted.ID)
	s.log.Info("pet deleted", map[string]any{"pet_id": deleted.ID, "applications_purged": purged})
	return deleted, purged, nil
}

// GetByID lee siempre del repo (sin cache). Lo usa el motor de solicitudes.
func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Pet{}, mapRepoErr(err)
	}
	return p, nil
}

// Get es la lectura pública: intenta cache y cae al repo.
func (s *Service) Get(ctx context.Context, id string) (Pet, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("pet cache get failed", map[string]any{"pet_id": id, "err": err})
		} else if ok {
			return p, nil
		}
	}

	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Pet{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.log.Warn("pet cache set failed", map[string]any{"pet_id": id, "err": err})
		}
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Pet, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown status filter")
	}
	return s.repo.List(ctx, filter)
}

// SetStatus persiste el status derivado de las solicitudes.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return invalid("unknown pet status")
	}
	if err := s.repo.SetStatus(ctx, id, status, s.now()); err != nil {
		return mapRepoErr(err)
	}
	s.InvalidateCache(ctx, id)
	return nil
}

// InvalidateCache descarta la entrada cacheada. El motor la llama de nuevo tras el commit.
func (s *Service) InvalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("pet cache invalidate failed", map[string]any{"pet_id": id, "err": err})
	}
}

func validate(p Pet) error {
	switch {
	case p.Name == "":
		return invalid("pet name is required")
	case len([]rune(p.Name)) < MinNameLen:
		return invalid("pet name must be at least 2 characters long")
	case p.Species == "":
		return invalid("species is required")
	case p.Breed == "":
		return invalid("breed is required")
	case math.IsNaN(p.Age) || math.IsInf(p.Age, 0):
		return invalid("age must be a valid number")
	case p.Age < 0:
		return invalid("age cannot be negative")
	case p.Age > MaxAge:
		return invalid("please enter a realistic age for the pet")
	case p.Description == "":
		return invalid("description is required")
	case len([]rune(p.Description)) < MinDescriptionLen:
		return invalid("description must be at least 10 characters long")
	case p.Image == "":
		return invalid("image URL is required")
	}

	u, err := url.Parse(p.Image)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return invalid("please enter a valid image URL")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// Los repos envuelven ErrNotFound con contexto; al handler le llega el sentinel.
func mapRepoErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return err
}
