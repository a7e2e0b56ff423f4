package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/notify"
	"pet-adoption/internal/ports/store"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidStatus       = errors.New("status must be Approved or Rejected")
	ErrPetNotFound         = errors.New("pet not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrNotAuthorized       = errors.New("not authorized to modify this application")

	ErrPetAdopted        = errors.New("pet has already been adopted")
	ErrAlreadyAdopted    = errors.New("another application for this pet is already approved")
	ErrDuplicateRejected = errors.New("your previous application for this pet was rejected, you cannot apply again for the same pet")
	ErrAlreadyApproved   = errors.New("you have already been approved to adopt this pet")
	ErrAlreadyPending    = errors.New("you have already applied for this pet, please wait for the admin decision")
	ErrDecisionFinal     = errors.New("application has already been decided")

	// ErrDuplicate lo devuelven los repos ante la restricción única (pet, user).
	ErrDuplicate = errors.New("application already exists for this pet and user")
)

// PetStore es lo que el motor necesita del módulo pets (lo implementa *pets.Service).
type PetStore interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error)
	SetStatus(ctx context.Context, id string, status pets.Status) error
	InvalidateCache(ctx context.Context, id string)
}

// UserDirectory resuelve solicitantes y revisores (lo implementa *users.Service).
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

type Service struct {
	repo     Repository
	pets     PetStore
	users    UserDirectory
	tx       store.TxManager
	notifier notify.Notifier
	log      logger.Logger
	now      func() time.Time
}

type Deps struct {
	Repo     Repository
	Pets     PetStore
	Users    UserDirectory
	Tx       store.TxManager
	Notifier notify.Notifier // opcional
	Log      logger.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:     d.Repo,
		pets:     d.Pets,
		users:    d.Users,
		tx:       d.Tx,
		notifier: d.Notifier,
		log:      log.With(map[string]any{"module": "applications"}),
		now:      time.Now,
	}
}

// Submit crea una solicitud Pending y deja la mascota en Pending.
func (s *Service) Submit(ctx context.Context, userID, petID, message string) (Application, error) {
	userID = strings.TrimSpace(userID)
	petID = strings.TrimSpace(petID)
	message = strings.TrimSpace(message)
	if userID == "" || petID == "" || message == "" {
		return Application{}, fmt.Errorf("%w: pet ID and message are required", ErrInvalidInput)
	}

	var created Application
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockPet(ctx, petID); err != nil {
			return err
		}

		pet, err := s.pets.GetByID(ctx, petID)
		if err != nil {
			return mapPetErr(err)
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return mapUserErr(err)
		}

		petApps, err := s.repo.ListByPet(ctx, petID)
		if err != nil {
			return err
		}
		if pet.Status == pets.StatusAdopted || RecomputeStatus(petApps) == pets.StatusAdopted {
			return ErrPetAdopted
		}
		if err := Classify(historyOf(petApps, userID)).Err(); err != nil {
			return err
		}

		now := s.now()
		a := Application{
			ID:        uuid.NewString(),
			PetID:     pet.ID,
			PetName:   pet.Name,
			UserID:    user.ID,
			UserName:  user.Name,
			UserEmail: user.Email,
			Message:   message,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return s.duplicateErr(ctx, petID, userID)
			}
			return err
		}

		if err := s.syncPetStatus(ctx, pet, append(petApps, a)); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return Application{}, err
	}

	s.pets.InvalidateCache(ctx, created.PetID)
	metrics.RecordSubmitted()
	s.log.Info("application submitted", map[string]any{
		"application_id": created.ID,
		"pet_id":         created.PetID,
		"user_id":        created.UserID,
	})
	return created, nil
}

// Review aprueba o rechaza. Aprobar rechaza en cascada las demás Pending de la mascota.
// Una decisión tomada no pasa a la contraria; repetir la misma solo re-estampa al revisor.
// Las notificaciones salen después del commit, solo si el status cambió, y sus fallos no deshacen nada.
func (s *Service) Review(ctx context.Context, applicationID, reviewerID string, newStatus Status) (Application, error) {
	if newStatus != StatusApproved && newStatus != StatusRejected {
		return Application{}, ErrInvalidStatus
	}

	var (
		reviewed Application
		reviewer users.User
		cascaded []Application
		changed  bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.getForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}

		reviewer, err = s.users.GetByID(ctx, reviewerID)
		if err != nil {
			return mapUserErr(err)
		}

		petApps, err := s.repo.ListByPet(ctx, a.PetID)
		if err != nil {
			return err
		}
		if newStatus == StatusApproved {
			for _, other := range petApps {
				if other.ID != a.ID && other.Status == StatusApproved {
					return ErrAlreadyAdopted
				}
			}
		}
		if a.Status.Decided() && a.Status != newStatus {
			return fmt.Errorf("%w as %s", ErrDecisionFinal, a.Status)
		}
		changed = a.Status != newStatus

		now := s.now()
		a.Status = newStatus
		a.ReviewedBy = reviewer.ID
		a.ReviewedByName = reviewer.Name
		a.UpdatedAt = now
		if err := s.repo.SaveReview(ctx, a); err != nil {
			return mapAppErr(err)
		}

		if newStatus == StatusApproved {
			cascaded, err = s.repo.RejectPendingSiblings(ctx, a.PetID, a.ID, reviewer.ID, reviewer.Name, now)
			if err != nil {
				return fmt.Errorf("reject siblings: %w", err)
			}
		}

		if err := s.reconcileLocked(ctx, a.PetID); err != nil {
			return err
		}
		reviewed = a
		return nil
	})
	if err != nil {
		return Application{}, err
	}

	s.pets.InvalidateCache(ctx, reviewed.PetID)
	s.log.Info("application reviewed", map[string]any{
		"application_id": reviewed.ID,
		"pet_id":         reviewed.PetID,
		"status":         string(newStatus),
		"reviewer_id":    reviewer.ID,
		"cascaded":       len(cascaded),
		"changed":        changed,
	})
	if !changed {
		return reviewed, nil
	}

	metrics.RecordReview(string(newStatus))
	metrics.RecordCascade(len(cascaded))
	if newStatus == StatusApproved {
		s.notifyApproval(ctx, reviewed, reviewer.Name)
	} else {
		s.notifyRejection(ctx, reviewed, reviewer.Name)
	}
	for _, sib := range cascaded {
		s.notifyRejection(ctx, sib, reviewer.Name)
	}

	return reviewed, nil
}

// Delete la puede hacer el dueño de la solicitud o un admin.
func (s *Service) Delete(ctx context.Context, applicationID string, actor auth.Claims) error {
	var petID string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		a, err := s.getForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && a.UserID != actor.UserID {
			return ErrNotAuthorized
		}

		if err := s.repo.Delete(ctx, a.ID); err != nil {
			return mapAppErr(err)
		}
		petID = a.PetID
		return s.reconcileLocked(ctx, a.PetID)
	})
	if err != nil {
		return err
	}

	s.pets.InvalidateCache(ctx, petID)

	s.log.Info("application deleted", map[string]any{
		"application_id": applicationID,
		"actor_id":       actor.UserID,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Application{}, mapAppErr(err)
	}
	return a, nil
}

func (s *Service) ListAll(ctx context.Context) ([]Application, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Application, error) {
	return s.repo.ListByUser(ctx, strings.TrimSpace(userID))
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Application, error) {
	return s.repo.ListByPet(ctx, strings.TrimSpace(petID))
}

// DeleteByPet implementa pets.ApplicationPurger. Corre dentro de la tx del llamador.
func (s *Service) DeleteByPet(ctx context.Context, petID string) (int, error) {
	if err := s.repo.LockPet(ctx, petID); err != nil {
		return 0, err
	}
	return s.repo.DeleteByPet(ctx, petID)
}

// ReconcilePet recalcula el status de una mascota. Devuelve true si estaba desfasado.
func (s *Service) ReconcilePet(ctx context.Context, petID string) (bool, error) {
	var changed bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockPet(ctx, petID); err != nil {
			return err
		}
		pet, err := s.pets.GetByID(ctx, petID)
		if err != nil {
			return mapPetErr(err)
		}
		apps, err := s.repo.ListByPet(ctx, petID)
		if err != nil {
			return err
		}
		changed = RecomputeStatus(apps) != pet.Status
		return s.syncPetStatus(ctx, pet, apps)
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.pets.InvalidateCache(ctx, petID)
		metrics.RecordReconciled()
	}
	return changed, nil
}

// ReconcileAll recorre el catálogo completo. Sigue ante errores y los devuelve juntos.
func (s *Service) ReconcileAll(ctx context.Context) (int, error) {
	all, err := s.pets.List(ctx, pets.ListFilter{})
	if err != nil {
		return 0, fmt.Errorf("list pets: %w", err)
	}

	var (
		fixed int
		errs  []error
	)
	for _, p := range all {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		changed, err := s.ReconcilePet(ctx, p.ID)
		if err != nil {
			if errors.Is(err, ErrPetNotFound) {
				continue // borrada mientras recorríamos
			}
			errs = append(errs, fmt.Errorf("pet %s: %w", p.ID, err))
			continue
		}
		if changed {
			fixed++
			s.log.Warn("pet status drift repaired", map[string]any{"pet_id": p.ID})
		}
	}
	return fixed, errors.Join(errs...)
}

// getForUpdate lee la solicitud, toma el lock de su mascota y la relee
// para trabajar con el estado posterior a cualquier escritura concurrente.
func (s *Service) getForUpdate(ctx context.Context, id string) (Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Application{}, ErrApplicationNotFound
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, mapAppErr(err)
	}
	if err := s.repo.LockPet(ctx, a.PetID); err != nil {
		return Application{}, err
	}
	a, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, mapAppErr(err)
	}
	return a, nil
}

// reconcileLocked asume el lock de la mascota tomado.
func (s *Service) reconcileLocked(ctx context.Context, petID string) error {
	pet, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, pets.ErrNotFound) {
			s.log.Warn("application references a missing pet", map[string]any{"pet_id": petID})
			return nil
		}
		return err
	}
	apps, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return err
	}
	return s.syncPetStatus(ctx, pet, apps)
}

func (s *Service) syncPetStatus(ctx context.Context, pet pets.Pet, apps []Application) error {
	want := RecomputeStatus(apps)
	if want == pet.Status {
		return nil
	}
	if err := s.pets.SetStatus(ctx, pet.ID, want); err != nil {
		return fmt.Errorf("set pet status: %w", err)
	}
	return nil
}

// duplicateErr: otra escritura ganó la carrera; se reclasifica con el estado actual.
func (s *Service) duplicateErr(ctx context.Context, petID, userID string) error {
	apps, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return ErrAlreadyPending
	}
	if err := Classify(historyOf(apps, userID)).Err(); err != nil {
		return err
	}
	return ErrAlreadyPending
}

func (s *Service) notifyApproval(ctx context.Context, a Application, reviewerName string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendApproval(ctx, a.UserEmail, a.UserName, a.PetName, reviewerName); err != nil {
		s.notificationFailed("approval", a, err)
	}
}

func (s *Service) notifyRejection(ctx context.Context, a Application, reviewerName string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendRejection(ctx, a.UserEmail, a.UserName, a.PetName, reviewerName); err != nil {
		s.notificationFailed("rejection", a, err)
	}
}

func (s *Service) notificationFailed(kind string, a Application, err error) {
	metrics.RecordNotificationFailure(kind)
	s.log.Warn("notification failed", map[string]any{
		"kind":           kind,
		"application_id": a.ID,
		"to":             a.UserEmail,
		"err":            err,
	})
}

func historyOf(apps []Application, userID string) []Application {
	var out []Application
	for _, a := range apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

func mapPetErr(err error) error {
	if errors.Is(err, pets.ErrNotFound) {
		return ErrPetNotFound
	}
	return err
}

func mapUserErr(err error) error {
	if errors.Is(err, users.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func mapAppErr(err error) error {
	if errors.Is(err, ErrApplicationNotFound) {
		return ErrApplicationNotFound
	}
	return err
}
