package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func TestApplicationRepo_UniquePerPetAndUser(t *testing.T) {
	repo := NewApplicationRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, applications.Application{ID: "a1", PetID: "p1", UserID: "u1", Status: applications.StatusPending}))
	err := repo.Create(ctx, applications.Application{ID: "a2", PetID: "p1", UserID: "u1", Status: applications.StatusPending})
	assert.ErrorIs(t, err, applications.ErrDuplicate)

	require.NoError(t, repo.Create(ctx, applications.Application{ID: "a3", PetID: "p1", UserID: "u2", Status: applications.StatusPending}))
}

func TestApplicationRepo_RejectPendingSiblings(t *testing.T) {
	repo := NewApplicationRepo()
	ctx := context.Background()

	seed := []applications.Application{
		{ID: "win", PetID: "p1", UserID: "u1", Status: applications.StatusApproved, CreatedAt: t0},
		{ID: "s1", PetID: "p1", UserID: "u2", Status: applications.StatusPending, CreatedAt: t0.Add(time.Minute)},
		{ID: "s2", PetID: "p1", UserID: "u3", Status: applications.StatusPending, CreatedAt: t0.Add(2 * time.Minute)},
		{ID: "old", PetID: "p1", UserID: "u4", Status: applications.StatusRejected, CreatedAt: t0},
		{ID: "other", PetID: "p2", UserID: "u2", Status: applications.StatusPending, CreatedAt: t0},
	}
	for _, a := range seed {
		require.NoError(t, repo.Create(ctx, a))
	}

	at := t0.Add(time.Hour)
	got, err := repo.RejectPendingSiblings(ctx, "p1", "win", "admin", "Admin", at)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].ID, "newest first")

	for _, id := range []string{"s1", "s2"} {
		a, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, applications.StatusRejected, a.Status)
		assert.Equal(t, "admin", a.ReviewedBy)
		assert.Equal(t, "Admin", a.ReviewedByName)
		assert.True(t, a.UpdatedAt.Equal(at))
	}

	other, _ := repo.GetByID(ctx, "other")
	assert.Equal(t, applications.StatusPending, other.Status, "other pets untouched")
	old, _ := repo.GetByID(ctx, "old")
	assert.Empty(t, old.ReviewedBy, "already decided rows untouched")
}

func TestApplicationRepo_DeleteByPetAndNotFound(t *testing.T) {
	repo := NewApplicationRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, applications.Application{ID: "a1", PetID: "p1", UserID: "u1"}))
	require.NoError(t, repo.Create(ctx, applications.Application{ID: "a2", PetID: "p1", UserID: "u2"}))

	n, err := repo.DeleteByPet(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.GetByID(ctx, "a1")
	assert.ErrorIs(t, err, applications.ErrApplicationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "a1"), applications.ErrApplicationNotFound)
}

func TestPetRepo_UpdateKeepsStatusAndListFilters(t *testing.T) {
	repo := NewPetRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "p1", Name: "Rex", Species: "Dog", Breed: "Beagle", Status: pets.StatusAvailable, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, pets.Pet{ID: "p2", Name: "Mia", Species: "Cat", Breed: "Persian", Status: pets.StatusAvailable, CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.SetStatus(ctx, "p1", pets.StatusPending, t0.Add(time.Hour)))

	require.NoError(t, repo.Update(ctx, pets.Pet{ID: "p1", Name: "Rexy", Species: "Dog", Breed: "Beagle", Status: pets.StatusAvailable}))
	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Rexy", p.Name)
	assert.Equal(t, pets.StatusPending, p.Status)
	assert.True(t, p.CreatedAt.Equal(t0))

	all, err := repo.List(ctx, pets.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p2", all[0].ID, "newest first")

	pending, _ := repo.List(ctx, pets.ListFilter{Status: pets.StatusPending})
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].ID)

	err = repo.SetStatus(ctx, "missing", pets.StatusAdopted, t0)
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestUserRepo_EmailIndex(t *testing.T) {
	repo := NewUserRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, users.User{ID: "u1", Email: "ana@example.com"}))
	assert.ErrorIs(t, repo.Create(ctx, users.User{ID: "u2", Email: "ana@example.com"}), users.ErrEmailTaken)

	require.NoError(t, repo.Update(ctx, users.User{ID: "u1", Email: "ana@new.example.com"}))
	_, err := repo.GetByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)

	u, err := repo.GetByEmail(ctx, "ana@new.example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestTxManager_NestedAndCancelled(t *testing.T) {
	tx := NewTxManager()
	ctx := context.Background()

	calls := 0
	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		calls++
		return tx.RunInTx(ctx, func(context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	assert.ErrorIs(t, tx.RunInTx(ctx, func(context.Context) error { return boom }), boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, tx.RunInTx(cancelled, func(context.Context) error { return nil }), context.Canceled)
}
