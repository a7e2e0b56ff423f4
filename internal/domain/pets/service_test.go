package pets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

// -------------------------
// Test repo / cache / tx
// -------------------------

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(_ context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(_ context.Context, p Pet) error {
	cur, ok := r.byID[p.ID]
	if !ok {
		return fmt.Errorf("pet %s: %w", p.ID, ErrNotFound)
	}
	p.Status = cur.Status
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, fmt.Errorf("pet %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (r *testRepo) List(_ context.Context, f ListFilter) ([]Pet, error) {
	var out []Pet
	for _, p := range r.byID {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("pet %s: %w", id, ErrNotFound)
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) SetStatus(_ context.Context, id string, st Status, at time.Time) error {
	p, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("pet %s: %w", id, ErrNotFound)
	}
	p.Status = st
	p.UpdatedAt = at
	r.byID[id] = p
	return nil
}

type testCache struct {
	items       map[string]Pet
	invalidated []string
	failGet     bool
}

func newTestCache() *testCache { return &testCache{items: map[string]Pet{}} }

func (c *testCache) Get(_ context.Context, id string) (Pet, bool, error) {
	if c.failGet {
		return Pet{}, false, errors.New("cache down")
	}
	p, ok := c.items[id]
	return p, ok, nil
}

func (c *testCache) Set(_ context.Context, p Pet) error {
	c.items[p.ID] = p
	return nil
}

func (c *testCache) Invalidate(_ context.Context, id string) error {
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type countingPurger struct {
	calls []string
	n     int
	err   error
}

func (p *countingPurger) DeleteByPet(_ context.Context, petID string) (int, error) {
	p.calls = append(p.calls, petID)
	return p.n, p.err
}

func validInput() CreateInput {
	age := 1.5
	return CreateInput{
		Name:        "Luna",
		Species:     "Cat",
		Breed:       "Siamese",
		Age:         &age,
		Description: "Calm indoor cat",
		Image:       "https://images.example.com/luna.png",
	}
}

func strPtr(s string) *string { return &s }

// -------------------------
// Tests
// -------------------------

func TestCreate_DefaultsToAvailable(t *testing.T) {
	svc := NewService(Deps{Repo: newTestRepo(), Tx: passTx{}})

	p, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if p.Status != StatusAvailable {
		t.Fatalf("expected Available, got %s", p.Status)
	}
	if p.CreatedAt.IsZero() || !p.CreatedAt.Equal(p.UpdatedAt) {
		t.Fatalf("timestamps not set: %v / %v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(Deps{Repo: newTestRepo(), Tx: passTx{}})

	cases := map[string]func(in *CreateInput){
		"short name":        func(in *CreateInput) { in.Name = "L" },
		"missing species":   func(in *CreateInput) { in.Species = "  " },
		"missing breed":     func(in *CreateInput) { in.Breed = "" },
		"missing age":       func(in *CreateInput) { in.Age = nil },
		"negative age":      func(in *CreateInput) { a := -1.0; in.Age = &a },
		"unrealistic age":   func(in *CreateInput) { a := 51.0; in.Age = &a },
		"nan age":           func(in *CreateInput) { a := math.NaN(); in.Age = &a },
		"short description": func(in *CreateInput) { in.Description = "tiny" },
		"relative image":    func(in *CreateInput) { in.Image = "/img/luna.png" },
		"missing image":     func(in *CreateInput) { in.Image = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUpdate_PartialKeepsStatus(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(Deps{Repo: repo, Tx: passTx{}})
	ctx := context.Background()

	p, _ := svc.Create(ctx, validInput())
	if err := svc.SetStatus(ctx, p.ID, StatusPending); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got, err := svc.Update(ctx, p.ID, UpdateInput{Name: strPtr("Luna II")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Luna II" || got.Breed != "Siamese" {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if stored := repo.byID[p.ID]; stored.Status != StatusPending {
		t.Fatalf("update must not touch status, got %s", stored.Status)
	}
}

func TestUpdate_InvalidAndMissing(t *testing.T) {
	svc := NewService(Deps{Repo: newTestRepo(), Tx: passTx{}})
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput())

	if _, err := svc.Update(ctx, p.ID, UpdateInput{Description: strPtr("short")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", UpdateInput{Name: strPtr("Max")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_PurgesApplications(t *testing.T) {
	repo := newTestRepo()
	purger := &countingPurger{n: 3}
	svc := NewService(Deps{Repo: repo, Tx: passTx{}, Purger: purger})
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput())

	deleted, n, err := svc.Delete(ctx, p.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Name != "Luna" || n != 3 {
		t.Fatalf("unexpected result: %+v, %d", deleted, n)
	}
	if len(purger.calls) != 1 || purger.calls[0] != p.ID {
		t.Fatalf("purger calls: %v", purger.calls)
	}
	if _, ok := repo.byID[p.ID]; ok {
		t.Fatalf("pet still stored")
	}
}

func TestDelete_PurgeFailureKeepsPet(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(Deps{Repo: repo, Tx: passTx{}, Purger: &countingPurger{err: errors.New("boom")}})
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput())

	if _, _, err := svc.Delete(ctx, p.ID); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := repo.byID[p.ID]; !ok {
		t.Fatalf("pet must survive a failed purge")
	}
}

func TestGet_UsesCacheAndGetByIDDoesNot(t *testing.T) {
	repo := newTestRepo()
	cache := newTestCache()
	svc := NewService(Deps{Repo: repo, Tx: passTx{}, Cache: cache})
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput())

	if _, err := svc.Get(ctx, p.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := cache.items[p.ID]; !ok {
		t.Fatalf("expected cache fill")
	}

	// El repo cambia por fuera; Get sigue sirviendo la copia cacheada.
	stale := repo.byID[p.ID]
	stale.Status = StatusAdopted
	repo.byID[p.ID] = stale

	cached, _ := svc.Get(ctx, p.ID)
	if cached.Status != StatusAvailable {
		t.Fatalf("expected cached Available, got %s", cached.Status)
	}
	fresh, _ := svc.GetByID(ctx, p.ID)
	if fresh.Status != StatusAdopted {
		t.Fatalf("GetByID must bypass the cache, got %s", fresh.Status)
	}
}

func TestSetStatus_InvalidatesCache(t *testing.T) {
	cache := newTestCache()
	svc := NewService(Deps{Repo: newTestRepo(), Tx: passTx{}, Cache: cache})
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput())
	_, _ = svc.Get(ctx, p.ID)

	if err := svc.SetStatus(ctx, p.ID, StatusAdopted); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if _, ok := cache.items[p.ID]; ok {
		t.Fatalf("expected cache entry dropped")
	}
	if err := svc.SetStatus(ctx, p.ID, Status("Lost")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGet_CacheFailureFallsBack(t *testing.T) {
	cache := newTestCache()
	cache.failGet = true
	svc := NewService(Deps{Repo: newTestRepo(), Tx: passTx{}, Cache: cache})
	ctx := context.Background()
	p, _ := svc.Create(ctx, validInput())

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("expected fallback to repo, got %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("wrong pet: %+v", got)
	}
}

func TestList_Filters(t *testing.T) {
	svc := NewService(Deps{Repo: newTestRepo(), Tx: passTx{}})
	ctx := context.Background()

	cat := validInput()
	dog := validInput()
	dog.Name, dog.Species, dog.Breed = "Rocky", "Dog", "Boxer"
	_, _ = svc.Create(ctx, cat)
	_, _ = svc.Create(ctx, dog)

	got, err := svc.List(ctx, ListFilter{Species: "dog"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Rocky" {
		t.Fatalf("species filter: %+v", got)
	}

	got, _ = svc.List(ctx, ListFilter{Query: "siam"})
	if len(got) != 1 || got[0].Name != "Luna" {
		t.Fatalf("query filter: %+v", got)
	}

	if _, err := svc.List(ctx, ListFilter{Status: "Lost"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
