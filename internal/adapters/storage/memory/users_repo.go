package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pet-adoption/internal/domain/users"
)

type userRepo struct {
	mu      sync.RWMutex
	byID    map[string]users.User
	byEmail map[string]string // email => id
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID:    make(map[string]users.User),
		byEmail: make(map[string]string),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, taken := r.byEmail[u.Email]; taken {
		return users.ErrEmailTaken
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, users.ErrNotFound)
	}
	if cur.Email != u.Email {
		if other, taken := r.byEmail[u.Email]; taken && other != u.ID {
			return users.ErrEmailTaken
		}
		delete(r.byEmail, cur.Email)
		r.byEmail[u.Email] = u.ID
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, fmt.Errorf("user %s: %w", id, users.ErrNotFound)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return users.User{}, fmt.Errorf("user with email %s: %w", email, users.ErrNotFound)
	}
	return r.byID[id], nil
}

func (r *userRepo) GetByResetTokenHash(ctx context.Context, tokenHash string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tokenHash != "" {
		for _, u := range r.byID {
			if u.ResetTokenHash == tokenHash {
				return u, nil
			}
		}
	}
	return users.User{}, fmt.Errorf("reset token: %w", users.ErrNotFound)
}
