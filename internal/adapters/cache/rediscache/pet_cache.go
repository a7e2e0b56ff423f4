package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "pet:"

// NewClient acepta "redis://..." o un host:port simple.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PetCache implementa pets.Cache: JSON por mascota con TTL.
type PetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPetCache(client *redis.Client, ttl time.Duration) *PetCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PetCache{client: client, ttl: ttl}
}

type cachedPet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Breed       string    `json:"breed"`
	Age         float64   `json:"age"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *PetCache) Get(ctx context.Context, id string) (pets.Pet, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pets.Pet{}, false, nil
		}
		return pets.Pet{}, false, err
	}

	var cp cachedPet
	if err := json.Unmarshal(raw, &cp); err != nil {
		// Entrada corrupta: se descarta y se trata como miss.
		_ = c.client.Del(ctx, keyPrefix+id).Err()
		return pets.Pet{}, false, nil
	}
	return pets.Pet{
		ID:          cp.ID,
		Name:        cp.Name,
		Species:     cp.Species,
		Breed:       cp.Breed,
		Age:         cp.Age,
		Description: cp.Description,
		Image:       cp.Image,
		Status:      pets.Status(cp.Status),
		CreatedAt:   cp.CreatedAt,
		UpdatedAt:   cp.UpdatedAt,
	}, true, nil
}

func (c *PetCache) Set(ctx context.Context, p pets.Pet) error {
	raw, err := json.Marshal(cachedPet{
		ID:          p.ID,
		Name:        p.Name,
		Species:     p.Species,
		Breed:       p.Breed,
		Age:         p.Age,
		Description: p.Description,
		Image:       p.Image,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+p.ID, raw, c.ttl).Err()
}

func (c *PetCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, keyPrefix+id).Err()
}
