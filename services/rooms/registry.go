package rooms

import (
	"CodeCollab/models/postgres"
	"CodeCollab/services/redis"
	"context"
	"errors"
	"fmt"
	"log"
)

// maxCodeAttempts bounds the re-draws of CreateWithFreshCode. With 32^6 codes
// hitting it means the generator or the store is broken.
const maxCodeAttempts = 16

// Cache is an optional read-through layer in front of the Store (Redis in production)
type Cache interface {
	SaveRoom(room *postgres.Room) error
	GetRoom(code string) (*postgres.Room, error)
}

// Registry is the persisted and cached collection of rooms, keyed by normalized code
type Registry struct {
	store    Store
	cache    Cache
	generate CodeGenerator
}

// NewRegistry builds a Registry. cache may be nil.
func NewRegistry(store Store, cache Cache) *Registry {
	return &Registry{store: store, cache: cache, generate: GenerateCode}
}

// WithGenerator swaps the code generator, mostly for tests
func (r *Registry) WithGenerator(gen CodeGenerator) *Registry {
	r.generate = gen
	return r
}

// Create inserts room under its current code, failing with ErrDuplicateID on collision
func (r *Registry) Create(ctx context.Context, room *postgres.Room) (*postgres.Room, error) {
	room.Code = NormalizeCode(room.Code)
	if err := r.store.Insert(ctx, room); err != nil {
		return nil, err
	}
	r.refresh(room)
	return room.Clone(), nil
}

// CreateWithFreshCode draws codes until one is free and inserts room under it.
// A concurrent create taking the same code shows up as ErrDuplicateID and is re-drawn.
func (r *Registry) CreateWithFreshCode(ctx context.Context, room *postgres.Room) (*postgres.Room, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := r.generate()
		if err != nil {
			return nil, err
		}
		exists, err := r.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		room.Code = code
		created, err := r.Create(ctx, room)
		if errors.Is(err, ErrDuplicateID) {
			log.Printf("[ROOM] Code %s taken concurrently, drawing again", code)
			continue
		}
		return created, err
	}
	return nil, fmt.Errorf("no free room code after %d attempts: %w", maxCodeAttempts, ErrDuplicateID)
}

// FindByCode reads through the cache. Fails with ErrNotFound.
func (r *Registry) FindByCode(ctx context.Context, code string) (*postgres.Room, error) {
	code = NormalizeCode(code)
	if r.cache != nil {
		room, err := r.cache.GetRoom(code)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("[ROOM-CACHE-ERROR] Reading room %s: %v", code, err)
		}
	}
	room, err := r.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	r.refresh(room)
	return room, nil
}

func (r *Registry) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.store.ExistsByCode(ctx, NormalizeCode(code))
}

// Save persists the full state of room and refreshes the cache
func (r *Registry) Save(ctx context.Context, room *postgres.Room) error {
	if err := r.store.Save(ctx, room); err != nil {
		return err
	}
	r.refresh(room)
	return nil
}

func (r *Registry) refresh(room *postgres.Room) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SaveRoom(room); err != nil {
		log.Printf("[ROOM-CACHE-ERROR] Caching room %s: %v", room.Code, err)
	}
}
