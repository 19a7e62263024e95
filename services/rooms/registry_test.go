package rooms

import (
	"CodeCollab/models/postgres"
	"CodeCollab/services/redis"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence returns a generator yielding codes in order
func sequence(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(codes) {
			return "", errors.New("sequence exhausted")
		}
		code := codes[i]
		i++
		return code, nil
	}
}

// fakeCache records calls and serves what was saved
type fakeCache struct {
	mu    sync.Mutex
	rooms map[string]*postgres.Room
	gets  int
	hits  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{rooms: make(map[string]*postgres.Room)}
}

func (f *fakeCache) SaveRoom(room *postgres.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.Code] = room.Clone()
	return nil
}

func (f *fakeCache) GetRoom(code string) (*postgres.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	room, ok := f.rooms[code]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	f.hits++
	return room.Clone(), nil
}

func TestRegistryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), nil)

	_, err := reg.Create(ctx, &postgres.Room{Code: "AAAAAA", Name: "one"})
	require.NoError(t, err)

	_, err = reg.Create(ctx, &postgres.Room{Code: "aaaaaa", Name: "two"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRegistryRedrawsOnCollision(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, &postgres.Room{Code: "AAAAAA"}))
	require.NoError(t, store.Insert(ctx, &postgres.Room{Code: "BBBBBB"}))

	reg := NewRegistry(store, nil).WithGenerator(sequence("AAAAAA", "BBBBBB", "CCCCCC"))

	room, err := reg.CreateWithFreshCode(ctx, &postgres.Room{Name: "third"})
	require.NoError(t, err)
	assert.Equal(t, "CCCCCC", room.Code)
}

// racingStore reports codes as free but rejects the first insert, like a concurrent create would
type racingStore struct {
	*MemoryStore
	raced bool
}

func (s *racingStore) Insert(ctx context.Context, room *postgres.Room) error {
	if !s.raced {
		s.raced = true
		return ErrDuplicateID
	}
	return s.MemoryStore.Insert(ctx, room)
}

func TestRegistryRetriesConcurrentCollision(t *testing.T) {
	reg := NewRegistry(&racingStore{MemoryStore: NewMemoryStore()}, nil).
		WithGenerator(sequence("DDDDDD", "EEEEEE"))

	room, err := reg.CreateWithFreshCode(context.Background(), &postgres.Room{Name: "race"})
	require.NoError(t, err)
	assert.Equal(t, "EEEEEE", room.Code)
}

func TestRegistryGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, &postgres.Room{Code: "ZZZZZZ"}))

	reg := NewRegistry(store, nil).WithGenerator(func() (string, error) { return "ZZZZZZ", nil })

	_, err := reg.CreateWithFreshCode(ctx, &postgres.Room{Name: "stuck"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRegistryReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, &postgres.Room{Code: "FFFFFF", Name: "cached"}))

	cache := newFakeCache()
	reg := NewRegistry(store, cache)

	room, err := reg.FindByCode(ctx, " ffffff ")
	require.NoError(t, err)
	assert.Equal(t, "cached", room.Name)
	assert.Equal(t, 0, cache.hits)

	_, err = reg.FindByCode(ctx, "FFFFFF")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)

	room.Name = "renamed"
	require.NoError(t, reg.Save(ctx, room))
	again, err := reg.FindByCode(ctx, "FFFFFF")
	require.NoError(t, err)
	assert.Equal(t, "renamed", again.Name)
}

func TestRegistryNotFound(t *testing.T) {
	reg := NewRegistry(NewMemoryStore(), newFakeCache())

	_, err := reg.FindByCode(context.Background(), "NOPE22")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := reg.ExistsByCode(context.Background(), "NOPE22")
	require.NoError(t, err)
	assert.False(t, exists)
}
