package rooms

import (
	"CodeCollab/models/postgres"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Store is the durable side of the Registry
type Store interface {
	// Insert fails with ErrDuplicateID when the code is taken
	Insert(ctx context.Context, room *postgres.Room) error
	// FindByCode fails with ErrNotFound when there is no such room
	FindByCode(ctx context.Context, code string) (*postgres.Room, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save overwrites the full state of an existing room
	Save(ctx context.Context, room *postgres.Room) error
}

// GormStore keeps rooms in PostgreSQL
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, room *postgres.Room) error {
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("error inserting room %s: %w", room.Code, err)
	}
	return nil
}

func (s *GormStore) FindByCode(ctx context.Context, code string) (*postgres.Room, error) {
	var room postgres.Room
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding room %s: %w", code, err)
	}
	return &room, nil
}

func (s *GormStore) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&postgres.Room{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking room %s: %w", code, err)
	}
	return count > 0, nil
}

func (s *GormStore) Save(ctx context.Context, room *postgres.Room) error {
	if err := s.db.WithContext(ctx).Save(room).Error; err != nil {
		return fmt.Errorf("error saving room %s: %w", room.Code, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// MemoryStore keeps rooms in process memory. Used when PostgreSQL is not configured, and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*postgres.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*postgres.Room)}
}

func (s *MemoryStore) Insert(_ context.Context, room *postgres.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.Code]; exists {
		return ErrDuplicateID
	}
	s.rooms[room.Code] = room.Clone()
	return nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (*postgres.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, exists := s.rooms[code]
	if !exists {
		return nil, ErrNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryStore) ExistsByCode(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.rooms[code]
	return exists, nil
}

func (s *MemoryStore) Save(_ context.Context, room *postgres.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = room.Clone()
	return nil
}
