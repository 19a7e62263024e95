package messages

import (
	"CodeCollab/models/postgres"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultHistoryLimit caps History when the caller passes a non positive limit
const DefaultHistoryLimit = 100

// Store is the append-only chat history
type Store interface {
	Append(ctx context.Context, roomCode, sender, content string) (*postgres.ChatMessage, error)
	// History returns the latest messages of a room, oldest first. An empty roomCode means global chat.
	History(ctx context.Context, roomCode string, limit int) ([]postgres.ChatMessage, error)
}

func newMessage(roomCode, sender, content string) *postgres.ChatMessage {
	return &postgres.ChatMessage{
		ID:       uuid.NewString(),
		RoomCode: roomCode,
		Sender:   sender,
		Content:  content,
		SentAt:   time.Now(),
	}
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, roomCode, sender, content string) (*postgres.ChatMessage, error) {
	msg := newMessage(roomCode, sender, content)
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("error saving chat message: %w", err)
	}
	return msg, nil
}

func (s *GormStore) History(ctx context.Context, roomCode string, limit int) ([]postgres.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	var latest []postgres.ChatMessage
	err := s.db.WithContext(ctx).
		Where("room_code = ?", roomCode).
		Order("sent_at desc").
		Limit(limit).
		Find(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("error reading chat history: %w", err)
	}
	reverse(latest)
	return latest, nil
}

// MemoryStore keeps the history in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	byRoom map[string][]postgres.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byRoom: make(map[string][]postgres.ChatMessage)}
}

func (s *MemoryStore) Append(_ context.Context, roomCode, sender, content string) (*postgres.ChatMessage, error) {
	msg := newMessage(roomCode, sender, content)
	s.mu.Lock()
	s.byRoom[roomCode] = append(s.byRoom[roomCode], *msg)
	s.mu.Unlock()
	return msg, nil
}

func (s *MemoryStore) History(_ context.Context, roomCode string, limit int) ([]postgres.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.mu.RLock()
	all := s.byRoom[roomCode]
	start := 0
	if len(all) > limit {
		start = len(all) - limit
	}
	out := append([]postgres.ChatMessage(nil), all[start:]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func reverse(msgs []postgres.ChatMessage) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
