package rooms

import (
	"CodeCollab/models/postgres"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultLanguage          = "javascript"
	DefaultMinPasswordLength = 4
)

// RoomView is what callers get back from the Coordinator.
// Password is only filled in the response to CreateRoom.
type RoomView struct {
	RoomID          string    `json:"roomId"`
	Password        string    `json:"password,omitempty"`
	Name            string    `json:"name"`
	CreatorUsername string    `json:"creatorUsername"`
	ActiveUsers     []string  `json:"activeUsers"`
	CurrentCode     string    `json:"currentCode"`
	CurrentLanguage string    `json:"currentLanguage"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	LastActivity    time.Time `json:"lastActivity"`
}

type UsersCount struct {
	RoomID     string   `json:"roomId"`
	UsersCount int      `json:"usersCount"`
	Users      []string `json:"users"`
}

func viewOf(room *postgres.Room) *RoomView {
	return &RoomView{
		RoomID:          room.Code,
		Name:            room.Name,
		CreatorUsername: room.CreatorUsername,
		ActiveUsers:     append([]string{}, room.Members...),
		CurrentCode:     room.CurrentCode,
		CurrentLanguage: room.CurrentLanguage,
		IsActive:        room.IsActive,
		CreatedAt:       room.CreatedAt,
		LastActivity:    room.LastActivity,
	}
}

// Coordinator validates room requests and applies them to the Registry.
// Mutations of one room are serialized, different rooms proceed in parallel.
type Coordinator struct {
	registry          *Registry
	locks             *keyedMutex
	minPasswordLength int
	hashCost          int
	now               func() time.Time
}

func NewCoordinator(registry *Registry, minPasswordLength int) *Coordinator {
	if minPasswordLength < 1 {
		minPasswordLength = DefaultMinPasswordLength
	}
	return &Coordinator{
		registry:          registry,
		locks:             newKeyedMutex(),
		minPasswordLength: minPasswordLength,
		hashCost:          bcrypt.DefaultCost,
		now:               time.Now,
	}
}

// WithHashCost sets the bcrypt cost used for room passwords
func (c *Coordinator) WithHashCost(cost int) *Coordinator {
	c.hashCost = cost
	return c
}

func (c *Coordinator) CreateRoom(ctx context.Context, name, password, creator string) (*RoomView, error) {
	name = strings.TrimSpace(name)
	creator = strings.TrimSpace(creator)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}
	if len(password) < c.minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, c.minPasswordLength)
	}
	if creator == "" {
		return nil, fmt.Errorf("%w: creator username is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.hashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing room password: %w", err)
	}

	now := c.now()
	room, err := c.registry.CreateWithFreshCode(ctx, &postgres.Room{
		Name:            name,
		PasswordHash:    string(hash),
		CreatorUsername: creator,
		Members:         pq.StringArray{creator},
		CurrentLanguage: DefaultLanguage,
		IsActive:        true,
		CreatedAt:       now,
		LastActivity:    now,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ROOM] %s created room %s (%s)", creator, room.Code, room.Name)

	view := viewOf(room)
	view.Password = password
	return view, nil
}

func (c *Coordinator) JoinRoom(ctx context.Context, code, password, username string) (*RoomView, error) {
	code = NormalizeCode(code)
	username = strings.TrimSpace(username)
	if code == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrValidation)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}

	// The hash never changes after creation, so the slow comparison runs outside the room lock
	room, err := c.registry.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredential
	}

	unlock := c.locks.Lock(code)
	defer unlock()

	room, err = c.registry.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, ErrInactive
	}
	if !lo.Contains([]string(room.Members), username) {
		room.Members = append(room.Members, username)
	}
	room.LastActivity = c.now()
	if err := c.registry.Save(ctx, room); err != nil {
		return nil, err
	}
	log.Printf("[ROOM] %s joined room %s", username, code)
	return viewOf(room), nil
}

func (c *Coordinator) LeaveRoom(ctx context.Context, code, username string) error {
	code = NormalizeCode(code)
	username = strings.TrimSpace(username)

	unlock := c.locks.Lock(code)
	defer unlock()

	room, err := c.registry.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	room.Members = lo.Without([]string(room.Members), username)
	room.LastActivity = c.now()
	if err := c.registry.Save(ctx, room); err != nil {
		return err
	}
	log.Printf("[ROOM] %s left room %s", username, code)
	return nil
}

// UpdateCode replaces the shared buffer. A missing room is not an error:
// edits can race with the room going away and are dropped.
func (c *Coordinator) UpdateCode(ctx context.Context, code, newCode, language string) error {
	code = NormalizeCode(code)

	unlock := c.locks.Lock(code)
	defer unlock()

	room, err := c.registry.FindByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		log.Printf("[ROOM] Dropping code update for unknown room %s", code)
		return nil
	}
	if err != nil {
		return err
	}
	room.CurrentCode = newCode
	if language != "" {
		room.CurrentLanguage = language
	}
	room.LastActivity = c.now()
	return c.registry.Save(ctx, room)
}

func (c *Coordinator) GetRoom(ctx context.Context, code string) (*RoomView, error) {
	room, err := c.registry.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return viewOf(room), nil
}

func (c *Coordinator) GetUsersCount(ctx context.Context, code string) (*UsersCount, error) {
	room, err := c.registry.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &UsersCount{
		RoomID:     room.Code,
		UsersCount: len(room.Members),
		Users:      append([]string{}, room.Members...),
	}, nil
}

// Deactivate marks a room inactive. Rooms are never deleted.
func (c *Coordinator) Deactivate(ctx context.Context, code string) error {
	code = NormalizeCode(code)

	unlock := c.locks.Lock(code)
	defer unlock()

	room, err := c.registry.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	room.IsActive = false
	room.LastActivity = c.now()
	return c.registry.Save(ctx, room)
}
