package users

import (
	"CodeCollab/models/postgres"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUserExists   = errors.New("username already taken")
	ErrInvalidLogin = errors.New("invalid username or password")
	ErrNotFound     = errors.New("user not found")
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

type Store interface {
	// Create fails with ErrUserExists when the username is taken
	Create(ctx context.Context, user *postgres.User) error
	FindByUsername(ctx context.Context, username string) (*postgres.User, error)
	TouchLogin(ctx context.Context, username string, at time.Time) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, user *postgres.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		var pqErr *pq.Error
		if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &pqErr) && pqErr.Code == "23505") {
			return ErrUserExists
		}
		return fmt.Errorf("error creating user %s: %w", user.Username, err)
	}
	return nil
}

func (s *GormStore) FindByUsername(ctx context.Context, username string) (*postgres.User, error) {
	var user postgres.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user %s: %w", username, err)
	}
	return &user, nil
}

func (s *GormStore) TouchLogin(ctx context.Context, username string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&postgres.User{}).
		Where("username = ?", username).
		Update("last_login", at).Error
}

type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]postgres.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]postgres.User)}
}

func (s *MemoryStore) Create(_ context.Context, user *postgres.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return ErrUserExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.Username] = *user
	return nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*postgres.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) TouchLogin(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	user.LastLogin = &at
	s.users[username] = user
	return nil
}

// Service registers and authenticates users
type Service struct {
	store    Store
	hashCost int
}

func NewService(store Store) *Service {
	return &Service{store: store, hashCost: bcrypt.DefaultCost}
}

// WithHashCost lowers the bcrypt cost, tests only
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

func (s *Service) SignUp(ctx context.Context, username, password, displayName string) (*postgres.User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if len(username) < MinUsernameLength {
		return nil, fmt.Errorf("%w: username must be at least %d characters", ErrInvalidInput, MinUsernameLength)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user := &postgres.User{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[USER] %s signed up", username)
	return user, nil
}

// Login checks the credentials and records the login time
func (s *Service) Login(ctx context.Context, username, password string) (*postgres.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: parameters can't be empty", ErrInvalidInput)
	}
	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidLogin
	}

	now := time.Now()
	if err := s.store.TouchLogin(ctx, username, now); err != nil {
		log.Printf("[USER-ERROR] Recording login of %s: %v", username, err)
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, username string) (*postgres.User, error) {
	return s.store.FindByUsername(ctx, username)
}
