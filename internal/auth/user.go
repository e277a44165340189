// Package auth is the tracker's identity provider: password and Google
// sign-in, signed access tokens, sign-out and current-user lookup.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is a signed-up account. PasswordHash is empty for Google-only users.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Provider     string    `json:"provider"`
	GoogleID     string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository persists accounts. Lookups of unknown users return
// ErrUserNotFound; Create with a taken email returns ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByGoogleID(ctx context.Context, googleID string) (User, error)
	LinkGoogle(ctx context.Context, id, googleID string) error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUsers is an in-process UserRepository.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]User)}
}

func (m *MemoryUsers) Create(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *MemoryUsers) FindByID(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryUsers) FindByEmail(_ context.Context, email string) (User, error) {
	return m.find(func(u User) bool { return u.Email == email })
}

func (m *MemoryUsers) FindByGoogleID(_ context.Context, googleID string) (User, error) {
	return m.find(func(u User) bool { return googleID != "" && u.GoogleID == googleID })
}

func (m *MemoryUsers) LinkGoogle(_ context.Context, id, googleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.GoogleID = googleID
	m.users[id] = u
	return nil
}

func (m *MemoryUsers) find(match func(User) bool) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}
