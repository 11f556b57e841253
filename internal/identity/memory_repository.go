package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
		if user.AcademicEmail != "" && strings.EqualFold(existing.AcademicEmail, user.AcademicEmail) {
			return ErrEmailTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	return r.find(func(u User) bool { return u.Username == username })
}

func (r *memoryRepository) FindByAcademicEmail(_ context.Context, email string) (User, error) {
	return r.find(func(u User) bool { return u.AcademicEmail != "" && strings.EqualFold(u.AcademicEmail, email) })
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	return r.update(id, func(u *User) { u.TokenVersion = version })
}

func (r *memoryRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	at = at.UTC()
	return r.update(id, func(u *User) { u.LastLogin = &at })
}

func (r *memoryRepository) find(match func(User) bool) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if match(user) {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) update(id string, mutate func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	mutate(&user)
	r.users[id] = user
	return nil
}
