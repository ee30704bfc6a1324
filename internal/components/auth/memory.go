package auth

import (
	"context"
	"sync"
)

type (
	// InMemoryUserRepo is a map-backed UserRepository. It enforces the same
	// username/email uniqueness as the Mongo indexes and serializes writers
	// with a mutex, so concurrent signups race safely.
	InMemoryUserRepo struct {
		mu    sync.RWMutex
		users map[string]User
	}

	// InMemorySessionRepo is a map-backed SessionRepository.
	InMemorySessionRepo struct {
		mu       sync.RWMutex
		sessions map[string]Session
	}
)

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{users: make(map[string]User)}
}

func (r *InMemoryUserRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return &DuplicateKeyError{Field: "username"}
		}
		if u.Email == user.Email {
			return &DuplicateKeyError{Field: "email"}
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *InMemoryUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user := u
	return &user, nil
}

// Delete removes a user record. Used to exercise sessions whose user no
// longer exists.
func (r *InMemoryUserRepo) Delete(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// Count returns the number of stored records.
func (r *InMemoryUserRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func NewInMemorySessionRepo() *InMemorySessionRepo {
	return &InMemorySessionRepo{sessions: make(map[string]Session)}
}

func (r *InMemorySessionRepo) Create(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = *session
	return nil
}

func (r *InMemorySessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[tokenHash]
	if !ok {
		return nil, ErrNotFound
	}
	session := s
	return &session, nil
}

func (r *InMemorySessionRepo) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}
