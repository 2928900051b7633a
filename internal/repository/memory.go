package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ezazahamad2003/pre-funnel/internal/entity"
)

// MemoryUsersRepository keeps users in process memory. It backs the
// zero-configuration runtime and the handler tests.
type MemoryUsersRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]entity.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewMemoryUsersRepository builds an empty in-memory users repository.
func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{
		byID:    make(map[uuid.UUID]entity.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// Create stores a new user, enforcing email uniqueness.
func (r *MemoryUsersRepository) Create(_ context.Context, email, name string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ErrEmailDuplicate
	}
	user := entity.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: r.now().UTC(),
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return &user, nil
}

// FindByID returns the stored user or ErrUserNotFound.
func (r *MemoryUsersRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// FindByEmail returns the stored user or ErrUserNotFound.
func (r *MemoryUsersRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := r.byID[id]
	return &user, nil
}

var _ UsersRepository = (*MemoryUsersRepository)(nil)

// MemoryConnectionsRepository keeps social credentials in process memory.
type MemoryConnectionsRepository struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[entity.Channel]entity.SocialConnection
	now   func() time.Time
}

// NewMemoryConnectionsRepository builds an empty in-memory connections store.
func NewMemoryConnectionsRepository() *MemoryConnectionsRepository {
	return &MemoryConnectionsRepository{
		conns: make(map[uuid.UUID]map[entity.Channel]entity.SocialConnection),
		now:   time.Now,
	}
}

// Upsert stores or refreshes the credential for (user, platform).
func (r *MemoryConnectionsRepository) Upsert(_ context.Context, conn *entity.SocialConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byPlatform, ok := r.conns[conn.UserID]
	if !ok {
		byPlatform = make(map[entity.Channel]entity.SocialConnection)
		r.conns[conn.UserID] = byPlatform
	}

	now := r.now().UTC()
	if existing, ok := byPlatform[conn.Platform]; ok {
		conn.CreatedAt = existing.CreatedAt
	} else {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	byPlatform[conn.Platform] = *conn
	return nil
}

// Get returns the credential for (user, platform) or ErrConnectionNotFound.
func (r *MemoryConnectionsRepository) Get(_ context.Context, userID uuid.UUID, platform entity.Channel) (*entity.SocialConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[userID][platform]
	if !ok {
		return nil, ErrConnectionNotFound
	}
	return &conn, nil
}

// ListByUser returns the user's credentials ordered by platform.
func (r *MemoryConnectionsRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.SocialConnection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byPlatform := r.conns[userID]
	conns := make([]entity.SocialConnection, 0, len(byPlatform))
	for _, conn := range byPlatform {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].Platform < conns[j].Platform })
	return conns, nil
}

var _ ConnectionsRepository = (*MemoryConnectionsRepository)(nil)
