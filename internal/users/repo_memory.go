package users

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	users    map[string]User
	byMobile map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    make(map[string]User),
		byMobile: make(map[string]string),
	}
}

func (r *MemoryRepo) FindOrCreateByMobile(ctx context.Context, candidate User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byMobile[candidate.MobileNumber]; ok {
		return r.users[id], nil
	}
	r.users[candidate.ID] = candidate
	r.byMobile[candidate.MobileNumber] = candidate.ID
	return candidate, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch, at time.Time) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	if patch.FullName != nil {
		user.FullName = *patch.FullName
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	user.UpdatedAt = at
	r.users[userID] = user
	return user, nil
}

var _ Repo = (*MemoryRepo)(nil)
