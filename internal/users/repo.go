package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repo interface {
	// FindOrCreateByMobile returns the user owning candidate.MobileNumber,
	// inserting candidate when none exists yet.
	FindOrCreateByMobile(ctx context.Context, candidate User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch, at time.Time) (User, error)
}
