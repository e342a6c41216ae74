package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("expiry-backend/internal/users")

const maxFullNameLen = 200

// ValidationError lists rejected profile fields with a message per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// EnsureByMobile returns the user for a normalized mobile number, creating
// the row on first verification.
func (s *Service) EnsureByMobile(ctx context.Context, mobile string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return User{}, ErrInvalidInput
	}
	ctx, span := tracer.Start(ctx, "users.EnsureByMobile")
	defer span.End()

	now := s.now()
	user, err := s.Repo.FindOrCreateByMobile(ctx, User{
		ID:           uuid.NewString(),
		MobileNumber: mobile,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ensure user")
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))
	return user, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, ErrNotFound
	}
	ctx, span := tracer.Start(ctx, "users.UpdateProfile")
	defer span.End()

	cleaned, err := validatePatch(patch)
	if err != nil {
		return User{}, err
	}
	user, err := s.Repo.UpdateProfile(ctx, userID, cleaned, s.now())
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update profile")
	}
	return user, err
}

func validatePatch(patch ProfilePatch) (ProfilePatch, error) {
	fields := map[string]string{}
	var out ProfilePatch
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if len(name) > maxFullNameLen {
			fields["fullName"] = "must be at most 200 characters"
		}
		out.FullName = &name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email != "" && !looksLikeEmail(email) {
			fields["email"] = "must be a valid email address"
		}
		out.Email = &email
	}
	if len(fields) > 0 {
		return ProfilePatch{}, &ValidationError{Fields: fields}
	}
	return out, nil
}

func looksLikeEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return false
	}
	_, domain, ok := strings.Cut(raw, "@")
	return ok && strings.Contains(domain, ".")
}
