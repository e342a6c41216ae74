package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	sharedauth "expiry-backend/internal/shared/auth"
	"expiry-backend/internal/shared/metrics"
	"expiry-backend/internal/shared/telemetry"
	"expiry-backend/internal/users"
)

const (
	codeLength         = 6
	defaultCodeTTL     = 5 * time.Minute
	defaultMaxAttempts = 5
	messageTemplate    = "Your verification code is %s"
)

var tracer = otel.Tracer("expiry-backend/internal/auth")

// UserEnsurer creates the user row on first successful verification.
type UserEnsurer interface {
	EnsureByMobile(ctx context.Context, mobile string) (users.User, error)
}

// TokenSigner issues session tokens.
type TokenSigner interface {
	Sign(userID, mobile string) (string, sharedauth.Claims, error)
}

// Session is the result of a successful verification.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      users.User `json:"user"`
}

type Service struct {
	Codes       CodeStore
	Sender      Sender
	Users       UserEnsurer
	Signer      TokenSigner
	Revocations Revocations

	CodeTTL     time.Duration
	MaxAttempts int
	// HashCost is the bcrypt cost for stored codes; zero means bcrypt.DefaultCost.
	HashCost     int
	Now          func() time.Time
	GenerateCode func() (string, error)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) codeTTL() time.Duration {
	if s.CodeTTL <= 0 {
		return defaultCodeTTL
	}
	return s.CodeTTL
}

func (s *Service) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return s.MaxAttempts
}

func (s *Service) hashCost() int {
	if s.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.HashCost
}

// RequestCode sends a fresh code to the number and returns the normalized form.
// A new request replaces any code still pending for the same number.
func (s *Service) RequestCode(ctx context.Context, rawMobile string) (string, error) {
	ctx, span := tracer.Start(ctx, "auth.RequestCode")
	defer span.End()

	mobile := NormalizeMobile(rawMobile)
	if !ValidMobile(mobile) {
		metrics.IncOTPRequested("invalid_number")
		return "", ErrInvalidNumber
	}

	generate := s.GenerateCode
	if generate == nil {
		generate = generateCode
	}
	code, err := generate()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost())
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	if err := s.Codes.Put(ctx, mobile, hash, s.codeTTL()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store code")
		metrics.IncOTPRequested("store_error")
		return "", err
	}

	if err := s.Sender.Send(ctx, mobile, fmt.Sprintf(messageTemplate, code)); err != nil {
		_ = s.Codes.Delete(ctx, mobile)
		kind := classifyProviderError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "send sms")
		telemetry.Error("otp.send_failed", map[string]any{
			"mobile": maskMobile(mobile),
			"error":  err.Error(),
		})
		if errors.Is(kind, ErrProviderNotConfigured) {
			metrics.IncOTPRequested("provider_not_configured")
		} else {
			metrics.IncOTPRequested("provider_error")
		}
		return "", fmt.Errorf("%w: %s", kind, err.Error())
	}

	metrics.IncOTPRequested("sent")
	telemetry.Info("otp.sent", map[string]any{"mobile": maskMobile(mobile)})
	return mobile, nil
}

// VerifyCode checks a code and, on success, consumes it and opens a session.
func (s *Service) VerifyCode(ctx context.Context, rawMobile, code string) (Session, error) {
	ctx, span := tracer.Start(ctx, "auth.VerifyCode")
	defer span.End()

	mobile := NormalizeMobile(rawMobile)
	if !ValidMobile(mobile) {
		metrics.IncOTPVerified("invalid_number")
		return Session{}, ErrInvalidNumber
	}
	code = strings.TrimSpace(code)
	if !validCode(code) {
		metrics.IncOTPVerified("invalid_code")
		return Session{}, ErrInvalidCode
	}

	entry, err := s.Codes.Get(ctx, mobile)
	if errors.Is(err, errNoCode) {
		metrics.IncOTPVerified("expired")
		return Session{}, ErrCodeExpired
	}
	if err != nil {
		span.RecordError(err)
		return Session{}, err
	}
	if !entry.ExpiresAt.IsZero() && !s.now().Before(entry.ExpiresAt) {
		_ = s.Codes.Delete(ctx, mobile)
		metrics.IncOTPVerified("expired")
		return Session{}, ErrCodeExpired
	}
	// Reserve the attempt before comparing so concurrent guesses share one budget.
	attempts, err := s.Codes.IncrementAttempts(ctx, mobile)
	if errors.Is(err, errNoCode) {
		metrics.IncOTPVerified("expired")
		return Session{}, ErrCodeExpired
	}
	if err != nil {
		span.RecordError(err)
		return Session{}, err
	}
	if attempts > s.maxAttempts() {
		_ = s.Codes.Delete(ctx, mobile)
		metrics.IncOTPVerified("exhausted")
		return Session{}, ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword(entry.Hash, []byte(code)) != nil {
		if attempts >= s.maxAttempts() {
			_ = s.Codes.Delete(ctx, mobile)
			metrics.IncOTPVerified("exhausted")
			return Session{}, ErrCodeExpired
		}
		metrics.IncOTPVerified("invalid_code")
		return Session{}, ErrInvalidCode
	}

	if err := s.Codes.Delete(ctx, mobile); err != nil {
		return Session{}, err
	}
	user, err := s.Users.EnsureByMobile(ctx, mobile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ensure user")
		return Session{}, err
	}
	token, claims, err := s.Signer.Sign(user.ID, mobile)
	if err != nil {
		return Session{}, err
	}

	metrics.IncOTPVerified("ok")
	telemetry.Info("otp.verified", map[string]any{"user_id": user.ID})
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// SignOut revokes the session token. Revocation failures are logged and
// never reported to the caller.
func (s *Service) SignOut(ctx context.Context, tokenID string, expiresAt time.Time) {
	if s.Revocations == nil || tokenID == "" {
		return
	}
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(24 * time.Hour)
	}
	if err := s.Revocations.Revoke(ctx, tokenID, expiresAt); err != nil {
		telemetry.Warn("auth.signout_failed", map[string]any{
			"token_id": tokenID,
			"error":    err.Error(),
		})
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func maskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return mobile
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}
