package otp

import (
	"context"
	"fmt"
	"regexp"

	"github.com/alexedwards/argon2id"

	"github.com/jitsports/sportsroom/internal/clock"
	"github.com/jitsports/sportsroom/internal/domain"
	"github.com/jitsports/sportsroom/internal/ratelimit"
	"github.com/jitsports/sportsroom/internal/repository"
	"github.com/jitsports/sportsroom/pkg/auth"
	"github.com/jitsports/sportsroom/pkg/config"
	"github.com/jitsports/sportsroom/pkg/events"
	"github.com/jitsports/sportsroom/pkg/logger"
)

// Service is the one-time-code authenticator: it issues codes, verifies them
// exactly once, and provisions identities on first successful verification.
type Service interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*domain.Session, error)
}

type service struct {
	identities repository.IdentityRepository
	codes      repository.CodeRepository
	limiter    ratelimit.Limiter
	generator  Generator
	clock      clock.Clock
	eventBus   events.Publisher
	config     *config.Config
}

func NewService(
	identities repository.IdentityRepository,
	codes repository.CodeRepository,
	limiter ratelimit.Limiter,
	generator Generator,
	clk clock.Clock,
	eventBus events.Publisher,
	cfg *config.Config,
) Service {
	return &service{
		identities: identities,
		codes:      codes,
		limiter:    limiter,
		generator:  generator,
		clock:      clk,
		eventBus:   eventBus,
		config:     cfg,
	}
}

func (s *service) RequestCode(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		return domain.ErrRateLimited
	}

	identity, err := s.identities.GetOrCreateByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get or create identity: %w", err)
	}

	code, err := s.generator.Code(s.config.OTP.CodeLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	codeHash, err := argon2id.CreateHash(code, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.config.OTP.TTL)

	// Supersedes any outstanding code for this identity: after this call
	// exactly one valid code exists, no matter how often it is requested.
	if _, err := s.codes.ReplaceActive(ctx, identity.ID, codeHash, now, expiresAt); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	event := events.CodeIssuedEvent{
		Email:     identity.Email,
		Code:      code,
		ExpiresAt: expiresAt,
		IssuedAt:  now,
	}
	if err := s.eventBus.Publish(ctx, events.CodeIssued, event); err != nil {
		// Delivery is best effort and never fails the request.
		logger.ErrorContext(ctx, "Failed to publish code issued event", "error", err, "identity_id", identity.ID)
	}

	logger.InfoContext(ctx, "One-time code issued", "identity_id", identity.ID, "expires_at", expiresAt)
	return nil
}

func (s *service) VerifyCode(ctx context.Context, email, code string) (*domain.Session, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validateCodeShape(code); err != nil {
		return nil, err
	}

	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity == nil {
		return nil, domain.ErrNotFound
	}

	outstanding, err := s.codes.ActiveByIdentity(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch outstanding code: %w", err)
	}
	if outstanding == nil {
		return nil, domain.ErrNotFound
	}
	if outstanding.IsConsumed() {
		return nil, domain.ErrAlreadyConsumed
	}

	now := s.clock.Now()
	if outstanding.IsExpired(now) {
		return nil, domain.ErrExpired
	}

	// argon2id comparison is constant time over the derived key.
	match, err := argon2id.ComparePasswordAndHash(code, outstanding.CodeHash)
	if err != nil {
		return nil, fmt.Errorf("compare code: %w", err)
	}
	if !match {
		return nil, domain.ErrMismatch
	}

	// Consume and provision commit together; a storage failure here leaves
	// the code intact so the same correct code can be retried.
	consumed, err := s.codes.ConsumeAndProvision(ctx, outstanding.ID, identity.ID, now)
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if !consumed {
		// A concurrent verification won the consume race.
		return nil, domain.ErrAlreadyConsumed
	}

	if !identity.Provisioned {
		identity.Provisioned = true
		logger.InfoContext(ctx, "Identity provisioned", "identity_id", identity.ID)
	}

	token, err := auth.NewSessionToken(identity.ID, identity.Email, s.config.Auth.JWTSecret, s.config.Auth.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("mint session token: %w", err)
	}

	return &domain.Session{
		Token:     token,
		ExpiresIn: int64(s.config.Auth.SessionTTL.Seconds()),
		Identity:  identity,
	}, nil
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

func (s *service) validateCodeShape(code string) error {
	if code == "" {
		return fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	if len(code) != s.config.OTP.CodeLength || !digitsOnly.MatchString(code) {
		return fmt.Errorf("%w: code must be %d digits", domain.ErrInvalidInput, s.config.OTP.CodeLength)
	}
	return nil
}
