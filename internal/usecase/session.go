package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/core/port"
	"github.com/localsolutions/board-api/internal/infra/logger"
	"github.com/localsolutions/board-api/internal/infra/security"
	"github.com/localsolutions/board-api/internal/infra/telemetry"
	"github.com/localsolutions/board-api/internal/repository"
)

// SessionObserver receives auth gate and revocation outcomes for metrics.
type SessionObserver interface {
	ObserveAuthDecision(outcome, reason string)
	ObserveRevocation(origin string)
}

// SessionOptions configures optional SessionService collaborators.
type SessionOptions struct {
	// InstanceID tags published revocations so this instance can ignore its own events.
	InstanceID string
	Publisher  port.RevocationPublisher
	Metrics    SessionObserver
	Logger     *zap.Logger
	Now        func() time.Time
}

// IssuedToken is a freshly signed session token and its lifetime.
type IssuedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TTL       time.Duration
}

// SessionService issues, authenticates and revokes session tokens.
type SessionService struct {
	codec       port.TokenCodec
	revocations port.RevocationStore
	identities  port.IdentityDirectory
	publisher   port.RevocationPublisher
	metrics     SessionObserver
	logger      *zap.Logger
	instanceID  string
	now         func() time.Time
}

func NewSessionService(codec port.TokenCodec, revocations port.RevocationStore, identities port.IdentityDirectory, opts SessionOptions) *SessionService {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SessionService{
		codec:       codec,
		revocations: revocations,
		identities:  identities,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		logger:      log,
		instanceID:  opts.InstanceID,
		now:         now,
	}
}

// Issue signs a token for the identity's username.
func (s *SessionService) Issue(_ context.Context, identity domain.Identity) (IssuedToken, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)
	token, err := s.codec.Issue(identity.Username, issuedAt)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("issue session token: %w", err)
	}
	ttl := s.codec.TTL()
	return IssuedToken{
		Token:     token,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(ttl),
		TTL:       ttl,
	}, nil
}

// Authenticate resolves a bearer token to its principal. Checks run in a fixed order:
// revocation, signature and time window, identity lookup, then subject validation.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	principal, err := s.authenticate(ctx, token)
	if err != nil {
		s.observe(telemetry.OutcomeRejected, RejectionReason(err))
		return nil, err
	}
	s.observe(telemetry.OutcomeAllowed, "")
	return principal, nil
}

func (s *SessionService) authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		logger.WithContext(ctx).Error("revocation check failed", zap.Error(err))
		return nil, fmt.Errorf("%w: revocation check: %v", ErrInvalidToken, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	subject, err := s.codec.ExtractSubject(token)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, security.ErrTokenNotYetValid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	identity, err := s.identities.LookupIdentity(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		logger.WithContext(ctx).Error("identity lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: identity lookup: %v", ErrInvalidToken, err)
	}
	if identity == nil {
		return nil, ErrUnknownSubject
	}

	if !s.codec.Validate(token, identity.Username) {
		return nil, ErrInvalidToken
	}

	return domain.NewPrincipal(*identity), nil
}

// Logout revokes the token until its natural expiry and tells peer instances about it.
// A token that does not carry a verifiable expiry yields ErrNothingToRevoke.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNothingToRevoke
	}

	expiresAt, err := s.codec.ExtractExpiry(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNothingToRevoke, err)
	}

	if err := s.revocations.Revoke(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveRevocation("local")
	}

	// Subject is informational; an already expired token still gets revoked.
	subject, _ := s.codec.ExtractSubject(token)
	digest := security.TokenDigest(token)
	log := logger.WithContext(ctx)
	log.Info("session token revoked",
		zap.String("subject", logger.MaskString(subject)),
		zap.String("token_digest", logger.MaskDigest(digest)),
		zap.Time("expires_at", expiresAt),
	)

	if s.publisher != nil {
		event := domain.TokenRevokedEvent{
			EventID:     uuid.NewString(),
			TokenDigest: digest,
			Subject:     subject,
			ExpiresAt:   expiresAt,
			RevokedAt:   s.now().UTC(),
			Reason:      "logout",
			Origin:      s.instanceID,
		}
		if err := s.publisher.PublishTokenRevoked(ctx, event); err != nil {
			log.Warn("publish token revocation failed", zap.Error(err))
		}
	}
	return nil
}

func (s *SessionService) observe(outcome, reason string) {
	if s.metrics != nil {
		s.metrics.ObserveAuthDecision(outcome, reason)
	}
}
