package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/localsolutions/board-api/internal/core/port"
)

var (
	// ErrMalformedToken indicates the token could not be parsed or its signature did not verify.
	ErrMalformedToken = errors.New("token: malformed")
	// ErrTokenExpired indicates the token's expiry instant has passed.
	ErrTokenExpired = errors.New("token: expired")
	// ErrTokenNotYetValid indicates the token was presented before its issued-at instant.
	ErrTokenNotYetValid = errors.New("token: used before issued")
	// ErrSubSecondIssuedAt is returned by Issue when issuedAt carries a fractional second.
	// Time claims are whole seconds, so such a token could not cover exactly [issuedAt, issuedAt+TTL).
	ErrSubSecondIssuedAt = errors.New("token: issued-at must be a whole second")
	// ErrWeakSigningSecret is a startup misconfiguration; the process refuses to start with it.
	ErrWeakSigningSecret = errors.New("token: signing secret must be at least 32 bytes")
)

const minSecretLength = 32

// TokenCodecOptions configures session token signing.
type TokenCodecOptions struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// SessionClaims is the claim set carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenCodec issues and validates HS256 session tokens. Validity at instant t
// is iat <= t < exp with no clock-skew allowance.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec validates the signing configuration and builds a codec.
func NewTokenCodec(opts TokenCodecOptions) (*TokenCodec, error) {
	if len(opts.Secret) < minSecretLength {
		return nil, ErrWeakSigningSecret
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("token: ttl must be positive, got %s", opts.TTL)
	}
	if opts.TTL%time.Second != 0 {
		return nil, fmt.Errorf("token: ttl must be a whole number of seconds, got %s", opts.TTL)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &TokenCodec{
		secret: []byte(opts.Secret),
		issuer: strings.TrimSpace(opts.Issuer),
		ttl:    opts.TTL,
		now:    now,
	}, nil
}

// WithClock overrides the validation clock for deterministic testing.
func (c *TokenCodec) WithClock(clock func() time.Time) *TokenCodec {
	if clock != nil {
		c.now = clock
	}
	return c
}

// TTL reports the fixed lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject valid from issuedAt for the configured TTL.
// issuedAt must fall on a whole second.
func (c *TokenCodec) Issue(subject string, issuedAt time.Time) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("token: subject is required")
	}

	iat := issuedAt.UTC()
	if !iat.Equal(iat.Truncate(time.Second)) {
		return "", fmt.Errorf("%w: %s", ErrSubSecondIssuedAt, iat.Format(time.RFC3339Nano))
	}
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// ExtractSubject verifies the token and returns its subject claim.
func (c *TokenCodec) ExtractSubject(token string) (string, error) {
	claims, err := c.parse(token, true)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrMalformedToken
	}
	return claims.Subject, nil
}

// Validate reports whether the token verifies, is inside its validity window and names expectedSubject.
func (c *TokenCodec) Validate(token, expectedSubject string) bool {
	claims, err := c.parse(token, true)
	if err != nil {
		return false
	}
	return claims.Subject != "" && claims.Subject == expectedSubject
}

// ExtractExpiry returns the expiry instant of a correctly signed token without
// checking the time claims, so a token on the edge of expiry can still be revoked.
func (c *TokenCodec) ExtractExpiry(token string) (time.Time, error) {
	claims, err := c.parse(token, false)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformedToken
	}
	return claims.ExpiresAt.Time.UTC(), nil
}

func (c *TokenCodec) parse(raw string, validateTime bool) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformedToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if validateTime {
		opts = append(opts, jwt.WithIssuedAt(), jwt.WithExpirationRequired())
	} else {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, classifyParseError(err)
	}
	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrTokenNotYetValid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

var _ port.TokenCodec = (*TokenCodec)(nil)
