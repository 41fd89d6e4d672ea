package port

import "time"

// TokenCodec issues and validates signed session tokens.
type TokenCodec interface {
	Issue(subject string, issuedAt time.Time) (string, error)
	ExtractSubject(token string) (string, error)
	Validate(token, expectedSubject string) bool
	ExtractExpiry(token string) (time.Time, error)
	TTL() time.Duration
}

// PasswordHasher hashes and verifies secrets using the configured algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}
