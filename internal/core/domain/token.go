package domain

import "time"

// TokenRevocation is a revoked session token retained until its natural expiry.
// Only the token digest is kept; the raw token never leaves the revoking process.
type TokenRevocation struct {
	TokenDigest string
	Subject     string
	ExpiresAt   time.Time
	RevokedAt   time.Time
	Reason      string
}

// RevocationSnapshot is a serialised copy of the local revocation set used for warm starts.
type RevocationSnapshot struct {
	SnapshotID  string
	GeneratedAt time.Time
	Payload     []byte
	Checksum    string
}
