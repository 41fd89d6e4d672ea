package domain

import "time"

// TokenRevokedEvent is broadcast to every instance when a session token is revoked.
type TokenRevokedEvent struct {
	EventID     string    `json:"event_id"`
	TokenDigest string    `json:"token_digest"`
	Subject     string    `json:"subject"`
	ExpiresAt   time.Time `json:"expires_at"`
	RevokedAt   time.Time `json:"revoked_at"`
	Reason      string    `json:"reason"`
	Origin      string    `json:"origin"`
}

// Revocation converts the event into the record stored locally.
func (e TokenRevokedEvent) Revocation() TokenRevocation {
	return TokenRevocation{
		TokenDigest: e.TokenDigest,
		Subject:     e.Subject,
		ExpiresAt:   e.ExpiresAt.UTC(),
		RevokedAt:   e.RevokedAt.UTC(),
		Reason:      e.Reason,
	}
}
