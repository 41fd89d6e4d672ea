package port

import (
	"context"
	"time"

	"github.com/localsolutions/board-api/internal/core/domain"
)

// RevocationStore tracks revoked session tokens until they would have expired anyway.
// Implementations must be safe for concurrent use; a Revoke that has returned is
// visible to every subsequent IsRevoked call.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Sweep drops entries whose expiry is strictly before now and reports how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// RevocationReplica accepts revocations that originated on another instance.
type RevocationReplica interface {
	ApplyRevocation(ctx context.Context, revocation domain.TokenRevocation) error
}

// RevocationSnapshotter serialises and restores the local revocation set.
type RevocationSnapshotter interface {
	Snapshot(ctx context.Context) (*domain.RevocationSnapshot, error)
	RestoreSnapshot(ctx context.Context, snapshot domain.RevocationSnapshot) error
}

// RevocationSnapshotStore persists snapshots between process restarts.
type RevocationSnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot domain.RevocationSnapshot) error
	LoadLatestSnapshot(ctx context.Context) (*domain.RevocationSnapshot, error)
}
