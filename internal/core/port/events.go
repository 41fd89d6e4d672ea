package port

import (
	"context"

	"github.com/localsolutions/board-api/internal/core/domain"
)

// RevocationPublisher broadcasts local revocations to peer instances.
type RevocationPublisher interface {
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
}
