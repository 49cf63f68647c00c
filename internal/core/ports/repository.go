package ports

import (
	"context"

	"github.com/walletd/walletd/internal/core/domain"
)

// SessionRepository persists the serializable projection of the session.
// GetSession returns a nil info without error if nothing was stored yet.
type SessionRepository interface {
	GetSession(ctx context.Context) (*domain.SessionInfo, error)
	SaveSession(ctx context.Context, info domain.SessionInfo) error
	Close() error
}
