package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/velora/checkout_hold/internal/core/domain"
)

type HoldRepository interface {
	CreateSession(ctx context.Context, session *domain.HoldSession) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.HoldSession, error)
	UpdateStatus(ctx context.Context, sessionID uuid.UUID, status domain.SessionStatus) error
	ReleaseSession(ctx context.Context, sessionID uuid.UUID) error
	GetExpiredSessions(ctx context.Context) ([]uuid.UUID, error)
}
