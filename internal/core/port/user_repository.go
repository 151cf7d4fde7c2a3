package port

import (
	"context"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
)

// UserRepository resolves local accounts, primarily for notification delivery.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
}
