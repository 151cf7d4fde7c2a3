package port

import (
	"context"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
)

// ProfileRepository handles the local profile mirror.
type ProfileRepository interface {
	GetByID(ctx context.Context, id int) (*domain.LocalProfile, error)
	FindByCloudLibraryID(ctx context.Context, cloudLibraryID string) (*domain.LocalProfile, error)
	Update(ctx context.Context, profile domain.LocalProfile) error
}
