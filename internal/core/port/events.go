package port

import (
	"context"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishApprovalDecided(ctx context.Context, event domain.ApprovalDecidedEvent) error
	PublishPublishCancelled(ctx context.Context, event domain.PublishCancelledEvent) error
}
