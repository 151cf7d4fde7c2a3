package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishApprovalDecided logs publication.approval.decided events.
func (p *StubPublisher) PublishApprovalDecided(_ context.Context, event domain.ApprovalDecidedEvent) error {
	payload := map[string]any{
		"submission_id": event.SubmissionID,
		"state":         event.State.ApprovalStatus(),
		"description":   event.Description,
		"decided_by":    event.DecidedBy,
		"decided_at":    event.DecidedAt,
	}
	p.logEvent("publication.approval.decided", event.DecidedAt, payload)
	return nil
}

// PublishPublishCancelled logs publication.publish.cancelled events.
func (p *StubPublisher) PublishPublishCancelled(_ context.Context, event domain.PublishCancelledEvent) error {
	payload := map[string]any{
		"profile_id":    event.ProfileID,
		"submission_id": event.SubmissionID,
		"cancelled_by":  event.CancelledBy,
		"cancelled_at":  event.CancelledAt,
	}
	p.logEvent("publication.publish.cancelled", event.CancelledAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
