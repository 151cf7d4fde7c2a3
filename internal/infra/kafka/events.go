package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/port"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishApprovalDecided publishes publication.approval.decided events.
func (p *EventPublisher) PublishApprovalDecided(ctx context.Context, event domain.ApprovalDecidedEvent) error {
	payload := struct {
		SubmissionID string    `json:"submission_id"`
		State        string    `json:"state"`
		Description  string    `json:"description,omitempty"`
		DecidedBy    int       `json:"decided_by"`
		DecidedAt    time.Time `json:"decided_at"`
	}{
		SubmissionID: event.SubmissionID,
		State:        event.State.ApprovalStatus(),
		Description:  event.Description,
		DecidedBy:    event.DecidedBy,
		DecidedAt:    event.DecidedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "publication.approval.decided", event.DecidedAt, payload)
}

// PublishPublishCancelled publishes publication.publish.cancelled events.
func (p *EventPublisher) PublishPublishCancelled(ctx context.Context, event domain.PublishCancelledEvent) error {
	payload := struct {
		ProfileID    int       `json:"profile_id"`
		SubmissionID string    `json:"submission_id,omitempty"`
		CancelledBy  int       `json:"cancelled_by"`
		CancelledAt  time.Time `json:"cancelled_at"`
	}{
		ProfileID:    event.ProfileID,
		SubmissionID: event.SubmissionID,
		CancelledBy:  event.CancelledBy,
		CancelledAt:  event.CancelledAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "publication.publish.cancelled", event.CancelledAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
