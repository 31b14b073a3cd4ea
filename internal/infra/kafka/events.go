package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
	"github.com/bastianbaeza/JackdawSoft/internal/infra/logger"
)

const (
	topicUserLifecycle = "users.lifecycle"
	topicAuthActivity  = "auth.activity"

	envelopeVersion = "1.0"
)

type eventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Payload   json.RawMessage `json:"payload"`
}

// EventPublisher serializes domain events into versioned envelopes and hands
// them to the async producer.
type EventPublisher struct {
	producer *Producer
}

func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) publish(ctx context.Context, topic, eventType, userID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.FromContext(ctx).Warn("marshal event payload",
			zap.String("event_type", eventType), zap.Error(err))
		return err
	}
	envelope, err := json.Marshal(eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Version:   envelopeVersion,
		Payload:   raw,
	})
	if err != nil {
		return err
	}
	p.producer.Send(topic, userID, envelope)
	return nil
}

func (p *EventPublisher) PublishUserInvited(ctx context.Context, event domain.UserInvitedEvent) error {
	return p.publish(ctx, topicUserLifecycle, "user.invited", event.UserID, event)
}

func (p *EventPublisher) PublishUserActivated(ctx context.Context, event domain.UserActivatedEvent) error {
	return p.publish(ctx, topicUserLifecycle, "user.activated", event.UserID, event)
}

func (p *EventPublisher) PublishUserBlocked(ctx context.Context, event domain.UserBlockedEvent) error {
	return p.publish(ctx, topicUserLifecycle, "user.blocked", event.UserID, event)
}

func (p *EventPublisher) PublishUserStatusChanged(ctx context.Context, event domain.UserStatusChangedEvent) error {
	return p.publish(ctx, topicUserLifecycle, "user.status_changed", event.UserID, event)
}

func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(ctx, topicUserLifecycle, "user.password_changed", event.UserID, event)
}

func (p *EventPublisher) PublishLogin(ctx context.Context, event domain.LoginEvent) error {
	return p.publish(ctx, topicAuthActivity, "auth.login", event.UserID, event)
}
