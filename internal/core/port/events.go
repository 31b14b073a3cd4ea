package port

import (
	"context"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

// EventPublisher emits account lifecycle events to the message bus. Delivery
// is best-effort; publish failures never abort the business operation.
type EventPublisher interface {
	PublishUserInvited(ctx context.Context, event domain.UserInvitedEvent) error
	PublishUserActivated(ctx context.Context, event domain.UserActivatedEvent) error
	PublishUserBlocked(ctx context.Context, event domain.UserBlockedEvent) error
	PublishUserStatusChanged(ctx context.Context, event domain.UserStatusChangedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishLogin(ctx context.Context, event domain.LoginEvent) error
}
