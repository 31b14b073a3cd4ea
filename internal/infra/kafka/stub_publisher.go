package kafka

import (
	"context"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

// StubPublisher satisfies the event publisher port when no brokers are
// configured. Useful for local development and tests.
type StubPublisher struct{}

func NewStubPublisher() *StubPublisher { return &StubPublisher{} }

func (StubPublisher) PublishUserInvited(context.Context, domain.UserInvitedEvent) error { return nil }
func (StubPublisher) PublishUserActivated(context.Context, domain.UserActivatedEvent) error {
	return nil
}
func (StubPublisher) PublishUserBlocked(context.Context, domain.UserBlockedEvent) error { return nil }
func (StubPublisher) PublishUserStatusChanged(context.Context, domain.UserStatusChangedEvent) error {
	return nil
}
func (StubPublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	return nil
}
func (StubPublisher) PublishLogin(context.Context, domain.LoginEvent) error { return nil }
