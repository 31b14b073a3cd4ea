package port

import "context"

// Mailer delivers transactional account emails. Implementations are expected
// to be best-effort; callers log failures and continue.
type Mailer interface {
	SendActivation(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}
