// Package notification defines the Notifier collaborator (C3): an
// abstract sink for formatted cancellation/modification summaries.
// Delivery is always best-effort — a failure is logged by the
// implementation and never propagated as a fatal error (§6).
package notification

import "context"

// Notifier accepts a formatted title/body pair and attempts delivery.
// It reports success as a bool rather than an error: the Reconciler
// never branches on failure and does not use the result.
type Notifier interface {
	Send(ctx context.Context, title, body string) bool
}

// Noop is used when notifier_enabled=false (§6 configuration surface).
type Noop struct{}

func (Noop) Send(ctx context.Context, title, body string) bool {
	return false
}
