package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/velora/checkout_hold/internal/core/domain"
)

// NotificationSink delivers user-facing messages for a checkout session.
// Notify emits transient one-shot toasts; Upsert maintains a single
// replaceable slot per key (the live countdown), and Dismiss clears it.
type NotificationSink interface {
	Notify(ctx context.Context, n domain.Notification) error
	Upsert(ctx context.Context, key string, n domain.Notification) error
	Dismiss(ctx context.Context, key string) error
}

// Navigator moves the user away from the checkout page once the hold is
// gone: to a specific URL, or back to the same page when no URL is set.
type Navigator interface {
	Redirect(ctx context.Context, url string) error
	Reload(ctx context.Context) error
}

// SessionChannels hands out a sink and navigator scoped to one checkout
// session, so concurrent sessions never share a countdown slot or
// receive each other's toasts and navigation commands.
type SessionChannels interface {
	SinkFor(sessionID uuid.UUID) NotificationSink
	NavigatorFor(sessionID uuid.UUID) Navigator
}

// CancelFunc cancels a pending scheduled callback. Calling it after the
// callback has fired, or more than once, is a no-op.
type CancelFunc func()

// Scheduler runs a function once after a delay. Cancellation is best
// effort: a callback already dispatched may still run, so callers guard
// against that race themselves.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}
