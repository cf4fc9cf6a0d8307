package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/velora/checkout_hold/internal/core/domain"
	"github.com/velora/checkout_hold/internal/core/ports"
)

const (
	// DefaultNavigationDelay is how long the expiration toast stays on
	// screen before the user is navigated away.
	DefaultNavigationDelay = 2 * time.Second

	warningThresholdSeconds = 120
	urgentThresholdSeconds  = 30
)

type TimerConfig struct {
	InitialDurationSeconds int
	RedirectURL            string
	NavigationDelay        time.Duration
}

// HoldTimer counts a single checkout hold down to zero, one tick per
// second. All state lives behind its own mutex and is only changed by
// Tick, SetActive and Teardown; the expiration side effects fire exactly
// once per instance.
type HoldTimer struct {
	mu sync.Mutex

	cfg      TimerConfig
	onExpire func() error
	sink     ports.NotificationSink
	nav      ports.Navigator
	sched    ports.Scheduler

	secondsRemaining int
	isActive         bool
	hasExpired       bool
	tornDown         bool
	warningFired     bool
	urgentFired      bool
	cancelNavigation ports.CancelFunc
}

// TimerSnapshot is a read-only view of the countdown for rendering.
type TimerSnapshot struct {
	SecondsRemaining int
	Formatted        string
	Color            domain.TimerColor
	IsActive         bool
	HasExpired       bool
}

func NewHoldTimer(cfg TimerConfig, onExpire func() error, sink ports.NotificationSink, nav ports.Navigator, sched ports.Scheduler) *HoldTimer {
	if cfg.InitialDurationSeconds <= 0 {
		cfg.InitialDurationSeconds = domain.DefaultHoldDurationSeconds
	}
	if cfg.NavigationDelay <= 0 {
		cfg.NavigationDelay = DefaultNavigationDelay
	}

	return &HoldTimer{
		cfg:              cfg,
		onExpire:         onExpire,
		sink:             sink,
		nav:              nav,
		sched:            sched,
		secondsRemaining: cfg.InitialDurationSeconds,
		isActive:         true,
	}
}

// Tick advances the countdown by one second. While the timer is paused,
// expired or torn down it is a no-op, so callers can drive it from a
// plain ticker loop without extra bookkeeping.
func (t *HoldTimer) Tick(ctx context.Context) {
	t.mu.Lock()

	if !t.isActive || t.hasExpired || t.tornDown {
		t.mu.Unlock()
		return
	}

	if t.secondsRemaining <= 1 {
		t.secondsRemaining = 0
		t.hasExpired = true
		t.mu.Unlock()
		t.runExpirationSequence(ctx)
		return
	}

	t.secondsRemaining--
	remaining := t.secondsRemaining

	fireWarning := remaining == warningThresholdSeconds && !t.warningFired
	if fireWarning {
		t.warningFired = true
	}
	fireUrgent := remaining == urgentThresholdSeconds && !t.urgentFired
	if fireUrgent {
		t.urgentFired = true
	}
	t.mu.Unlock()

	if fireWarning {
		if err := t.sink.Notify(ctx, domain.WarningNotification("Only 2 minutes remaining to complete your purchase.")); err != nil {
			log.Printf("hold timer: warning notification failed: %v", err)
		}
	}

	if fireUrgent {
		if err := t.sink.Notify(ctx, domain.UrgentNotification("Less than 30 seconds left. Finish checkout now or your tickets will be released.")); err != nil {
			log.Printf("hold timer: urgent notification failed: %v", err)
		}
	}

	if err := t.sink.Upsert(ctx, domain.CountdownKey, domain.CountdownNotification(remaining)); err != nil {
		log.Printf("hold timer: countdown update failed: %v", err)
	}
}

// runExpirationSequence fires once, from the tick that crossed zero:
// dismiss the countdown slot, show the expiration toast, attempt the
// release callback, then navigate after a grace delay.
func (t *HoldTimer) runExpirationSequence(ctx context.Context) {
	if err := t.sink.Dismiss(ctx, domain.CountdownKey); err != nil {
		log.Printf("hold timer: countdown dismiss failed: %v", err)
	}

	if err := t.sink.Notify(ctx, domain.ExpiredNotification()); err != nil {
		log.Printf("hold timer: expiration notification failed: %v", err)
	}

	// The release callback must not be able to block the navigation that
	// follows; its failures are logged and swallowed here.
	if t.onExpire != nil {
		if err := safeExpireCallback(t.onExpire); err != nil {
			log.Printf("hold timer: expiration callback failed: %v", err)
		}
	}

	t.mu.Lock()
	if t.tornDown {
		t.mu.Unlock()
		return
	}
	t.cancelNavigation = t.sched.AfterFunc(t.cfg.NavigationDelay, func() {
		t.navigateAfterExpiry()
	})
	t.mu.Unlock()
}

// navigateAfterExpiry holds the mutex across the navigation call so a
// concurrent Teardown cannot slip between the liveness check and the
// navigation. The navigator is fire-and-forget and never calls back into
// the timer, so no deadlock is possible.
func (t *HoldTimer) navigateAfterExpiry() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tornDown {
		return
	}

	ctx := context.Background()
	var err error
	if t.cfg.RedirectURL != "" {
		err = t.nav.Redirect(ctx, t.cfg.RedirectURL)
	} else {
		err = t.nav.Reload(ctx)
	}
	if err != nil {
		log.Printf("hold timer: post-expiry navigation failed: %v", err)
	}
}

// safeExpireCallback converts a panicking callback into an error so the
// expiration sequence always reaches its navigation step.
func safeExpireCallback(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("expiration callback panicked: %v", r)
		}
	}()
	return fn()
}

// SetActive gates the countdown. While inactive no ticks land and no
// notifications fire; reactivating resumes from the preserved value
// rather than restarting.
func (t *HoldTimer) SetActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isActive = active
}

func (t *HoldTimer) Snapshot() TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerSnapshot{
		SecondsRemaining: t.secondsRemaining,
		Formatted:        domain.FormatRemaining(t.secondsRemaining),
		Color:            domain.ColorForRemaining(t.secondsRemaining),
		IsActive:         t.isActive,
		HasExpired:       t.hasExpired,
	}
}

// Teardown stops the timer for good: no further ticks land and a pending
// post-expiry navigation is cancelled. Safe to call any number of times,
// with or without timers in flight.
func (t *HoldTimer) Teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tornDown = true
	if t.cancelNavigation != nil {
		t.cancelNavigation()
		t.cancelNavigation = nil
	}
}
