package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/velora/checkout_hold/internal/core/domain"
	"github.com/velora/checkout_hold/internal/core/ports"
	"github.com/velora/checkout_hold/internal/core/services"
)

type recordingSink struct {
	notified  []domain.Notification
	upserts   map[string][]domain.Notification
	dismissed []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{upserts: make(map[string][]domain.Notification)}
}

func (s *recordingSink) Notify(ctx context.Context, n domain.Notification) error {
	s.notified = append(s.notified, n)
	return nil
}

func (s *recordingSink) Upsert(ctx context.Context, key string, n domain.Notification) error {
	s.upserts[key] = append(s.upserts[key], n)
	return nil
}

func (s *recordingSink) Dismiss(ctx context.Context, key string) error {
	s.dismissed = append(s.dismissed, key)
	return nil
}

func (s *recordingSink) bySeverity(sev domain.Severity) []domain.Notification {
	var out []domain.Notification
	for _, n := range s.notified {
		if n.Severity == sev {
			out = append(out, n)
		}
	}
	return out
}

type recordingNavigator struct {
	redirects []string
	reloads   int
}

func (n *recordingNavigator) Redirect(ctx context.Context, url string) error {
	n.redirects = append(n.redirects, url)
	return nil
}

func (n *recordingNavigator) Reload(ctx context.Context) error {
	n.reloads++
	return nil
}

// recordingChannels hands each session its own recording sink and
// navigator, mirroring the per-session channel wiring in production.
type recordingChannels struct {
	sinks map[uuid.UUID]*recordingSink
	navs  map[uuid.UUID]*recordingNavigator
}

func newRecordingChannels() *recordingChannels {
	return &recordingChannels{
		sinks: make(map[uuid.UUID]*recordingSink),
		navs:  make(map[uuid.UUID]*recordingNavigator),
	}
}

func (c *recordingChannels) SinkFor(sessionID uuid.UUID) ports.NotificationSink {
	sink, ok := c.sinks[sessionID]
	if !ok {
		sink = newRecordingSink()
		c.sinks[sessionID] = sink
	}
	return sink
}

func (c *recordingChannels) NavigatorFor(sessionID uuid.UUID) ports.Navigator {
	nav, ok := c.navs[sessionID]
	if !ok {
		nav = &recordingNavigator{}
		c.navs[sessionID] = nav
	}
	return nav
}

type scheduledCall struct {
	delay     time.Duration
	fn        func()
	cancelled bool
}

// manualScheduler captures scheduled callbacks so tests control when, and
// whether, the delayed navigation runs.
type manualScheduler struct {
	calls []*scheduledCall
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) ports.CancelFunc {
	call := &scheduledCall{delay: d, fn: fn}
	s.calls = append(s.calls, call)
	return func() {
		call.cancelled = true
	}
}

// fire runs every pending callback that has not been cancelled.
func (s *manualScheduler) fire() {
	for _, call := range s.calls {
		if !call.cancelled {
			call.fn()
		}
	}
}

// fireIgnoringCancel simulates the race where a callback was already
// queued by the runtime before cancellation landed.
func (s *manualScheduler) fireIgnoringCancel() {
	for _, call := range s.calls {
		call.fn()
	}
}

type timerHarness struct {
	timer *services.HoldTimer
	sink  *recordingSink
	nav   *recordingNavigator
	sched *manualScheduler

	expireCalls int
	expireErr   error
}

func newTimerHarness(cfg services.TimerConfig) *timerHarness {
	h := &timerHarness{
		sink:  newRecordingSink(),
		nav:   &recordingNavigator{},
		sched: &manualScheduler{},
	}
	h.timer = services.NewHoldTimer(cfg, func() error {
		h.expireCalls++
		return h.expireErr
	}, h.sink, h.nav, h.sched)
	return h
}

func (h *timerHarness) tick(n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		h.timer.Tick(ctx)
	}
}

func TestHoldTimer_CountdownIsMonotonic(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 300})

	prev := h.timer.Snapshot().SecondsRemaining
	assert.Equal(t, 300, prev)

	for i := 0; i < 50; i++ {
		h.tick(1)
		cur := h.timer.Snapshot().SecondsRemaining
		assert.Equal(t, prev-1, cur)
		prev = cur
	}
}

func TestHoldTimer_ExpirationSequenceFiresOnce(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{
		InitialDurationSeconds: 3,
		RedirectURL:            "/events",
	})

	// Drive well past zero; the extra ticks must be no-ops.
	h.tick(10)

	snap := h.timer.Snapshot()
	assert.Equal(t, 0, snap.SecondsRemaining)
	assert.True(t, snap.HasExpired)

	assert.Equal(t, 1, h.expireCalls)
	assert.Len(t, h.sink.bySeverity(domain.SeverityError), 1)
	assert.Equal(t, []string{domain.CountdownKey}, h.sink.dismissed)

	if assert.Len(t, h.sched.calls, 1) {
		assert.Equal(t, services.DefaultNavigationDelay, h.sched.calls[0].delay)
	}

	assert.Empty(t, h.nav.redirects)
	h.sched.fire()
	assert.Equal(t, []string{"/events"}, h.nav.redirects)
	assert.Zero(t, h.nav.reloads)
}

func TestHoldTimer_ExpirationReloadsWithoutRedirectURL(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 1})

	h.tick(1)
	h.sched.fire()

	assert.Empty(t, h.nav.redirects)
	assert.Equal(t, 1, h.nav.reloads)
}

func TestHoldTimer_PausePreservesRemaining(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 300})

	h.tick(10)
	assert.Equal(t, 290, h.timer.Snapshot().SecondsRemaining)

	h.timer.SetActive(false)
	upsertsBefore := len(h.sink.upserts[domain.CountdownKey])

	// Simulated wall time passes; none of it may reach the countdown.
	h.tick(120)

	snap := h.timer.Snapshot()
	assert.Equal(t, 290, snap.SecondsRemaining)
	assert.False(t, snap.IsActive)
	assert.Len(t, h.sink.upserts[domain.CountdownKey], upsertsBefore)

	h.timer.SetActive(true)
	h.tick(1)
	assert.Equal(t, 289, h.timer.Snapshot().SecondsRemaining)
}

func TestHoldTimer_WarningThresholdFiresOnce(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 125})

	h.tick(4)
	assert.Empty(t, h.sink.bySeverity(domain.SeverityWarning))

	h.tick(1) // 120 remaining
	warnings := h.sink.bySeverity(domain.SeverityWarning)
	if assert.Len(t, warnings, 1) {
		assert.Contains(t, warnings[0].Description, "2 minutes")
	}

	h.tick(20)
	assert.Len(t, h.sink.bySeverity(domain.SeverityWarning), 1)
}

func TestHoldTimer_UrgentThresholdFiresOnce(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 35})

	h.tick(4)
	assert.Empty(t, h.sink.bySeverity(domain.SeverityError))

	h.tick(1) // 30 remaining
	assert.Len(t, h.sink.bySeverity(domain.SeverityError), 1)

	h.tick(10)
	assert.Len(t, h.sink.bySeverity(domain.SeverityError), 1)
}

func TestHoldTimer_CountdownSlotIsReplacedNotStacked(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 100})

	h.tick(3)

	upserts := h.sink.upserts[domain.CountdownKey]
	if assert.Len(t, upserts, 3) {
		assert.Equal(t, "1:39", upserts[0].Description)
		assert.Equal(t, "1:38", upserts[1].Description)
		assert.Equal(t, "1:37", upserts[2].Description)
		assert.Equal(t, domain.SeverityInfo, upserts[0].Severity)
	}
}

func TestHoldTimer_ExpireCallbackErrorDoesNotBlockNavigation(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{
		InitialDurationSeconds: 1,
		RedirectURL:            "/events",
	})
	h.expireErr = errors.New("inventory release failed")

	h.tick(1)

	assert.Equal(t, 1, h.expireCalls)
	assert.Len(t, h.sched.calls, 1)

	h.sched.fire()
	assert.Equal(t, []string{"/events"}, h.nav.redirects)
}

func TestHoldTimer_ExpireCallbackPanicIsContained(t *testing.T) {
	sink := newRecordingSink()
	nav := &recordingNavigator{}
	sched := &manualScheduler{}

	timer := services.NewHoldTimer(services.TimerConfig{InitialDurationSeconds: 1}, func() error {
		panic("downstream hook blew up")
	}, sink, nav, sched)

	assert.NotPanics(t, func() {
		timer.Tick(context.Background())
	})

	sched.fire()
	assert.Equal(t, 1, nav.reloads)
}

func TestHoldTimer_TeardownCancelsPendingNavigation(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{
		InitialDurationSeconds: 1,
		RedirectURL:            "/events",
	})

	h.tick(1)
	assert.Len(t, h.sched.calls, 1)

	h.timer.Teardown()
	h.sched.fire()

	assert.Empty(t, h.nav.redirects)
	assert.Zero(t, h.nav.reloads)
	assert.True(t, h.sched.calls[0].cancelled)
}

func TestHoldTimer_TeardownGuardsQueuedCallback(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 1})

	h.tick(1)
	h.timer.Teardown()

	// Even if the runtime already dispatched the callback before the
	// cancel landed, a torn-down timer must not navigate.
	h.sched.fireIgnoringCancel()

	assert.Empty(t, h.nav.redirects)
	assert.Zero(t, h.nav.reloads)
}

func TestHoldTimer_TeardownIsIdempotent(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{InitialDurationSeconds: 60})

	assert.NotPanics(t, func() {
		h.timer.Teardown()
		h.timer.Teardown()
	})

	h.tick(5)
	assert.Equal(t, 60, h.timer.Snapshot().SecondsRemaining)
}

type blockingNavigator struct {
	started chan struct{}
	proceed chan struct{}
	reloads int
}

func (n *blockingNavigator) Redirect(ctx context.Context, url string) error { return nil }

func (n *blockingNavigator) Reload(ctx context.Context) error {
	close(n.started)
	<-n.proceed
	n.reloads++
	return nil
}

func TestHoldTimer_TeardownWaitsForInFlightNavigation(t *testing.T) {
	sink := newRecordingSink()
	nav := &blockingNavigator{
		started: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	sched := &manualScheduler{}

	timer := services.NewHoldTimer(services.TimerConfig{InitialDurationSeconds: 1}, nil, sink, nav, sched)
	timer.Tick(context.Background())

	navDone := make(chan struct{})
	go func() {
		sched.fire()
		close(navDone)
	}()
	<-nav.started

	tearDone := make(chan struct{})
	go func() {
		timer.Teardown()
		close(tearDone)
	}()

	// Teardown must not slip in between the liveness check and the
	// navigation call; while the navigator is mid-flight it waits.
	select {
	case <-tearDone:
		t.Fatal("teardown completed while navigation was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(nav.proceed)
	<-navDone
	<-tearDone

	assert.Equal(t, 1, nav.reloads)
}

func TestHoldTimer_FullScenario(t *testing.T) {
	h := newTimerHarness(services.TimerConfig{
		InitialDurationSeconds: 540,
		RedirectURL:            "/events/sold-out",
	})

	h.tick(420)
	assert.Equal(t, 120, h.timer.Snapshot().SecondsRemaining)
	warnings := h.sink.bySeverity(domain.SeverityWarning)
	if assert.Len(t, warnings, 1) {
		assert.Contains(t, warnings[0].Description, "2 minutes")
	}

	h.tick(110)
	snap := h.timer.Snapshot()
	assert.Equal(t, 10, snap.SecondsRemaining)
	assert.Equal(t, "hsl(348, 83%, 47%)", snap.Color.String())

	h.tick(10)
	snap = h.timer.Snapshot()
	assert.True(t, snap.HasExpired)
	assert.Equal(t, 0, snap.SecondsRemaining)
	assert.Equal(t, 1, h.expireCalls)

	// One urgent threshold toast plus one expiration toast.
	assert.Len(t, h.sink.bySeverity(domain.SeverityError), 2)

	h.sched.fire()
	assert.Equal(t, []string{"/events/sold-out"}, h.nav.redirects)
}
