package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/velora/checkout_hold/internal/core/domain"
)

// TimerManager owns the live HoldTimer instances, one per checkout
// session, and drives them all from a single one-second ticker loop.
type TimerManager struct {
	mu       sync.Mutex
	timers   map[uuid.UUID]*HoldTimer
	interval time.Duration
}

func NewTimerManager() *TimerManager {
	return &TimerManager{
		timers:   make(map[uuid.UUID]*HoldTimer),
		interval: time.Second,
	}
}

func (m *TimerManager) Register(sessionID uuid.UUID, timer *HoldTimer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.timers[sessionID]; exists {
		return domain.ErrTimerRegistered
	}
	m.timers[sessionID] = timer
	return nil
}

func (m *TimerManager) Get(sessionID uuid.UUID) (*HoldTimer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[sessionID]
	return t, ok
}

// SetActive pauses or resumes one session's countdown.
func (m *TimerManager) SetActive(sessionID uuid.UUID, active bool) error {
	t, ok := m.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	t.SetActive(active)
	return nil
}

// Remove tears the session's timer down and forgets it. Removing an
// unknown session is a no-op so teardown paths stay idempotent.
func (m *TimerManager) Remove(sessionID uuid.UUID) {
	m.mu.Lock()
	t, ok := m.timers[sessionID]
	delete(m.timers, sessionID)
	m.mu.Unlock()

	if ok {
		t.Teardown()
	}
}

// Run ticks every registered timer once per interval until ctx is done,
// then tears all of them down.
func (m *TimerManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Println("Timer manager started: ticking hold countdowns every second...")

	for {
		select {
		case <-ctx.Done():
			m.teardownAll()
			log.Println("Timer manager stopped.")
			return
		case <-ticker.C:
			m.tickAll(ctx)
		}
	}
}

func (m *TimerManager) tickAll(ctx context.Context) {
	m.mu.Lock()
	timers := make([]*HoldTimer, 0, len(m.timers))
	for _, t := range m.timers {
		timers = append(timers, t)
	}
	m.mu.Unlock()

	for _, t := range timers {
		t.Tick(ctx)
	}
}

func (m *TimerManager) teardownAll() {
	m.mu.Lock()
	timers := make([]*HoldTimer, 0, len(m.timers))
	for id, t := range m.timers {
		timers = append(timers, t)
		delete(m.timers, id)
	}
	m.mu.Unlock()

	for _, t := range timers {
		t.Teardown()
	}
}
