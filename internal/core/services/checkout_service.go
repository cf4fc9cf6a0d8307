package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/velora/checkout_hold/internal/clock"
	"github.com/velora/checkout_hold/internal/core/domain"
	"github.com/velora/checkout_hold/internal/core/ports"
)

type StartCheckoutRequest struct {
	UserID          string `json:"user_id"`
	EventID         string `json:"event_id"`
	TicketQuantity  int    `json:"ticket_quantity"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	RedirectURL     string `json:"redirect_url,omitempty"`
}

type StartCheckoutResponse struct {
	SessionID       string `json:"session_id"`
	Status          string `json:"status"`
	DurationSeconds int    `json:"duration_seconds"`
	ExpiresAt       string `json:"expires_at"`
}

type CheckoutStateResponse struct {
	SessionID        string `json:"session_id"`
	SecondsRemaining int    `json:"seconds_remaining"`
	Formatted        string `json:"formatted"`
	Color            string `json:"color"`
	IsActive         bool   `json:"is_active"`
	HasExpired       bool   `json:"has_expired"`
}

// CheckoutService creates hold sessions, runs a countdown for each, and
// releases the held inventory when a hold expires or is cancelled.
type CheckoutService struct {
	repo     ports.HoldRepository
	channels ports.SessionChannels
	sched    ports.Scheduler
	manager  *TimerManager
	cache    *redis.Client
	clock    clock.Clock

	holdDuration time.Duration
	releaseWait  time.Duration
}

type CheckoutServiceOption func(*CheckoutService)

// WithHoldDuration overrides the default hold length for new sessions.
func WithHoldDuration(d time.Duration) CheckoutServiceOption {
	return func(s *CheckoutService) {
		if d > 0 {
			s.holdDuration = d
		}
	}
}

func NewCheckoutService(
	repo ports.HoldRepository,
	channels ports.SessionChannels,
	sched ports.Scheduler,
	manager *TimerManager,
	cache *redis.Client,
	clk clock.Clock,
	opts ...CheckoutServiceOption,
) *CheckoutService {
	svc := &CheckoutService{
		repo:         repo,
		channels:     channels,
		sched:        sched,
		manager:      manager,
		cache:        cache,
		clock:        clk,
		holdDuration: domain.DefaultHoldDurationSeconds * time.Second,
		releaseWait:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *CheckoutService) StartCheckout(ctx context.Context, req StartCheckoutRequest) (*StartCheckoutResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, errors.New("invalid user id")
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, errors.New("invalid event id")
	}

	if req.TicketQuantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	durationSeconds := req.DurationSeconds
	if durationSeconds == 0 {
		durationSeconds = int(s.holdDuration / time.Second)
	}
	if durationSeconds <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	now := s.clock.Now()
	session := &domain.HoldSession{
		ID:              uuid.New(),
		UserID:          userID,
		EventID:         eventID,
		TicketQuantity:  req.TicketQuantity,
		DurationSeconds: durationSeconds,
		Status:          domain.SessionActive,
		RedirectURL:     req.RedirectURL,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(durationSeconds) * time.Second),
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.invalidateAvailability(ctx, eventID)

	timer := NewHoldTimer(
		TimerConfig{
			InitialDurationSeconds: durationSeconds,
			RedirectURL:            req.RedirectURL,
		},
		s.expireCallback(session.ID, eventID),
		s.channels.SinkFor(session.ID),
		s.channels.NavigatorFor(session.ID),
		s.sched,
	)

	if err := s.manager.Register(session.ID, timer); err != nil {
		return nil, err
	}

	return &StartCheckoutResponse{
		SessionID:       session.ID.String(),
		Status:          string(session.Status),
		DurationSeconds: durationSeconds,
		ExpiresAt:       session.ExpiresAt.Format(time.RFC3339),
	}, nil
}

// expireCallback builds the one-shot release hook the timer fires at
// zero. It uses a fresh context so the release is not tied to the
// long-gone request that started the session.
func (s *CheckoutService) expireCallback(sessionID, eventID uuid.UUID) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), s.releaseWait)
		defer cancel()

		if err := s.repo.ReleaseSession(ctx, sessionID); err != nil {
			return fmt.Errorf("release session %s: %w", sessionID, err)
		}

		if err := s.repo.UpdateStatus(ctx, sessionID, domain.SessionExpired); err != nil {
			return fmt.Errorf("mark session %s expired: %w", sessionID, err)
		}

		s.invalidateAvailability(ctx, eventID)
		return nil
	}
}

func (s *CheckoutService) GetState(ctx context.Context, sessionID uuid.UUID) (*CheckoutStateResponse, error) {
	timer, ok := s.manager.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	snap := timer.Snapshot()
	return &CheckoutStateResponse{
		SessionID:        sessionID.String(),
		SecondsRemaining: snap.SecondsRemaining,
		Formatted:        snap.Formatted,
		Color:            snap.Color.String(),
		IsActive:         snap.IsActive,
		HasExpired:       snap.HasExpired,
	}, nil
}

// Pause gates the countdown without losing the remaining time.
func (s *CheckoutService) Pause(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.manager.SetActive(sessionID, false); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, sessionID, domain.SessionPaused)
}

func (s *CheckoutService) Resume(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.manager.SetActive(sessionID, true); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, sessionID, domain.SessionActive)
}

// Confirm finishes checkout: the hold becomes a sale, so the timer is
// torn down before it can expire.
func (s *CheckoutService) Confirm(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsLive() {
		return domain.ErrSessionNotLive
	}

	// Stop the countdown before recording the sale, so a last-moment
	// tick cannot expire a session that is about to be confirmed.
	s.manager.Remove(sessionID)

	if err := s.repo.UpdateStatus(ctx, sessionID, domain.SessionConfirmed); err != nil {
		return err
	}

	s.invalidateAvailability(ctx, session.EventID)
	return nil
}

// Cancel releases the hold early and tears the timer down.
func (s *CheckoutService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	s.manager.Remove(sessionID)

	if err := s.repo.ReleaseSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, sessionID, domain.SessionReleased); err != nil {
		return err
	}

	s.invalidateAvailability(ctx, session.EventID)
	return nil
}

func (s *CheckoutService) invalidateAvailability(ctx context.Context, eventID uuid.UUID) {
	cacheKey := fmt.Sprintf("availability:%s", eventID.String())
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate availability cache for event %s: %v", eventID, err)
	}
}

// RunBackgroundCleanup sweeps sessions whose holds lapsed without a live
// timer (for example after a restart) and releases their inventory.
func (s *CheckoutService) RunBackgroundCleanup(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	log.Println("Background Worker started: Checking expired hold sessions every 1 minute...")

	for {
		select {
		case <-ctx.Done():
			log.Println("Background Worker stopped.")
			return
		case <-ticker.C:
			s.processExpiredSessions(ctx)
		}
	}
}

func (s *CheckoutService) processExpiredSessions(ctx context.Context) {
	ids, err := s.repo.GetExpiredSessions(ctx)
	if err != nil {
		log.Printf("Error fetching expired hold sessions: %v", err)
		return
	}

	if len(ids) == 0 {
		return
	}

	log.Printf("Found %d expired hold sessions. Cleaning up...", len(ids))

	for _, id := range ids {
		s.manager.Remove(id)

		if err := s.repo.ReleaseSession(ctx, id); err != nil {
			log.Printf("Failed to release session %s: %v", id, err)
			continue
		}
		if err := s.repo.UpdateStatus(ctx, id, domain.SessionExpired); err != nil {
			log.Printf("Failed to mark session %s expired: %v", id, err)
			continue
		}

		log.Printf("Session %s expired and tickets released.", id)
	}
}
