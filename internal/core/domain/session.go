package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionPaused    SessionStatus = "PAUSED"
	SessionConfirmed SessionStatus = "CONFIRMED"
	SessionExpired   SessionStatus = "EXPIRED"
	SessionReleased  SessionStatus = "RELEASED"
)

// DefaultHoldDurationSeconds is the hold length granted to a new checkout
// session when the caller does not ask for a specific one.
const DefaultHoldDurationSeconds = 540

// HoldSession is a checkout session backed by a temporary reservation of
// ticket inventory. The countdown timer is the client-visible proxy of the
// hold; ExpiresAt mirrors where the countdown will land on the server clock.
type HoldSession struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	EventID         uuid.UUID
	TicketQuantity  int
	DurationSeconds int
	Status          SessionStatus
	RedirectURL     string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

func (s *HoldSession) IsLive() bool {
	return s.Status == SessionActive || s.Status == SessionPaused
}

func (s *HoldSession) IsTerminal() bool {
	return s.Status == SessionConfirmed ||
		s.Status == SessionExpired ||
		s.Status == SessionReleased
}
