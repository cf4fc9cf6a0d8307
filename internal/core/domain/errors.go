package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrSessionNotLive    = errors.New("checkout session is not live")
	ErrInvalidDuration   = errors.New("invalid hold duration")
	ErrInvalidQuantity   = errors.New("invalid ticket quantity")
	ErrTimerRegistered   = errors.New("hold timer already registered for session")
	ErrInsufficientStock = errors.New("not enough tickets available")
)
