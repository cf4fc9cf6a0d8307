package schedule

import (
	"time"

	"github.com/velora/checkout_hold/internal/core/ports"
)

// SystemScheduler backs ports.Scheduler with time.AfterFunc.
type SystemScheduler struct{}

func NewSystem() SystemScheduler {
	return SystemScheduler{}
}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) ports.CancelFunc {
	timer := time.AfterFunc(d, fn)
	return func() {
		timer.Stop()
	}
}
