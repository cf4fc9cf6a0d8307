package domain

import "fmt"

// Urgency thresholds for the countdown display, in seconds remaining.
const (
	DangerThresholdSeconds   = 10
	CriticalThresholdSeconds = 120
)

// TimerColor is an HSL color for tinting the countdown text and icon.
type TimerColor struct {
	Hue        float64
	Saturation float64
	Lightness  float64
}

var (
	colorNeutral = TimerColor{Hue: 0, Saturation: 0, Lightness: 100}
	colorDanger  = TimerColor{Hue: 348, Saturation: 83, Lightness: 47}
)

func (c TimerColor) String() string {
	return fmt.Sprintf("hsl(%.0f, %.0f%%, %.0f%%)", c.Hue, c.Saturation, c.Lightness)
}

// ColorForRemaining maps seconds remaining to a display color: white above
// the critical threshold, solid crimson at or below the danger threshold,
// and a linear blend between the two in the window in between.
func ColorForRemaining(secondsRemaining int) TimerColor {
	if secondsRemaining <= DangerThresholdSeconds {
		return colorDanger
	}
	if secondsRemaining > CriticalThresholdSeconds {
		return colorNeutral
	}

	p := 1 - float64(secondsRemaining-DangerThresholdSeconds)/float64(CriticalThresholdSeconds-DangerThresholdSeconds)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	return TimerColor{
		Hue:        lerp(colorNeutral.Hue, colorDanger.Hue, p),
		Saturation: lerp(colorNeutral.Saturation, colorDanger.Saturation, p),
		Lightness:  lerp(colorNeutral.Lightness, colorDanger.Lightness, p),
	}
}

func lerp(from, to, p float64) float64 {
	return from + (to-from)*p
}

// FormatRemaining renders seconds as M:SS, minutes unpadded and seconds
// zero-padded, e.g. 601 -> "10:01" and 59 -> "0:59".
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
