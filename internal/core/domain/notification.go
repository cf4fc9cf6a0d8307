package domain

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// CountdownKey identifies the single persistent countdown notification slot.
// Repeated upserts under this key replace the previous message instead of
// stacking a new toast per tick.
const CountdownKey = "checkout-countdown"

type Notification struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

func WarningNotification(description string) Notification {
	return Notification{
		Severity:    SeverityWarning,
		Title:       "Hurry up!",
		Description: description,
	}
}

func UrgentNotification(description string) Notification {
	return Notification{
		Severity:    SeverityError,
		Title:       "Time is running out",
		Description: description,
	}
}

func ExpiredNotification() Notification {
	return Notification{
		Severity:    SeverityError,
		Title:       "Your hold has expired",
		Description: "The tickets were returned to sale. Please reselect your seats and check out again.",
	}
}

func CountdownNotification(secondsRemaining int) Notification {
	return Notification{
		Severity:    SeverityInfo,
		Title:       "Time remaining",
		Description: FormatRemaining(secondsRemaining),
	}
}
