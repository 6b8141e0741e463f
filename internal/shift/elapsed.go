package shift

import (
	"fmt"
	"time"

	"fleet-timesheet-backend/internal/model"
)

// Elapsed is the running time of an open shift. It is negative when the
// clock went backwards since the shift was opened.
func Elapsed(p model.PendingShift, now time.Time) time.Duration {
	return now.Sub(p.StartedAt)
}

// FormatElapsed renders d as H:MM, keeping the sign of negative durations.
func FormatElapsed(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%s%d:%02d", sign, h, m)
}
