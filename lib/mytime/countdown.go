package mytime

import (
	"fmt"
	"time"
)

// Remaining returns the time left until expiresAt, never less than zero.
func Remaining(expiresAt time.Time, now time.Time) time.Duration {
	remaining := expiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func IsExpired(expiresAt time.Time, now time.Time) bool {
	return !now.Before(expiresAt)
}

// FormatRemaining renders a countdown as m:ss
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
