package clock

import (
	"time"

	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
)

var _ ports.Clock = (*RealClock)(nil)

// RealClock implements ports.Clock using the system clock. Timestamps are
// UTC at millisecond precision so run history serializes compactly.
type RealClock struct{}

// New creates a new RealClock.
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current UTC time truncated to milliseconds.
func (c *RealClock) Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// Since returns the time elapsed since start, rounded to microseconds.
// A start in the future yields zero.
func (c *RealClock) Since(start time.Time) time.Duration {
	return max(0, time.Since(start).Round(time.Microsecond))
}
