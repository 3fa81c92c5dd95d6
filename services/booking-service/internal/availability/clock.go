package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadClock reports a clock string that is not "HH:MM" or "HH:MM:SS".
var ErrBadClock = errors.New("malformed clock string")

// ParseClock converts "HH:MM" or "HH:MM:SS" to minutes since midnight.
// Seconds are accepted and discarded; stored durations only carry minute
// precision. Hours are not capped at 23 so aggregate durations such as
// "25:30" parse cleanly.
func ParseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, clock)
	}
	return hours*60 + mins, nil
}

// FormatClock renders minutes since midnight as zero-padded "HH:MM".
// There is no day wraparound: 1500 minutes formats as "25:00", which is
// how aggregate durations beyond 24h are stored. Negative input clamps
// to "00:00".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
