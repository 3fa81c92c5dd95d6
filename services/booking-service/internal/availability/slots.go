package availability

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// HasConflict reports whether the candidate [start, end) overlaps any booked
// interval. Half-open semantics: a candidate ending exactly when a booking
// starts (or starting exactly when one ends) does not conflict.
func HasConflict(start, end int, booked []Interval) bool {
	for _, b := range booked {
		if start < b.End && end > b.Start {
			return true
		}
	}
	return false
}

// SlotStarts returns the start minutes of every bookable slot of the given
// duration between openMin and closeMin, walking a fixed stepMin grid from
// opening time and dropping candidates that overlap a booked interval or
// would run past closing. Results are ascending.
func SlotStarts(openMin, closeMin, durationMin, stepMin int, booked []Interval) []int {
	if durationMin <= 0 || stepMin <= 0 {
		return nil
	}

	var starts []int
	for start := openMin; start+durationMin <= closeMin; start += stepMin {
		if !HasConflict(start, start+durationMin, booked) {
			starts = append(starts, start)
		}
	}
	return starts
}
