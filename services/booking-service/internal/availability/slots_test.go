package availability

import (
	"reflect"
	"testing"
)

func TestHasConflict(t *testing.T) {
	booked := []Interval{{Start: 600, End: 660}} // 10:00-11:00

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"strictly before", 500, 560, false},
		{"strictly after", 700, 760, false},
		{"touching booked start", 540, 600, false},
		{"touching booked end", 660, 720, false},
		{"partial overlap left", 570, 630, true},
		{"partial overlap right", 630, 690, true},
		{"contains booked", 570, 690, true},
		{"contained by booked", 615, 645, true},
		{"identical", 600, 660, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasConflict(tc.start, tc.end, booked); got != tc.want {
				t.Errorf("HasConflict(%d, %d) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}

	if HasConflict(600, 660, nil) {
		t.Error("no bookings should never conflict")
	}
}

func TestSlotStartsFullDay(t *testing.T) {
	// 09:00-18:00, 60-minute booking, empty agenda: 09:00..17:00 on the
	// 30-minute grid, 17 slots in all.
	starts := SlotStarts(540, 1080, 60, 30, nil)
	if len(starts) != 17 {
		t.Fatalf("expected 17 slots, got %d", len(starts))
	}
	if starts[0] != 540 {
		t.Errorf("first slot = %s, want 09:00", FormatClock(starts[0]))
	}
	if starts[len(starts)-1] != 1020 {
		t.Errorf("last slot = %s, want 17:00", FormatClock(starts[len(starts)-1]))
	}
	for i := 1; i < len(starts); i++ {
		if starts[i]-starts[i-1] != 30 {
			t.Fatalf("slots not on a 30-minute grid: %v", starts)
		}
	}
}

func TestSlotStartsAroundExistingBooking(t *testing.T) {
	// 10:00-11:00 is taken; requesting 60 minutes must drop 09:30, 10:00
	// and 10:30 but keep 09:00 and 11:00.
	booked := []Interval{{Start: 600, End: 660}}
	starts := SlotStarts(540, 1080, 60, 30, booked)

	have := map[int]bool{}
	for _, s := range starts {
		have[s] = true
	}
	for _, want := range []int{540, 660} {
		if !have[want] {
			t.Errorf("expected slot at %s", FormatClock(want))
		}
	}
	for _, gone := range []int{570, 600, 630} {
		if have[gone] {
			t.Errorf("slot at %s should be blocked", FormatClock(gone))
		}
	}
}

func TestSlotStartsRespectsClosingBoundary(t *testing.T) {
	// A 65-minute booking (00:45 + 00:20 services) needs the full window
	// to fit before closing: with hours 09:00-10:00 nothing fits, with
	// 09:00-10:05 exactly one slot does.
	if got := SlotStarts(540, 600, 65, 30, nil); got != nil {
		t.Errorf("expected no slots, got %v", got)
	}
	got := SlotStarts(540, 605, 65, 30, nil)
	if !reflect.DeepEqual(got, []int{540}) {
		t.Errorf("expected exactly [540], got %v", got)
	}
}

func TestSlotStartsDegenerateInput(t *testing.T) {
	if got := SlotStarts(540, 1080, 0, 30, nil); got != nil {
		t.Errorf("zero duration: expected nil, got %v", got)
	}
	if got := SlotStarts(540, 1080, -15, 30, nil); got != nil {
		t.Errorf("negative duration: expected nil, got %v", got)
	}
	if got := SlotStarts(540, 1080, 60, 0, nil); got != nil {
		t.Errorf("zero step: expected nil, got %v", got)
	}
	if got := SlotStarts(600, 540, 30, 30, nil); got != nil {
		t.Errorf("inverted window: expected nil, got %v", got)
	}
}
