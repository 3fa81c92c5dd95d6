package directory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports a directory record that does not exist, as opposed to
// one that exists but is inactive.
var ErrNotFound = errors.New("directory record not found")

// DayHours is a store's opening configuration for one weekday. A row with
// IsActive false (or nil times) means the store is closed that day, not
// open around the clock.
type DayHours struct {
	IsActive        bool
	StartTime       *string // "HH:MM", nil when closed
	EndTime         *string
	SlotStepMinutes int
}

// Service is a bookable service as the directory exposes it.
type Service struct {
	ID       string
	Duration string // "HH:MM"
	Value    float64
}

// Directory is the read-only store/service lookup the booking core depends
// on. Backed by direct SQL against the store schema in single-database
// deployments, or by store-service over gRPC in split deployments.
type Directory interface {
	StoreHours(ctx context.Context, storeID string, weekday time.Weekday) (DayHours, error)
	ServicesByIDs(ctx context.Context, ids []string) ([]Service, error)
}
