package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agendafacil/agendafacil/services/booking-service/internal/availability"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/directory"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/model"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/storage"
)

const (
	// DefaultSlotStepMinutes is the grid step used when a store has not
	// configured its own.
	DefaultSlotStepMinutes = 30

	// DefaultBookingMinutes is assumed for legacy schedules stored without
	// a duration.
	DefaultBookingMinutes = 30
)

// Storage is the persistence surface the booking service needs; implemented
// by storage.ScheduleRepository.
type Storage interface {
	BookedOn(ctx context.Context, employeeID, date string) ([]model.BookedSlot, error)
	Reserve(ctx context.Context, res storage.Reservation) (string, error)
}

type Service struct {
	dir    directory.Directory
	store  Storage
	logger *slog.Logger
}

func NewService(dir directory.Directory, store Storage, logger *slog.Logger) *Service {
	return &Service{dir: dir, store: store, logger: logger}
}

type AvailableTimesRequest struct {
	StoreID    string
	EmployeeID string
	ServiceIDs []string
	Date       string // "2006-01-02"
}

// Slot is one offered start time. Label and Value both carry the formatted
// "HH:MM" start; the pair shape is what the booking page renders directly.
type Slot struct {
	Label string
	Value string
}

type HoursWindow struct {
	Open  string
	Close string
}

// AvailableTimesResult distinguishes "closed today" (nil StoreHours) from
// "open with no free slots" (StoreHours set, empty Slots).
type AvailableTimesResult struct {
	Slots         []Slot
	TotalDuration int // minutes
	StoreHours    *HoursWindow
	Message       string
}

// AvailableTimes computes every conflict-free start time for the combined
// service selection on the given date.
func (s *Service) AvailableTimes(ctx context.Context, req AvailableTimesRequest) (AvailableTimesResult, error) {
	serviceIDs := trimAll(req.ServiceIDs)
	if strings.TrimSpace(req.StoreID) == "" ||
		strings.TrimSpace(req.EmployeeID) == "" ||
		strings.TrimSpace(req.Date) == "" ||
		len(serviceIDs) == 0 {
		return AvailableTimesResult{}, ErrInvalidRequest
	}

	weekday, err := weekdayOf(req.Date)
	if err != nil {
		return AvailableTimesResult{}, fmt.Errorf("%w: bad date %q", ErrInvalidRequest, req.Date)
	}

	hours, err := s.dir.StoreHours(ctx, req.StoreID, weekday)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return AvailableTimesResult{}, fmt.Errorf("%w: no hours for weekday %d", ErrStoreData, weekday)
		}
		return AvailableTimesResult{}, fmt.Errorf("load store hours: %w", err)
	}
	if !hours.IsActive || hours.StartTime == nil || hours.EndTime == nil {
		return AvailableTimesResult{
			Slots:   []Slot{},
			Message: "store is closed on this day",
		}, nil
	}

	openMin, err := availability.ParseClock(*hours.StartTime)
	if err != nil {
		return AvailableTimesResult{}, fmt.Errorf("%w: bad start_time: %v", ErrStoreData, err)
	}
	closeMin, err := availability.ParseClock(*hours.EndTime)
	if err != nil {
		return AvailableTimesResult{}, fmt.Errorf("%w: bad end_time: %v", ErrStoreData, err)
	}

	services, err := s.resolveServices(ctx, serviceIDs)
	if err != nil {
		return AvailableTimesResult{}, err
	}
	totalDuration := 0
	for _, svc := range services {
		mins, err := availability.ParseClock(svc.Duration)
		if err != nil {
			return AvailableTimesResult{}, fmt.Errorf("service %s duration: %w", svc.ID, err)
		}
		totalDuration += mins
	}

	window := &HoursWindow{
		Open:  availability.FormatClock(openMin),
		Close: availability.FormatClock(closeMin),
	}
	if totalDuration <= 0 {
		// A zero-length selection can never hold a slot.
		return AvailableTimesResult{
			Slots:      []Slot{},
			StoreHours: window,
			Message:    "no available times for this date",
		}, nil
	}

	booked, err := s.bookedIntervals(ctx, req.EmployeeID, req.Date)
	if err != nil {
		return AvailableTimesResult{}, fmt.Errorf("load existing schedules: %w", err)
	}

	step := hours.SlotStepMinutes
	if step <= 0 {
		step = DefaultSlotStepMinutes
	}

	starts := availability.SlotStarts(openMin, closeMin, totalDuration, step, booked)
	slots := make([]Slot, 0, len(starts))
	for _, start := range starts {
		clock := availability.FormatClock(start)
		slots = append(slots, Slot{Label: clock, Value: clock})
	}

	result := AvailableTimesResult{
		Slots:         slots,
		TotalDuration: totalDuration,
		StoreHours:    window,
	}
	if len(slots) == 0 {
		result.Message = "no available times for this date"
	}
	return result, nil
}

type CreateAppointmentRequest struct {
	StoreID       string
	EmployeeID    string
	ServiceIDs    []string
	ScheduledDate string
	ScheduledTime string // "HH:MM"
	Customer      storage.CustomerDetails
}

type CreateAppointmentResult struct {
	ScheduleID string
	Duration   string
	Total      float64
}

// CreateAppointment upserts the customer and reserves the slot in one
// transaction. It does not re-check availability first: the schedule table's
// unique index decides ties, surfacing ErrSlotTaken for the loser.
func (s *Service) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (CreateAppointmentResult, error) {
	// A service picked twice counts once, in aggregates and in the stored
	// service list alike.
	serviceIDs := dedupe(trimAll(req.ServiceIDs))
	if strings.TrimSpace(req.StoreID) == "" ||
		strings.TrimSpace(req.EmployeeID) == "" ||
		strings.TrimSpace(req.ScheduledDate) == "" ||
		len(serviceIDs) == 0 ||
		strings.TrimSpace(req.Customer.Name) == "" ||
		strings.TrimSpace(req.Customer.Email) == "" {
		return CreateAppointmentResult{}, ErrInvalidRequest
	}
	if _, err := weekdayOf(req.ScheduledDate); err != nil {
		return CreateAppointmentResult{}, fmt.Errorf("%w: bad date %q", ErrInvalidRequest, req.ScheduledDate)
	}
	startMin, err := availability.ParseClock(req.ScheduledTime)
	if err != nil {
		return CreateAppointmentResult{}, fmt.Errorf("%w: bad time %q", ErrInvalidRequest, req.ScheduledTime)
	}

	services, err := s.resolveServices(ctx, serviceIDs)
	if err != nil {
		return CreateAppointmentResult{}, err
	}

	totalMinutes := 0
	totalValue := 0.0
	for _, svc := range services {
		mins, err := availability.ParseClock(svc.Duration)
		if err != nil {
			return CreateAppointmentResult{}, fmt.Errorf("service %s duration: %w", svc.ID, err)
		}
		totalMinutes += mins
		totalValue += svc.Value
	}
	duration := availability.FormatClock(totalMinutes)

	scheduleID, err := s.store.Reserve(ctx, storage.Reservation{
		StoreID:       req.StoreID,
		EmployeeID:    req.EmployeeID,
		ServiceIDs:    serviceIDs,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: availability.FormatClock(startMin),
		Duration:      duration,
		Total:         totalValue,
		Customer: storage.CustomerDetails{
			Name:  strings.TrimSpace(req.Customer.Name),
			Email: strings.TrimSpace(req.Customer.Email),
			Phone: strings.TrimSpace(req.Customer.Phone),
		},
	})
	if err != nil {
		if storage.IsConflict(err) {
			return CreateAppointmentResult{}, ErrSlotTaken
		}
		return CreateAppointmentResult{}, fmt.Errorf("reserve slot: %w", err)
	}

	return CreateAppointmentResult{
		ScheduleID: scheduleID,
		Duration:   duration,
		Total:      totalValue,
	}, nil
}

// resolveServices loads the requested services and fails if any id is
// missing, deduplicating the request first.
func (s *Service) resolveServices(ctx context.Context, ids []string) ([]directory.Service, error) {
	unique := dedupe(ids)
	services, err := s.dir.ServicesByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	if len(services) != len(unique) {
		found := make(map[string]bool, len(services))
		for _, svc := range services {
			found[svc.ID] = true
		}
		for _, id := range unique {
			if !found[id] {
				return nil, fmt.Errorf("%w: %s", ErrServicesNotFound, id)
			}
		}
		return nil, ErrServicesNotFound
	}
	return services, nil
}

func (s *Service) bookedIntervals(ctx context.Context, employeeID, date string) ([]availability.Interval, error) {
	slots, err := s.store.BookedOn(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}

	intervals := make([]availability.Interval, 0, len(slots))
	for _, b := range slots {
		start, err := availability.ParseClock(b.ScheduledTime)
		if err != nil {
			s.logger.Warn("skipping schedule with bad scheduled_time",
				"employee_id", employeeID, "date", date, "err", err)
			continue
		}
		duration := DefaultBookingMinutes
		if b.Duration != nil {
			if mins, err := availability.ParseClock(*b.Duration); err == nil {
				duration = mins
			}
		}
		intervals = append(intervals, availability.Interval{Start: start, End: start + duration})
	}
	return intervals, nil
}

// weekdayOf resolves the weekday of a "2006-01-02" date anchored at local
// noon. Anchoring mid-day keeps DST transitions around midnight from
// shifting the date to a neighboring weekday.
func weekdayOf(date string) (time.Weekday, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0, err
	}
	noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.Local)
	return noon.Weekday(), nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
