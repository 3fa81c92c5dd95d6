package booking

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendafacil/agendafacil/services/booking-service/internal/directory"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/model"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/storage"
)

type fakeDirectory struct {
	hours    directory.DayHours
	hoursErr error
	services map[string]directory.Service
}

func (f *fakeDirectory) StoreHours(_ context.Context, _ string, _ time.Weekday) (directory.DayHours, error) {
	if f.hoursErr != nil {
		return directory.DayHours{}, f.hoursErr
	}
	return f.hours, nil
}

func (f *fakeDirectory) ServicesByIDs(_ context.Context, ids []string) ([]directory.Service, error) {
	out := make([]directory.Service, 0, len(ids))
	for _, id := range ids {
		if svc, ok := f.services[id]; ok {
			out = append(out, svc)
		}
	}
	return out, nil
}

type fakeStorage struct {
	booked     []model.BookedSlot
	bookedErr  error
	reserved   []storage.Reservation
	reserveErr error
}

func (f *fakeStorage) BookedOn(_ context.Context, _, _ string) ([]model.BookedSlot, error) {
	return f.booked, f.bookedErr
}

func (f *fakeStorage) Reserve(_ context.Context, res storage.Reservation) (string, error) {
	if f.reserveErr != nil {
		return "", f.reserveErr
	}
	f.reserved = append(f.reserved, res)
	return "sched-1", nil
}

func str(s string) *string { return &s }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func openDay() directory.DayHours {
	return directory.DayHours{
		IsActive:        true,
		StartTime:       str("09:00:00"),
		EndTime:         str("18:00:00"),
		SlotStepMinutes: 30,
	}
}

func TestAvailableTimesRejectsIncompleteRequest(t *testing.T) {
	svc := NewService(&fakeDirectory{}, &fakeStorage{bookedErr: errors.New("must not be called")}, testLogger())

	reqs := []AvailableTimesRequest{
		{EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07"},
		{StoreID: "st1", ServiceIDs: []string{"s1"}, Date: "2026-09-07"},
		{StoreID: "st1", EmployeeID: "e1", Date: "2026-09-07"},
		{StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"  "}, Date: "2026-09-07"},
		{StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}},
		{StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "07/09/2026"},
	}
	for i, req := range reqs {
		if _, err := svc.AvailableTimes(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("req %d: got %v, want ErrInvalidRequest", i, err)
		}
	}
}

func TestAvailableTimesClosedDay(t *testing.T) {
	dir := &fakeDirectory{hours: directory.DayHours{IsActive: false}}
	svc := NewService(dir, &fakeStorage{}, testLogger())

	res, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Slots) != 0 {
		t.Errorf("got %d slots, want 0", len(res.Slots))
	}
	if res.StoreHours != nil {
		t.Errorf("closed day must not report store hours, got %+v", res.StoreHours)
	}
	if res.Message == "" {
		t.Error("expected a closed-day message")
	}
}

func TestAvailableTimesMissingHoursRow(t *testing.T) {
	dir := &fakeDirectory{hoursErr: directory.ErrNotFound}
	svc := NewService(dir, &fakeStorage{}, testLogger())

	_, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if !errors.Is(err, ErrStoreData) {
		t.Fatalf("got %v, want ErrStoreData", err)
	}
}

func TestAvailableTimesUnknownService(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "01:00"}},
	}
	svc := NewService(dir, &fakeStorage{}, testLogger())

	_, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1", "nope"}, Date: "2026-09-07",
	})
	if !errors.Is(err, ErrServicesNotFound) {
		t.Fatalf("got %v, want ErrServicesNotFound", err)
	}
}

func TestAvailableTimesFullOpenDay(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "01:00", Value: 50}},
	}
	svc := NewService(dir, &fakeStorage{}, testLogger())

	res, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Slots) != 17 {
		t.Fatalf("got %d slots, want 17", len(res.Slots))
	}
	if res.Slots[0].Value != "09:00" || res.Slots[16].Value != "17:00" {
		t.Errorf("slot range [%s..%s], want [09:00..17:00]", res.Slots[0].Value, res.Slots[16].Value)
	}
	if res.TotalDuration != 60 {
		t.Errorf("total duration %d, want 60", res.TotalDuration)
	}
	if res.StoreHours == nil || res.StoreHours.Open != "09:00" || res.StoreHours.Close != "18:00" {
		t.Errorf("store hours %+v, want 09:00-18:00", res.StoreHours)
	}
}

func TestAvailableTimesSkipsBookedWindow(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "01:00"}},
	}
	store := &fakeStorage{booked: []model.BookedSlot{
		{ScheduledTime: "10:00", Duration: str("01:00")},
	}}
	svc := NewService(dir, store, testLogger())

	res, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	offered := make(map[string]bool, len(res.Slots))
	for _, slot := range res.Slots {
		offered[slot.Value] = true
	}
	for _, blocked := range []string{"09:30", "10:00", "10:30"} {
		if offered[blocked] {
			t.Errorf("%s is offered but overlaps the 10:00-11:00 booking", blocked)
		}
	}
	for _, free := range []string{"09:00", "11:00"} {
		if !offered[free] {
			t.Errorf("%s should still be offered", free)
		}
	}
}

func TestAvailableTimesLegacyBookingDefaultsToThirtyMinutes(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "00:30"}},
	}
	store := &fakeStorage{booked: []model.BookedSlot{
		{ScheduledTime: "09:00", Duration: nil},
	}}
	svc := NewService(dir, store, testLogger())

	res, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Slots[0].Value != "09:30" {
		t.Errorf("first slot %s, want 09:30 after the implicit 30-minute hold", res.Slots[0].Value)
	}
}

func TestAvailableTimesSkipsMalformedBookedRows(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "01:00"}},
	}
	store := &fakeStorage{booked: []model.BookedSlot{
		{ScheduledTime: "bogus", Duration: str("01:00")},
	}}
	svc := NewService(dir, store, testLogger())

	res, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Slots) != 17 {
		t.Errorf("got %d slots, want 17 with the bad row ignored", len(res.Slots))
	}
}

func TestAvailableTimesZeroDurationSelection(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "00:00"}},
	}
	svc := NewService(dir, &fakeStorage{bookedErr: errors.New("must not be called")}, testLogger())

	res, err := svc.AvailableTimes(context.Background(), AvailableTimesRequest{
		StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, Date: "2026-09-07",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Slots) != 0 {
		t.Errorf("got %d slots, want 0 for a zero-length selection", len(res.Slots))
	}
	if res.StoreHours == nil {
		t.Error("zero-duration selection on an open day should still report store hours")
	}
}

func TestCreateAppointmentReservesAggregates(t *testing.T) {
	dir := &fakeDirectory{
		hours: openDay(),
		services: map[string]directory.Service{
			"s1": {ID: "s1", Duration: "01:00", Value: 80},
			"s2": {ID: "s2", Duration: "00:45", Value: 40.5},
		},
	}
	store := &fakeStorage{}
	svc := NewService(dir, store, testLogger())

	res, err := svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		StoreID:       "st1",
		EmployeeID:    "e1",
		ServiceIDs:    []string{"s1", "s2"},
		ScheduledDate: "2026-09-07",
		ScheduledTime: "14:00:00",
		Customer:      storage.CustomerDetails{Name: "  Ana Silva ", Email: "ana@example.com", Phone: "11999990000"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ScheduleID != "sched-1" {
		t.Errorf("schedule id %q, want sched-1", res.ScheduleID)
	}
	if res.Duration != "01:45" {
		t.Errorf("duration %q, want 01:45", res.Duration)
	}
	if res.Total != 120.5 {
		t.Errorf("total %v, want 120.5", res.Total)
	}

	if len(store.reserved) != 1 {
		t.Fatalf("got %d reservations, want 1", len(store.reserved))
	}
	got := store.reserved[0]
	if got.ScheduledTime != "14:00" {
		t.Errorf("scheduled time %q, want normalized 14:00", got.ScheduledTime)
	}
	if got.Customer.Name != "Ana Silva" {
		t.Errorf("customer name %q, want trimmed", got.Customer.Name)
	}
	if len(got.ServiceIDs) != 2 || got.ServiceIDs[0] != "s1" {
		t.Errorf("service ids %v, want request order preserved", got.ServiceIDs)
	}
}

func TestCreateAppointmentDeduplicatesServices(t *testing.T) {
	dir := &fakeDirectory{
		hours: openDay(),
		services: map[string]directory.Service{
			"s1": {ID: "s1", Duration: "01:00", Value: 50},
		},
	}
	store := &fakeStorage{}
	svc := NewService(dir, store, testLogger())

	res, err := svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		StoreID:       "st1",
		EmployeeID:    "e1",
		ServiceIDs:    []string{"s1", "s1"},
		ScheduledDate: "2026-09-07",
		ScheduledTime: "14:00",
		Customer:      storage.CustomerDetails{Name: "Ana", Email: "ana@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Duration != "01:00" || res.Total != 50 {
		t.Errorf("aggregates %q/%v, want the service counted once", res.Duration, res.Total)
	}
	if len(store.reserved) != 1 {
		t.Fatalf("got %d reservations, want 1", len(store.reserved))
	}
	// A repeated id must not reach the per-service insert, where it would
	// collide with the (schedule_id, service_id) primary key.
	if got := store.reserved[0].ServiceIDs; len(got) != 1 || got[0] != "s1" {
		t.Errorf("service ids %v, want [s1]", got)
	}
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	dir := &fakeDirectory{
		hours:    openDay(),
		services: map[string]directory.Service{"s1": {ID: "s1", Duration: "01:00"}},
	}
	store := &fakeStorage{reserveErr: &pgconn.PgError{Code: "23505"}}
	svc := NewService(dir, store, testLogger())

	_, err := svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		StoreID:       "st1",
		EmployeeID:    "e1",
		ServiceIDs:    []string{"s1"},
		ScheduledDate: "2026-09-07",
		ScheduledTime: "14:00",
		Customer:      storage.CustomerDetails{Name: "Ana", Email: "ana@example.com"},
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("got %v, want ErrSlotTaken", err)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	svc := NewService(&fakeDirectory{}, &fakeStorage{}, testLogger())

	reqs := []CreateAppointmentRequest{
		{},
		{StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, ScheduledDate: "2026-09-07", ScheduledTime: "14:00",
			Customer: storage.CustomerDetails{Email: "ana@example.com"}},
		{StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, ScheduledDate: "2026-09-07", ScheduledTime: "14:00",
			Customer: storage.CustomerDetails{Name: "Ana"}},
		{StoreID: "st1", EmployeeID: "e1", ServiceIDs: []string{"s1"}, ScheduledDate: "2026-09-07", ScheduledTime: "14h",
			Customer: storage.CustomerDetails{Name: "Ana", Email: "ana@example.com"}},
	}
	for i, req := range reqs {
		if _, err := svc.CreateAppointment(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("req %d: got %v, want ErrInvalidRequest", i, err)
		}
	}
}

func TestWeekdayOf(t *testing.T) {
	wd, err := weekdayOf("2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wd != time.Monday {
		t.Errorf("got %v, want Monday", wd)
	}
}
