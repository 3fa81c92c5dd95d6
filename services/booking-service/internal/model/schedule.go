package model

import "time"

type Customer struct {
	ID        string
	StoreID   string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Schedule is one confirmed appointment. ServiceID references the first
// selected service; the full selection lives in schedule_services.
// ScheduledTime plus Duration span the half-open interval the booking
// occupies on the employee's agenda for ScheduledDate.
type Schedule struct {
	ID            string
	StoreID       string
	CustomerID    string
	EmployeeID    string
	ServiceID     string
	ScheduledDate string // "2006-01-02"
	ScheduledTime string // "HH:MM"
	Duration      string // aggregate "HH:MM"
	Total         float64
	Completed     bool
	CreatedAt     time.Time
}

// ScheduleListItem is the agenda view of a schedule: the row joined with its
// customer and the full ordered service selection.
type ScheduleListItem struct {
	Schedule
	CustomerName  string
	CustomerEmail string
	ServiceIDs    []string
}

// BookedSlot is the minimal shape the availability calculator needs from an
// existing schedule. Duration is nil on legacy rows that predate the column.
type BookedSlot struct {
	ScheduledTime string
	Duration      *string
}
