package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/model"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/outbox"
)

type ScheduleRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewScheduleRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, outbox: outboxRepo}
}

// CustomerDetails is the contact info captured on the public booking form.
type CustomerDetails struct {
	Name  string
	Email string
	Phone string
}

// Reservation is everything needed to persist one appointment: the resolved
// aggregates plus the ordered service selection.
type Reservation struct {
	StoreID       string
	EmployeeID    string
	ServiceIDs    []string // ordered; first element becomes the schedule's service_id
	ScheduledDate string
	ScheduledTime string
	Duration      string
	Total         float64
	Customer      CustomerDetails
}

// BookedOn lists the start time and stored duration of every schedule the
// employee already has on the date.
func (r *ScheduleRepository) BookedOn(ctx context.Context, employeeID, date string) ([]model.BookedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scheduled_time, duration
		FROM schedules
		WHERE employee_id = $1 AND scheduled_date = $2
		ORDER BY scheduled_time ASC
	`, employeeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookedSlot
	for rows.Next() {
		var s model.BookedSlot
		if err := rows.Scan(&s.ScheduledTime, &s.Duration); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Reserve books the slot in a single transaction: customer upsert, schedule
// insert, the per-service join rows, and the outbox event. The unique index
// on (employee_id, scheduled_date, scheduled_time) is the arbiter between
// concurrent bookings; losers surface through IsConflict.
func (r *ScheduleRepository) Reserve(ctx context.Context, res Reservation) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var customerID string
	err = tx.QueryRow(ctx, `
		INSERT INTO customers (id, store_id, name, email, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (store_id, email) DO UPDATE
		SET name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			updated_at = now()
		RETURNING id::text
	`, uuid.NewString(), res.StoreID, res.Customer.Name, res.Customer.Email, res.Customer.Phone).Scan(&customerID)
	if err != nil {
		return "", err
	}

	scheduleID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO schedules
			(id, store_id, customer_id, employee_id, service_id,
			 scheduled_date, scheduled_time, duration, total, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false)
	`, scheduleID, res.StoreID, customerID, res.EmployeeID, res.ServiceIDs[0],
		res.ScheduledDate, res.ScheduledTime, res.Duration, res.Total)
	if err != nil {
		return "", err
	}

	for i, serviceID := range res.ServiceIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO schedule_services (schedule_id, service_id, position)
			VALUES ($1, $2, $3)
		`, scheduleID, serviceID, i); err != nil {
			return "", err
		}
	}

	payload, err := json.Marshal(map[string]any{
		"schedule_id":    scheduleID,
		"store_id":       res.StoreID,
		"customer_id":    customerID,
		"employee_id":    res.EmployeeID,
		"service_ids":    res.ServiceIDs,
		"scheduled_date": res.ScheduledDate,
		"scheduled_time": res.ScheduledTime,
		"duration":       res.Duration,
		"total":          res.Total,
	})
	if err != nil {
		return "", err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "schedule",
		AggregateID:   scheduleID,
		EventType:     "booking.schedule.created.v1",
		Payload:       payload,
	}); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return scheduleID, nil
}

// ListByStore returns the store's agenda, optionally narrowed to one date.
// Each row carries the customer contact and the full service selection.
func (r *ScheduleRepository) ListByStore(ctx context.Context, storeID, date string, limit int) ([]model.ScheduleListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.store_id::text, s.customer_id::text, s.employee_id::text, s.service_id::text,
			s.scheduled_date::text, s.scheduled_time, COALESCE(s.duration, ''), COALESCE(s.total, 0),
			s.completed, s.created_at,
			c.name, c.email,
			COALESCE(
				(SELECT array_agg(ss.service_id::text ORDER BY ss.position)
				 FROM schedule_services ss WHERE ss.schedule_id = s.id),
				ARRAY[]::text[]
			)
		FROM schedules s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.store_id = $1
			AND ($2 = '' OR s.scheduled_date = $2::date)
		ORDER BY s.scheduled_date DESC, s.scheduled_time ASC
		LIMIT $3
	`, storeID, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduleListItem
	for rows.Next() {
		var s model.ScheduleListItem
		if err := rows.Scan(&s.ID, &s.StoreID, &s.CustomerID, &s.EmployeeID, &s.ServiceID,
			&s.ScheduledDate, &s.ScheduledTime, &s.Duration, &s.Total, &s.Completed, &s.CreatedAt,
			&s.CustomerName, &s.CustomerEmail, &s.ServiceIDs); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Complete marks a schedule as done.
func (r *ScheduleRepository) Complete(ctx context.Context, storeID, scheduleID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schedules
		SET completed = true,
			updated_at = now()
		WHERE id = $1 AND store_id = $2
	`, scheduleID, storeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ScheduleRepository) ListCustomers(ctx context.Context, storeID string, limit int) ([]model.Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, store_id::text, name, email, phone, created_at, updated_at
		FROM customers
		WHERE store_id = $1
		ORDER BY name ASC
		LIMIT $2
	`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// IsConflict reports a unique or exclusion constraint violation, i.e. the
// slot was taken by a concurrent booking.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23P01")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
