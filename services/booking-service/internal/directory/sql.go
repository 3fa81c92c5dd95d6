package directory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agendafacil/agendafacil/libs/db"
)

type sqlDirectory struct {
	pool *db.Pool
}

// NewSQL returns a Directory reading the store schema over the shared
// database connection.
func NewSQL(pool *db.Pool) Directory {
	return &sqlDirectory{pool: pool}
}

func (d *sqlDirectory) StoreHours(ctx context.Context, storeID string, weekday time.Weekday) (DayHours, error) {
	var h DayHours
	err := d.pool.QueryRow(ctx, `
		SELECT h.is_active, h.start_time, h.end_time, s.slot_step_minutes
		FROM store_hours h
		JOIN stores s ON s.id = h.store_id
		WHERE h.store_id = $1 AND h.day_of_week = $2
	`, storeID, int(weekday)).Scan(&h.IsActive, &h.StartTime, &h.EndTime, &h.SlotStepMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return DayHours{}, ErrNotFound
	}
	if err != nil {
		return DayHours{}, err
	}
	return h, nil
}

// ServicesByIDs skips inactive services; a deactivated service is no longer
// bookable and the caller reports it as missing.
func (d *sqlDirectory) ServicesByIDs(ctx context.Context, ids []string) ([]Service, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, duration, COALESCE(value, 0)
		FROM services
		WHERE id = ANY($1) AND is_active
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Duration, &s.Value); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
