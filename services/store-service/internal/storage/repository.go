package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendafacil/agendafacil/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type Store struct {
	ID                  string
	Name                string
	Slug                string
	Phone               string
	Address             string
	SlotStepMinutes     int
	OnboardingCompleted bool
	CreatedAt           time.Time
}

func (r *Repository) GetStore(ctx context.Context, storeID string) (Store, error) {
	var s Store
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, slug, COALESCE(phone, ''), COALESCE(address, ''),
			slot_step_minutes, onboarding_completed, created_at
		FROM stores
		WHERE id = $1
	`, storeID).Scan(&s.ID, &s.Name, &s.Slug, &s.Phone, &s.Address,
		&s.SlotStepMinutes, &s.OnboardingCompleted, &s.CreatedAt)
	return s, err
}

func (r *Repository) GetStoreBySlug(ctx context.Context, slug string) (Store, error) {
	var s Store
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, slug, COALESCE(phone, ''), COALESCE(address, ''),
			slot_step_minutes, onboarding_completed, created_at
		FROM stores
		WHERE slug = $1
	`, slug).Scan(&s.ID, &s.Name, &s.Slug, &s.Phone, &s.Address,
		&s.SlotStepMinutes, &s.OnboardingCompleted, &s.CreatedAt)
	return s, err
}

type StoreUpdate struct {
	Name                string
	Slug                string
	Phone               string
	Address             string
	SlotStepMinutes     int
	OnboardingCompleted bool
}

// UpsertStore creates or updates the store profile. The slug has a unique
// constraint; callers should map conflicts to a user-facing error.
func (r *Repository) UpsertStore(ctx context.Context, storeID string, upd StoreUpdate) error {
	if upd.SlotStepMinutes <= 0 {
		upd.SlotStepMinutes = 30
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stores (id, name, slug, phone, address, slot_step_minutes, onboarding_completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			slot_step_minutes = EXCLUDED.slot_step_minutes,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = now()
	`, storeID, upd.Name, upd.Slug, upd.Phone, upd.Address, upd.SlotStepMinutes, upd.OnboardingCompleted)
	return err
}

type DayHours struct {
	DayOfWeek int // 0 = Sunday .. 6 = Saturday
	IsActive  bool
	StartTime *string // "HH:MM", nil when inactive
	EndTime   *string
}

func (r *Repository) ListHours(ctx context.Context, storeID string) ([]DayHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day_of_week, is_active, start_time, end_time
		FROM store_hours
		WHERE store_id = $1
		ORDER BY day_of_week ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayHours
	for rows.Next() {
		var h DayHours
		if err := rows.Scan(&h.DayOfWeek, &h.IsActive, &h.StartTime, &h.EndTime); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// UpsertHours replaces the store's weekly hours in one transaction so a
// concurrent availability read never sees a half-written week.
func (r *Repository) UpsertHours(ctx context.Context, storeID string, week []DayHours) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, h := range week {
		if _, err := tx.Exec(ctx, `
			INSERT INTO store_hours (store_id, day_of_week, is_active, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (store_id, day_of_week) DO UPDATE
			SET is_active = EXCLUDED.is_active,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				updated_at = now()
		`, storeID, h.DayOfWeek, h.IsActive, h.StartTime, h.EndTime); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

type Employee struct {
	ID        string
	StoreID   string
	Name      string
	Role      string
	IsActive  bool
	CreatedAt time.Time
}

func (r *Repository) CreateEmployee(ctx context.Context, storeID, name, role string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO employees (id, store_id, name, role, is_active)
		VALUES ($1, $2, $3, $4, true)
	`, id, storeID, name, role)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListEmployees(ctx context.Context, storeID string, activeOnly bool) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, store_id::text, name, COALESCE(role, ''), is_active, created_at
		FROM employees
		WHERE store_id = $1
			AND (NOT $2 OR is_active)
		ORDER BY name ASC
	`, storeID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.StoreID, &e.Name, &e.Role, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) SetEmployeeActive(ctx context.Context, storeID, employeeID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET is_active = $3,
			updated_at = now()
		WHERE id = $1 AND store_id = $2
	`, employeeID, storeID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type Service struct {
	ID        string
	StoreID   string
	Name      string
	Duration  string // "HH:MM"
	Value     float64
	IsActive  bool
	CreatedAt time.Time
}

func (r *Repository) CreateService(ctx context.Context, storeID, name, duration string, value float64) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, store_id, name, duration, value, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
	`, id, storeID, name, duration, value)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListServices(ctx context.Context, storeID string, activeOnly bool) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, store_id::text, name, duration, COALESCE(value, 0), is_active, created_at
		FROM services
		WHERE store_id = $1
			AND (NOT $2 OR is_active)
		ORDER BY name ASC
	`, storeID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.StoreID, &s.Name, &s.Duration, &s.Value, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) SetServiceActive(ctx context.Context, storeID, serviceID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET is_active = $3,
			updated_at = now()
		WHERE id = $1 AND store_id = $2
	`, serviceID, storeID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ServicesByIDs resolves the given services regardless of store; the booking
// flow validates id membership itself.
func (r *Repository) ServicesByIDs(ctx context.Context, ids []string) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, store_id::text, name, duration, COALESCE(value, 0), is_active, created_at
		FROM services
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.StoreID, &s.Name, &s.Duration, &s.Value, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// HoursForWeekday is the availability lookup served over gRPC: one weekday's
// window plus the store's slot step.
type HoursForWeekday struct {
	Found           bool
	IsActive        bool
	StartTime       *string
	EndTime         *string
	SlotStepMinutes int
}

func (r *Repository) HoursForWeekday(ctx context.Context, storeID string, weekday int) (HoursForWeekday, error) {
	var h HoursForWeekday
	err := r.pool.QueryRow(ctx, `
		SELECT h.is_active, h.start_time, h.end_time, s.slot_step_minutes
		FROM store_hours h
		JOIN stores s ON s.id = h.store_id
		WHERE h.store_id = $1 AND h.day_of_week = $2
	`, storeID, weekday).Scan(&h.IsActive, &h.StartTime, &h.EndTime, &h.SlotStepMinutes)
	if err == pgx.ErrNoRows {
		return HoursForWeekday{}, nil
	}
	if err != nil {
		return HoursForWeekday{}, err
	}
	h.Found = true
	return h, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports a unique constraint failure, e.g. a taken slug.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
