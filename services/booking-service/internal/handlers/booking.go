package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agendafacil/agendafacil/services/booking-service/internal/booking"
	"github.com/agendafacil/agendafacil/services/booking-service/internal/storage"
)

type BookingHandler struct {
	svc    *booking.Service
	repo   *storage.ScheduleRepository
	logger *slog.Logger
}

func NewBookingHandler(svc *booking.Service, repo *storage.ScheduleRepository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, repo: repo, logger: logger}
}

type slotItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type hoursItem struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// availabilityResponse is always returned with HTTP 200; failures set
// Success=false and Error so the booking page can render them inline.
type availabilityResponse struct {
	Success        bool       `json:"success"`
	AvailableTimes []slotItem `json:"available_times"`
	TotalDuration  int        `json:"total_duration"`
	StoreHours     *hoursItem `json:"store_hours"`
	Message        string     `json:"message,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Availability is the public slot listing endpoint behind the booking page.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	req := booking.AvailableTimesRequest{
		StoreID:    strings.TrimSpace(q.Get("store_id")),
		EmployeeID: strings.TrimSpace(q.Get("employee_id")),
		Date:       strings.TrimSpace(q.Get("date")),
		ServiceIDs: splitServiceIDs(q.Get("service_ids")),
	}

	result, err := h.svc.AvailableTimes(r.Context(), req)
	if err != nil {
		resp := availabilityResponse{AvailableTimes: []slotItem{}}
		switch {
		case errors.Is(err, booking.ErrInvalidRequest):
			resp.Error = "store_id, employee_id, service_ids and date are required"
		case errors.Is(err, booking.ErrServicesNotFound):
			resp.Error = "one or more services not found"
		case errors.Is(err, booking.ErrStoreData):
			resp.Error = "store hours are not configured for this date"
		default:
			h.logger.Error("availability lookup failed", "err", err)
			resp.Error = "failed to compute availability"
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp := availabilityResponse{
		Success:        true,
		AvailableTimes: make([]slotItem, 0, len(result.Slots)),
		TotalDuration:  result.TotalDuration,
		Message:        result.Message,
	}
	for _, s := range result.Slots {
		resp.AvailableTimes = append(resp.AvailableTimes, slotItem{Label: s.Label, Value: s.Value})
	}
	if result.StoreHours != nil {
		resp.StoreHours = &hoursItem{Open: result.StoreHours.Open, Close: result.StoreHours.Close}
	}
	writeJSON(w, http.StatusOK, resp)
}

type bookRequest struct {
	StoreID       string   `json:"store_id"`
	EmployeeID    string   `json:"employee_id"`
	ServiceIDs    []string `json:"service_ids"`
	ScheduledDate string   `json:"scheduled_date"`
	ScheduledTime string   `json:"scheduled_time"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone"`
}

type bookResponse struct {
	ScheduleID string  `json:"schedule_id"`
	Duration   string  `json:"duration"`
	Total      float64 `json:"total"`
}

// Book creates an appointment from the public booking page.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.CreateAppointment(r.Context(), booking.CreateAppointmentRequest{
		StoreID:       req.StoreID,
		EmployeeID:    req.EmployeeID,
		ServiceIDs:    req.ServiceIDs,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Customer: storage.CustomerDetails{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidRequest):
			http.Error(w, "missing or malformed booking fields", http.StatusBadRequest)
		case errors.Is(err, booking.ErrServicesNotFound):
			http.Error(w, "one or more services not found", http.StatusUnprocessableEntity)
		case errors.Is(err, booking.ErrSlotTaken):
			http.Error(w, "time slot already booked", http.StatusConflict)
		default:
			h.logger.Error("booking failed", "err", err)
			http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{
		ScheduleID: result.ScheduleID,
		Duration:   result.Duration,
		Total:      result.Total,
	})
}

type scheduleItem struct {
	ScheduleID    string   `json:"schedule_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	EmployeeID    string   `json:"employee_id"`
	ServiceIDs    []string `json:"service_ids"`
	ScheduledDate string   `json:"scheduled_date"`
	ScheduledTime string   `json:"scheduled_time"`
	Duration      string   `json:"duration"`
	Total         float64  `json:"total"`
	Completed     bool     `json:"completed"`
	CreatedAt     string   `json:"created_at"`
}

// List returns a store's appointments, optionally filtered to one date.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	storeID := requireStoreID(w, r)
	if storeID == "" {
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	limit := parseLimit(r, 50, 200)

	schedules, err := h.repo.ListByStore(r.Context(), storeID, date, limit)
	if err != nil {
		h.logger.Error("failed to list schedules", "store_id", storeID, "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]scheduleItem, 0, len(schedules))
	for _, s := range schedules {
		items = append(items, scheduleItem{
			ScheduleID:    s.ID,
			CustomerName:  s.CustomerName,
			CustomerEmail: s.CustomerEmail,
			EmployeeID:    s.EmployeeID,
			ServiceIDs:    s.ServiceIDs,
			ScheduledDate: s.ScheduledDate,
			ScheduledTime: s.ScheduledTime,
			Duration:      s.Duration,
			Total:         s.Total,
			Completed:     s.Completed,
			CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

type completeRequest struct {
	ScheduleID string `json:"schedule_id"`
}

// Complete marks an appointment as done, scoped to the calling store.
func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	storeID := requireStoreID(w, r)
	if storeID == "" {
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ScheduleID = strings.TrimSpace(req.ScheduleID)
	if req.ScheduleID == "" {
		http.Error(w, "schedule_id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Complete(r.Context(), storeID, req.ScheduleID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to complete schedule", "schedule_id", req.ScheduleID, "err", err)
		http.Error(w, "failed to complete appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"schedule_id": req.ScheduleID,
		"status":      "completed",
	})
}

type customerItem struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// Customers lists the store's customer records built up from bookings.
func (h *BookingHandler) Customers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	storeID := requireStoreID(w, r)
	if storeID == "" {
		return
	}
	limit := parseLimit(r, 100, 500)

	customers, err := h.repo.ListCustomers(r.Context(), storeID, limit)
	if err != nil {
		h.logger.Error("failed to list customers", "store_id", storeID, "err", err)
		http.Error(w, "failed to list customers", http.StatusInternalServerError)
		return
	}

	items := make([]customerItem, 0, len(customers))
	for _, c := range customers {
		items = append(items, customerItem{
			CustomerID: c.ID,
			Name:       c.Name,
			Email:      c.Email,
			Phone:      c.Phone,
			CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func requireStoreID(w http.ResponseWriter, r *http.Request) string {
	storeID := strings.TrimSpace(r.Header.Get("X-Store-Id"))
	if storeID == "" {
		storeID = strings.TrimSpace(r.URL.Query().Get("store_id"))
	}
	if storeID == "" {
		http.Error(w, "store_id required", http.StatusBadRequest)
	}
	return storeID
}

func parseLimit(r *http.Request, fallback, max int) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= max {
		return n
	}
	return fallback
}

func splitServiceIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
