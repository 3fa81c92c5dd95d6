package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agendafacil/agendafacil/services/store-service/internal/storage"
)

type Handler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func New(repo *storage.Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func storeIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Store-Id"))
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	s, err := h.repo.GetStore(r.Context(), storeID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "store not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load store", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"store_id":             s.ID,
		"name":                 s.Name,
		"slug":                 s.Slug,
		"phone":                s.Phone,
		"address":              s.Address,
		"slot_step_minutes":    s.SlotStepMinutes,
		"onboarding_completed": s.OnboardingCompleted,
	})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name                string `json:"name"`
		Slug                string `json:"slug"`
		Phone               string `json:"phone"`
		Address             string `json:"address"`
		SlotStepMinutes     int    `json:"slot_step_minutes"`
		OnboardingCompleted bool   `json:"onboarding_completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	if req.Name == "" || req.Slug == "" {
		http.Error(w, "name and slug required", http.StatusBadRequest)
		return
	}
	if req.SlotStepMinutes < 0 || req.SlotStepMinutes > 240 {
		http.Error(w, "invalid slot_step_minutes", http.StatusBadRequest)
		return
	}

	err := h.repo.UpsertStore(r.Context(), storeID, storage.StoreUpdate{
		Name:                req.Name,
		Slug:                req.Slug,
		Phone:               strings.TrimSpace(req.Phone),
		Address:             strings.TrimSpace(req.Address),
		SlotStepMinutes:     req.SlotStepMinutes,
		OnboardingCompleted: req.OnboardingCompleted,
	})
	if err != nil {
		if storage.IsUniqueViolation(err) {
			http.Error(w, "slug already in use", http.StatusConflict)
			return
		}
		h.logger.Error("failed to update store", "store_id", storeID, "err", err)
		http.Error(w, "failed to update store", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dayHoursPayload struct {
	DayOfWeek int     `json:"day_of_week"`
	IsActive  bool    `json:"is_active"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func (h *Handler) Hours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listHours(w, r)
	case http.MethodPut:
		h.updateHours(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listHours(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	hours, err := h.repo.ListHours(r.Context(), storeID)
	if err != nil {
		http.Error(w, "failed to load hours", http.StatusInternalServerError)
		return
	}

	out := make([]dayHoursPayload, 0, len(hours))
	for _, d := range hours {
		out = append(out, dayHoursPayload{
			DayOfWeek: d.DayOfWeek,
			IsActive:  d.IsActive,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) updateHours(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	var req []dayHoursPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req) == 0 || len(req) > 7 {
		http.Error(w, "between 1 and 7 days required", http.StatusBadRequest)
		return
	}

	week := make([]storage.DayHours, 0, len(req))
	seen := make(map[int]bool, len(req))
	for _, d := range req {
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 || seen[d.DayOfWeek] {
			http.Error(w, "day_of_week must be 0..6 and unique", http.StatusBadRequest)
			return
		}
		seen[d.DayOfWeek] = true

		if d.IsActive {
			if d.StartTime == nil || d.EndTime == nil ||
				!validClock(*d.StartTime) || !validClock(*d.EndTime) {
				http.Error(w, "active days need valid start_time and end_time", http.StatusBadRequest)
				return
			}
			if *d.EndTime <= *d.StartTime {
				http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
				return
			}
		} else {
			d.StartTime = nil
			d.EndTime = nil
		}
		week = append(week, storage.DayHours{
			DayOfWeek: d.DayOfWeek,
			IsActive:  d.IsActive,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})
	}

	if err := h.repo.UpsertHours(r.Context(), storeID, week); err != nil {
		h.logger.Error("failed to update hours", "store_id", storeID, "err", err)
		http.Error(w, "failed to update hours", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listEmployees(w, r)
	case http.MethodPost:
		h.createEmployee(w, r)
	case http.MethodPatch:
		h.setActive(w, r, h.repo.SetEmployeeActive, "employee")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateEmployee(r.Context(), storeID, req.Name, strings.TrimSpace(req.Role))
	if err != nil {
		http.Error(w, "failed to create employee", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	employees, err := h.repo.ListEmployees(r.Context(), storeID, false)
	if err != nil {
		http.Error(w, "failed to list employees", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(employees))
	for _, e := range employees {
		out = append(out, map[string]any{
			"id":        e.ID,
			"name":      e.Name,
			"role":      e.Role,
			"is_active": e.IsActive,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listServices(w, r)
	case http.MethodPost:
		h.createService(w, r)
	case http.MethodPatch:
		h.setActive(w, r, h.repo.SetServiceActive, "service")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name     string  `json:"name"`
		Duration string  `json:"duration"`
		Value    float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Duration = strings.TrimSpace(req.Duration)
	if req.Name == "" || !validClock(req.Duration) {
		http.Error(w, "name and duration (HH:MM) required", http.StatusBadRequest)
		return
	}
	if req.Value < 0 {
		http.Error(w, "value must not be negative", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateService(r.Context(), storeID, req.Name, req.Duration, req.Value)
	if err != nil {
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	services, err := h.repo.ListServices(r.Context(), storeID, false)
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(services))
	for _, s := range services {
		out = append(out, map[string]any{
			"id":        s.ID,
			"name":      s.Name,
			"duration":  s.Duration,
			"value":     s.Value,
			"is_active": s.IsActive,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// setActive flips the is_active flag on an employee or service. The admin
// screens use it as a soft delete; deactivated rows stay referenced by past
// schedules but stop being offered for new bookings.
func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, update func(context.Context, string, string, bool) error, kind string) {
	storeID := storeIDFromHeader(r)
	if storeID == "" {
		http.Error(w, "missing X-Store-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		ID       string `json:"id"`
		IsActive *bool  `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || req.IsActive == nil {
		http.Error(w, "id and is_active required", http.StatusBadRequest)
		return
	}

	if err := update(r.Context(), storeID, req.ID, *req.IsActive); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, kind+" not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update "+kind, "store_id", storeID, "id", req.ID, "err", err)
		http.Error(w, "failed to update "+kind, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublicStore serves the booking page bootstrap: the store resolved by slug
// with its active employees and services.
func (h *Handler) PublicStore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("slug")))
	if slug == "" {
		http.Error(w, "slug required", http.StatusBadRequest)
		return
	}

	s, err := h.repo.GetStoreBySlug(r.Context(), slug)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "store not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load store", http.StatusInternalServerError)
		return
	}

	employees, err := h.repo.ListEmployees(r.Context(), s.ID, true)
	if err != nil {
		http.Error(w, "failed to load employees", http.StatusInternalServerError)
		return
	}
	services, err := h.repo.ListServices(r.Context(), s.ID, true)
	if err != nil {
		http.Error(w, "failed to load services", http.StatusInternalServerError)
		return
	}

	employeeItems := make([]map[string]any, 0, len(employees))
	for _, e := range employees {
		employeeItems = append(employeeItems, map[string]any{
			"id":   e.ID,
			"name": e.Name,
			"role": e.Role,
		})
	}
	serviceItems := make([]map[string]any, 0, len(services))
	for _, sv := range services {
		serviceItems = append(serviceItems, map[string]any{
			"id":       sv.ID,
			"name":     sv.Name,
			"duration": sv.Duration,
			"value":    sv.Value,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"store": map[string]any{
			"id":                s.ID,
			"name":              s.Name,
			"slug":              s.Slug,
			"phone":             s.Phone,
			"address":           s.Address,
			"slot_step_minutes": s.SlotStepMinutes,
		},
		"employees": employeeItems,
		"services":  serviceItems,
	})
}

// validClock accepts "HH:MM" or "HH:MM:SS" wall clock strings.
func validClock(clock string) bool {
	if _, err := time.Parse("15:04:05", clock); err == nil {
		return true
	}
	_, err := time.Parse("15:04", clock)
	return err == nil
}
