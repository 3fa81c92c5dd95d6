package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidClock(t *testing.T) {
	for _, ok := range []string{"09:00", "23:59", "09:00:30"} {
		if !validClock(ok) {
			t.Errorf("%q should be valid", ok)
		}
	}
	for _, bad := range []string{"", "9am", "24:00", "12:60", "12h30"} {
		if validClock(bad) {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestHandlersRequireStoreHeader(t *testing.T) {
	h := New(nil, slog.New(slog.DiscardHandler))

	endpoints := []struct {
		name   string
		method string
		fn     http.HandlerFunc
	}{
		{"profile", http.MethodGet, h.Profile},
		{"hours", http.MethodGet, h.Hours},
		{"employees", http.MethodGet, h.Employees},
		{"services", http.MethodGet, h.Services},
		{"deactivate employee", http.MethodPatch, h.Employees},
		{"deactivate service", http.MethodPatch, h.Services},
	}
	for _, ep := range endpoints {
		req := httptest.NewRequest(ep.method, "/", nil)
		rec := httptest.NewRecorder()
		ep.fn(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s without X-Store-Id: status %d, want 400", ep.name, rec.Code)
		}
	}
}

func TestUpdateHoursValidation(t *testing.T) {
	h := New(nil, slog.New(slog.DiscardHandler))

	cases := []struct {
		name string
		body string
	}{
		{"empty week", `[]`},
		{"bad weekday", `[{"day_of_week":7,"is_active":false}]`},
		{"duplicate weekday", `[{"day_of_week":1,"is_active":false},{"day_of_week":1,"is_active":false}]`},
		{"active without times", `[{"day_of_week":1,"is_active":true}]`},
		{"end before start", `[{"day_of_week":1,"is_active":true,"start_time":"18:00","end_time":"09:00"}]`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/store/hours", strings.NewReader(tc.body))
		req.Header.Set("X-Store-Id", "st1")
		rec := httptest.NewRecorder()
		h.Hours(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestSetActiveValidation(t *testing.T) {
	h := New(nil, slog.New(slog.DiscardHandler))

	cases := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"missing id", `{"is_active":false}`},
		{"missing flag", `{"id":"e1"}`},
		{"blank id", `{"id":"  ","is_active":false}`},
	}
	for _, target := range []struct {
		name string
		fn   http.HandlerFunc
	}{
		{"employees", h.Employees},
		{"services", h.Services},
	} {
		for _, tc := range cases {
			req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(tc.body))
			req.Header.Set("X-Store-Id", "st1")
			rec := httptest.NewRecorder()
			target.fn(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s %s: status %d, want 400", target.name, tc.name, rec.Code)
			}
		}
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	h := New(nil, slog.New(slog.DiscardHandler))

	cases := []string{
		`{"slug":"my-store"}`,
		`{"name":"My Store"}`,
		`{"name":"My Store","slug":"my-store","slot_step_minutes":-5}`,
	}
	for i, body := range cases {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/store/profile", strings.NewReader(body))
		req.Header.Set("X-Store-Id", "st1")
		rec := httptest.NewRecorder()
		h.Profile(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("case %d: status %d, want 400", i, rec.Code)
		}
	}
}
