package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sikong32/mytodo/internal/domain"
)

type stubHolidayService struct {
	gotYear  int
	gotPrefs []string
}

func (s *stubHolidayService) Holidays(year int, prefs ...string) (string, []domain.Occurrence) {
	s.gotYear = year
	s.gotPrefs = prefs
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return "en", []domain.Occurrence{{
		ID:       "holiday-en-20240101-0",
		Title:    "New Year's Day",
		Start:    day,
		End:      day.AddDate(0, 0, 1),
		Category: domain.CategoryHoliday,
		ReadOnly: true,
		AllDay:   true,
	}}
}

func TestHandleHolidays(t *testing.T) {
	t.Parallel()

	svc := &stubHolidayService{}
	req := httptest.NewRequest(http.MethodGet, "/holidays?year=2024", nil)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	rec := httptest.NewRecorder()

	HandleHolidays(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotYear != 2024 {
		t.Fatalf("expected year 2024, got %d", svc.gotYear)
	}
	if len(svc.gotPrefs) != 2 || svc.gotPrefs[0] != "" || svc.gotPrefs[1] != "en-US,en;q=0.9" {
		t.Fatalf("expected Accept-Language fallback, got %q", svc.gotPrefs)
	}

	var resp holidaysResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Locale != "en" || len(resp.Holidays) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if h := resp.Holidays[0]; !h.ReadOnly || !h.AllDay || h.Category != "holiday" {
		t.Fatalf("expected read-only all-day holiday, got %+v", h)
	}
}

func TestHandleHolidays_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantCode   string
	}{
		{name: "year not a number", method: http.MethodGet, target: "/holidays?year=abc", wantStatus: http.StatusBadRequest, wantCode: codeInvalidYear},
		{name: "year out of range", method: http.MethodGet, target: "/holidays?year=0", wantStatus: http.StatusBadRequest, wantCode: codeInvalidYear},
		{name: "method", method: http.MethodPost, target: "/holidays", wantStatus: http.StatusMethodNotAllowed, wantCode: codeMethodNotAllowed},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			HandleHolidays(&stubHolidayService{}).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}
