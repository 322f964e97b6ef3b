package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sikong32/mytodo/internal/app"
	"github.com/sikong32/mytodo/internal/auth"
	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/reconcile"
)

type stubEventService struct {
	occurrences []domain.Occurrence
	created     domain.EventDefinition
	edited      []domain.EventDefinition
	err         error

	gotUser   string
	gotWindow domain.Window
	gotCreate reconcile.CreateInput
	gotEdit   app.EditInput
	gotDelete app.DeleteInput
}

func (s *stubEventService) ListOccurrences(_ context.Context, userID string, w domain.Window) ([]domain.Occurrence, error) {
	s.gotUser = userID
	s.gotWindow = w
	return s.occurrences, s.err
}

func (s *stubEventService) CreateEvent(_ context.Context, userID string, in reconcile.CreateInput) (domain.EventDefinition, error) {
	s.gotUser = userID
	s.gotCreate = in
	return s.created, s.err
}

func (s *stubEventService) EditOccurrence(_ context.Context, in app.EditInput) ([]domain.EventDefinition, error) {
	s.gotEdit = in
	return s.edited, s.err
}

func (s *stubEventService) DeleteOccurrence(_ context.Context, in app.DeleteInput) error {
	s.gotDelete = in
	return s.err
}

func withUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestHandleEvents_List(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC)
	svc := &stubEventService{occurrences: []domain.Occurrence{{
		ID:                  "E1_1706688000000",
		DefinitionID:        "E1",
		Title:               "Standup",
		Start:               start,
		End:                 start.Add(30 * time.Minute),
		Category:            domain.CategoryWork,
		Color:               "#6c757d",
		IsRecurringInstance: true,
		RecurringPattern:    domain.PatternWeekly,
	}}}

	req := httptest.NewRequest(http.MethodGet, "/events?from=2024-01-01T00:00:00Z&to=2024-02-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	HandleEvents(svc).ServeHTTP(rec, withUser(req, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if svc.gotUser != "user-1" {
		t.Fatalf("expected user-1, got %q", svc.gotUser)
	}
	if !svc.gotWindow.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window from %v", svc.gotWindow.From)
	}

	var resp []occurrenceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "E1_1706688000000" || !resp[0].IsRecurringInstance {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleEvents_ListBadWindow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		query    string
		wantCode string
	}{
		{name: "bad from", query: "from=yesterday", wantCode: codeInvalidTime},
		{name: "bad to", query: "to=2024-13-01", wantCode: codeInvalidTime},
		{name: "reversed", query: "from=2024-02-01T00:00:00Z&to=2024-01-01T00:00:00Z", wantCode: codeInvalidTimeRange},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/events?"+tt.query, nil)
			rec := httptest.NewRecorder()
			HandleEvents(&stubEventService{}).ServeHTTP(rec, withUser(req, "user-1"))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestHandleEvents_Create(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := &stubEventService{created: domain.EventDefinition{
		ID:               "E1",
		Title:            "Standup",
		StartTime:        start,
		EndTime:          start.Add(30 * time.Minute),
		Category:         domain.CategoryWork,
		IsRecurring:      true,
		RecurringPattern: domain.PatternWeekly,
	}}

	body := `{"title":"Standup","start_time":"2024-01-01T09:00:00Z","end_time":"2024-01-01T09:30:00Z","category":"work","recurring_pattern":"weekly"}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	HandleEvents(svc).ServeHTTP(rec, withUser(req, "user-1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if svc.gotCreate.Pattern != domain.PatternWeekly || !svc.gotCreate.Start.Equal(start) {
		t.Fatalf("unexpected create input %+v", svc.gotCreate)
	}

	var resp definitionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "E1" || resp.RecurringPattern != "weekly" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleEvents_CreateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed body", body: `{"title":`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequestBody},
		{name: "unknown field", body: `{"title":"x","when":"now"}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidRequestBody},
		{name: "bad start", body: `{"title":"x","start_time":"9am"}`, wantStatus: http.StatusBadRequest, wantCode: codeInvalidTime},
		{
			name:       "title required",
			body:       `{"title":" "}`,
			svcErr:     &domain.ValidationError{Field: "title", Err: domain.ErrTitleRequired},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeTitleRequired,
		},
		{
			name:       "unknown pattern",
			body:       `{"title":"x","recurring_pattern":"biweekly"}`,
			svcErr:     &domain.ValidationError{Field: "recurring_pattern", Err: domain.ErrUnknownPattern},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeUnknownPattern,
		},
		{
			name:       "store failure",
			body:       `{"title":"x"}`,
			svcErr:     &domain.StoreError{Op: domain.OpInsert, Table: domain.TableSchedules, Err: errors.New("conn reset")},
			wantStatus: http.StatusBadGateway,
			wantCode:   codeStoreError,
		},
		{
			name:       "unexpected",
			body:       `{"title":"x"}`,
			svcErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   codeInternalError,
		},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			HandleEvents(&stubEventService{err: tt.svcErr}).ServeHTTP(rec, withUser(req, "user-1"))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestHandleEvent_Patch(t *testing.T) {
	t.Parallel()

	svc := &stubEventService{edited: []domain.EventDefinition{{ID: "X1", Title: "Moved"}}}
	body := `{"title":"Moved","start_time":"2024-01-08T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPatch, "/events/E1_1704704400000?scope=single", strings.NewReader(body))
	rec := httptest.NewRecorder()
	HandleEvent(svc).ServeHTTP(rec, withUser(req, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	got := svc.gotEdit
	if got.UserID != "user-1" || got.OccurrenceID != "E1_1704704400000" || got.Scope != domain.ScopeSingle {
		t.Fatalf("unexpected edit input %+v", got)
	}
	if title, ok := got.Patch.Title.Get(); !ok || title != "Moved" {
		t.Fatalf("expected title patch, got %+v", got.Patch.Title)
	}
	if got.Patch.Description.IsPresent() || got.Patch.End.IsPresent() || got.Patch.Pattern.IsPresent() {
		t.Fatalf("absent fields must stay absent: %+v", got.Patch)
	}
	if start, ok := got.Patch.Start.Get(); !ok || !start.Equal(time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start patch %+v", got.Patch.Start)
	}
}

func TestHandleEvent_Delete(t *testing.T) {
	t.Parallel()

	svc := &stubEventService{}
	req := httptest.NewRequest(http.MethodDelete, "/events/E1", nil)
	rec := httptest.NewRecorder()
	HandleEvent(svc).ServeHTTP(rec, withUser(req, "user-1"))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if svc.gotDelete.OccurrenceID != "E1" || svc.gotDelete.Scope != "" {
		t.Fatalf("unexpected delete input %+v", svc.gotDelete)
	}
}

func TestHandleEvent_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		method     string
		path       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "nested path", method: http.MethodDelete, path: "/events/E1/extra", wantStatus: http.StatusNotFound, wantCode: codeNotFound},
		{name: "empty id", method: http.MethodDelete, path: "/events/", wantStatus: http.StatusNotFound, wantCode: codeNotFound},
		{name: "method", method: http.MethodPut, path: "/events/E1", wantStatus: http.StatusMethodNotAllowed, wantCode: codeMethodNotAllowed},
		{name: "not found", method: http.MethodDelete, path: "/events/E1", svcErr: domain.ErrEventNotFound, wantStatus: http.StatusNotFound, wantCode: codeEventNotFound},
		{name: "scope", method: http.MethodDelete, path: "/events/E1?scope=future", svcErr: domain.ErrUnknownScope, wantStatus: http.StatusBadRequest, wantCode: codeUnknownScope},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			HandleEvent(&stubEventService{err: tt.svcErr}).ServeHTTP(rec, withUser(req, "user-1"))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestHandleEvent_PatchRejectsEmptyTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty start", body: `{"start_time":""}`},
		{name: "empty end", body: `{"title":"Moved","end_time":""}`},
		{name: "malformed start", body: `{"start_time":"tomorrow"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubEventService{}
			req := httptest.NewRequest(http.MethodPatch, "/events/E1", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			HandleEvent(svc).ServeHTTP(rec, withUser(req, "user-1"))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Code != codeInvalidTime {
				t.Fatalf("expected code %s, got %s", codeInvalidTime, resp.Code)
			}
			if svc.gotEdit.OccurrenceID != "" {
				t.Fatalf("edit must not reach the service, got %+v", svc.gotEdit)
			}
		})
	}
}
