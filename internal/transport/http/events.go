package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/sikong32/mytodo/internal/app"
	"github.com/sikong32/mytodo/internal/auth"
	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/reconcile"
)

// EventService is the minimal interface needed for the event endpoints.
type EventService interface {
	ListOccurrences(ctx context.Context, userID string, w domain.Window) ([]domain.Occurrence, error)
	CreateEvent(ctx context.Context, userID string, in reconcile.CreateInput) (domain.EventDefinition, error)
	EditOccurrence(ctx context.Context, in app.EditInput) ([]domain.EventDefinition, error)
	DeleteOccurrence(ctx context.Context, in app.DeleteInput) error
}

const maxBodyBytes = 1 << 20

// HandleEvents serves GET /events (expanded occurrences) and POST /events.
func HandleEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		switch r.Method {
		case http.MethodGet:
			window, ok := parseWindow(w, r)
			if !ok {
				return
			}
			occs, err := svc.ListOccurrences(r.Context(), userID, window)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := make([]occurrenceResponse, 0, len(occs))
			for _, occ := range occs {
				resp = append(resp, toOccurrenceResponse(occ))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req createEventRequest
			if !decodeBody(w, r, &req) {
				return
			}
			in, ok := req.toInput(w)
			if !ok {
				return
			}
			def, err := svc.CreateEvent(r.Context(), userID, in)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toDefinitionResponse(def))
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}
}

// HandleEvent serves PATCH and DELETE /events/{occurrenceId}?scope=single|all.
func HandleEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		occurrenceID, ok := parseEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		userID := auth.UserID(r.Context())
		scope := domain.Scope(r.URL.Query().Get("scope"))

		switch r.Method {
		case http.MethodPatch:
			var req patchEventRequest
			if !decodeBody(w, r, &req) {
				return
			}
			patch, ok := req.toPatch(w)
			if !ok {
				return
			}
			rows, err := svc.EditOccurrence(r.Context(), app.EditInput{
				UserID:       userID,
				OccurrenceID: occurrenceID,
				Patch:        patch,
				Scope:        scope,
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := make([]definitionResponse, 0, len(rows))
			for _, row := range rows {
				resp = append(resp, toDefinitionResponse(row))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodDelete:
			err := svc.DeleteOccurrence(r.Context(), app.DeleteInput{
				UserID:       userID,
				OccurrenceID: occurrenceID,
				Scope:        scope,
			})
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, http.MethodPatch, http.MethodDelete)
		}
	}
}

func parseEventPath(path string) (string, bool) {
	id, ok := strings.CutPrefix(path, "/events/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func parseWindow(w http.ResponseWriter, r *http.Request) (domain.Window, bool) {
	var window domain.Window
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &window.From}, {"to", &window.To}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid "+p.name+" format")
			return domain.Window{}, false
		}
		*p.dst = t.UTC()
	}
	if !window.From.IsZero() && !window.To.IsZero() && !window.To.After(window.From) {
		writeError(w, http.StatusBadRequest, codeInvalidTimeRange, "to must be after from")
		return domain.Window{}, false
	}
	return window, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type createEventRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Category         string `json:"category"`
	Color            string `json:"color"`
	RecurringPattern string `json:"recurring_pattern"`
}

func (req createEventRequest) toInput(w http.ResponseWriter) (reconcile.CreateInput, bool) {
	in := reconcile.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.Category(req.Category),
		Color:       req.Color,
		Pattern:     domain.Pattern(req.RecurringPattern),
	}
	var ok bool
	if in.Start, ok = parseOptionalTime(w, "start_time", req.StartTime); !ok {
		return reconcile.CreateInput{}, false
	}
	if in.End, ok = parseOptionalTime(w, "end_time", req.EndTime); !ok {
		return reconcile.CreateInput{}, false
	}
	return in, true
}

// patchEventRequest uses pointers so absent fields stay unchanged.
type patchEventRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	StartTime        *string `json:"start_time"`
	EndTime          *string `json:"end_time"`
	Category         *string `json:"category"`
	Color            *string `json:"color"`
	RecurringPattern *string `json:"recurring_pattern"`
}

func (req patchEventRequest) toPatch(w http.ResponseWriter) (reconcile.EventPatch, bool) {
	patch := reconcile.EventPatch{
		Title:       mo.PointerToOption(req.Title),
		Description: mo.PointerToOption(req.Description),
		Color:       mo.PointerToOption(req.Color),
	}
	if req.Category != nil {
		patch.Category = mo.Some(domain.Category(*req.Category))
	}
	if req.RecurringPattern != nil {
		patch.Pattern = mo.Some(domain.Pattern(*req.RecurringPattern))
	}
	var ok bool
	if patch.Start, ok = parsePatchTime(w, "start_time", req.StartTime); !ok {
		return reconcile.EventPatch{}, false
	}
	if patch.End, ok = parsePatchTime(w, "end_time", req.EndTime); !ok {
		return reconcile.EventPatch{}, false
	}
	return patch, true
}

// parsePatchTime rejects an empty string: a patch either omits a time or
// sets a real one.
func parsePatchTime(w http.ResponseWriter, field string, raw *string) (mo.Option[time.Time], bool) {
	if raw == nil {
		return mo.None[time.Time](), true
	}
	if *raw == "" {
		writeError(w, http.StatusBadRequest, codeInvalidTime, field+" must not be empty")
		return mo.None[time.Time](), false
	}
	t, ok := parseOptionalTime(w, field, *raw)
	if !ok {
		return mo.None[time.Time](), false
	}
	return mo.Some(t), true
}

func parseOptionalTime(w http.ResponseWriter, field, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidTime, "invalid "+field+" format")
		return time.Time{}, false
	}
	return t.UTC(), true
}

type occurrenceResponse struct {
	ID                  string    `json:"id"`
	DefinitionID        string    `json:"definition_id,omitempty"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Category            string    `json:"category"`
	Color               string    `json:"color"`
	IsRecurringInstance bool      `json:"is_recurring_instance"`
	RecurringPattern    string    `json:"recurring_pattern,omitempty"`
	ExceptionOf         string    `json:"exception_of,omitempty"`
	ReadOnly            bool      `json:"read_only,omitempty"`
	AllDay              bool      `json:"all_day,omitempty"`
}

func toOccurrenceResponse(occ domain.Occurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:                  occ.ID,
		DefinitionID:        occ.DefinitionID,
		Title:               occ.Title,
		Description:         occ.Description,
		StartTime:           occ.Start,
		EndTime:             occ.End,
		Category:            string(occ.Category),
		Color:               occ.Color,
		IsRecurringInstance: occ.IsRecurringInstance,
		RecurringPattern:    string(occ.RecurringPattern),
		ExceptionOf:         occ.ExceptionOf,
		ReadOnly:            occ.ReadOnly,
		AllDay:              occ.AllDay,
	}
}

type definitionResponse struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	Category         string     `json:"category"`
	Color            string     `json:"color"`
	IsRecurring      bool       `json:"is_recurring"`
	RecurringPattern string     `json:"recurring_pattern"`
	SeriesID         string     `json:"series_id,omitempty"`
	ExceptionDate    *time.Time `json:"exception_date,omitempty"`
	Cancelled        bool       `json:"cancelled,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toDefinitionResponse(def domain.EventDefinition) definitionResponse {
	return definitionResponse{
		ID:               def.ID,
		Title:            def.Title,
		Description:      def.Description,
		StartTime:        def.StartTime,
		EndTime:          def.EndTime,
		Category:         string(def.Category),
		Color:            def.Color,
		IsRecurring:      def.IsRecurring,
		RecurringPattern: string(def.RecurringPattern),
		SeriesID:         def.SeriesID,
		ExceptionDate:    def.ExceptionDate,
		Cancelled:        def.Cancelled,
		CreatedAt:        def.CreatedAt,
	}
}
