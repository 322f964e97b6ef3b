package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/sikong32/mytodo/internal/auth"
	"github.com/sikong32/mytodo/internal/domain"
)

// FeedService is the minimal interface needed for the calendar feed.
type FeedService interface {
	ExportICS(ctx context.Context, userID string, w io.Writer) error
	ImportICS(ctx context.Context, userID string, r io.Reader) ([]domain.EventDefinition, error)
}

const maxCalendarBytes = 4 << 20

// HandleCalendarFeed serves GET /calendar.ics (export) and POST
// /calendar.ics (import).
func HandleCalendarFeed(svc FeedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		switch r.Method {
		case http.MethodGet:
			var buf bytes.Buffer
			if err := svc.ExportICS(r.Context(), userID, &buf); err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(buf.Bytes())
		case http.MethodPost:
			rows, err := svc.ImportICS(r.Context(), userID, io.LimitReader(r.Body, maxCalendarBytes))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			resp := make([]definitionResponse, 0, len(rows))
			for _, row := range rows {
				resp = append(resp, toDefinitionResponse(row))
			}
			writeJSON(w, http.StatusCreated, resp)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}
}
