package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sikong32/mytodo/internal/domain"
)

// HolidayService is the minimal interface needed for the holiday endpoint.
type HolidayService interface {
	Holidays(year int, prefs ...string) (string, []domain.Occurrence)
}

type holidaysResponse struct {
	Locale   string               `json:"locale"`
	Holidays []occurrenceResponse `json:"holidays"`
}

// HandleHolidays serves GET /holidays?year=&locale=. Without a locale the
// Accept-Language header is negotiated.
func HandleHolidays(svc HolidayService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		q := r.URL.Query()

		year := 0
		if raw := q.Get("year"); raw != "" {
			y, err := strconv.Atoi(raw)
			if err != nil || y < 1 || y > 9999 {
				writeError(w, http.StatusBadRequest, codeInvalidYear, "invalid year")
				return
			}
			year = y
		}

		locale, days := svc.Holidays(year, q.Get("locale"), r.Header.Get("Accept-Language"))
		resp := holidaysResponse{Locale: locale, Holidays: make([]occurrenceResponse, 0, len(days))}
		for _, d := range days {
			resp.Holidays = append(resp.Holidays, toOccurrenceResponse(d))
		}
		w.Header().Set("Cache-Control", "max-age="+strconv.Itoa(int((24 * time.Hour).Seconds())))
		writeJSON(w, http.StatusOK, resp)
	}
}
