package http

import (
	"net/http"

	"github.com/sikong32/mytodo/internal/auth"
)

// CalendarService covers everything the event and feed endpoints need.
type CalendarService interface {
	EventService
	FeedService
}

// RouterConfig wires the handlers behind NewRouter.
type RouterConfig struct {
	Calendar CalendarService
	Holidays HolidayService
	Auth     auth.Authenticator
	Health   HealthCheck
}

// NewRouter builds the API mux. Only /health is reachable without
// authentication.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", HandleHealth(cfg.Health))

	protect := func(h http.Handler) http.Handler {
		return RequireAuth(cfg.Auth, h)
	}
	mux.Handle("/events", protect(HandleEvents(cfg.Calendar)))
	mux.Handle("/events/", protect(HandleEvent(cfg.Calendar)))
	mux.Handle("/calendar.ics", protect(HandleCalendarFeed(cfg.Calendar)))
	mux.Handle("/holidays", protect(HandleHolidays(cfg.Holidays)))
	mux.Handle("/", NotFoundHandler())
	return mux
}
