package app

import (
	"fmt"

	"github.com/sikong32/mytodo/internal/clock"
	"github.com/sikong32/mytodo/internal/domain"
	"github.com/sikong32/mytodo/internal/holiday"
)

// HolidayService serves public holidays as read-only background
// occurrences.
type HolidayService struct {
	clock         clock.Clock
	defaultLocale string
}

func NewHolidayService(clk clock.Clock, opts ...HolidayServiceOption) *HolidayService {
	svc := &HolidayService{
		clock:         clk,
		defaultLocale: holiday.Locales[0],
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HolidayServiceOption func(*HolidayService)

// WithDefaultLocale sets the locale used when a request names none.
func WithDefaultLocale(locale string) HolidayServiceOption {
	return func(s *HolidayService) {
		if locale != "" {
			s.defaultLocale = holiday.Match(locale)
		}
	}
}

// Holidays returns the holidays of year for the first matching locale in
// prefs. A zero year means the current year.
func (s *HolidayService) Holidays(year int, prefs ...string) (string, []domain.Occurrence) {
	if year == 0 {
		year = s.clock.Now().Year()
	}
	locale := s.defaultLocale
	for _, p := range prefs {
		if p != "" {
			locale = holiday.Match(p)
			break
		}
	}

	hs := holiday.For(year, locale)
	out := make([]domain.Occurrence, 0, len(hs))
	for i, h := range hs {
		out = append(out, domain.Occurrence{
			ID:       fmt.Sprintf("holiday-%s-%s-%d", locale, h.Start.Format("20060102"), i),
			Title:    h.Title,
			Start:    h.Start,
			End:      h.End,
			Category: domain.CategoryHoliday,
			Color:    h.Color,
			ReadOnly: true,
			AllDay:   h.AllDay,
		})
	}
	return locale, out
}
