package recurrence

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"

	"github.com/sikong32/mytodo/internal/domain"
)

func definition(pattern domain.Pattern, start time.Time, d time.Duration) domain.EventDefinition {
	return domain.EventDefinition{
		ID:               "E1",
		UserID:           "u1",
		Title:            "Standup",
		StartTime:        start,
		EndTime:          start.Add(d),
		Category:         domain.CategoryWork,
		Color:            "#6c757d",
		IsRecurring:      pattern.Repeats(),
		RecurringPattern: pattern,
	}
}

func TestExpand_NonRecurringIsIdentity(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	def := definition(domain.PatternNone, start, time.Hour)

	occs, err := NewExpander().Expand(def)
	require.NoError(t, err)
	require.Len(t, occs, 1)

	occ := occs[0]
	assert.Equal(t, "E1", occ.ID)
	assert.Equal(t, "E1", occ.DefinitionID)
	assert.True(t, occ.Start.Equal(def.StartTime))
	assert.True(t, occ.End.Equal(def.EndTime))
	assert.False(t, occ.IsRecurringInstance)
}

func TestExpand_RecurringFlagWithoutPattern(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	def := definition(domain.PatternNone, start, time.Hour)
	def.IsRecurring = true

	occs, err := NewExpander().Expand(def)
	require.NoError(t, err)
	assert.Len(t, occs, 1)
}

func TestExpand_StepsAndHorizon(t *testing.T) {
	start := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		pattern domain.Pattern
		years   int
		step    func(time.Time) time.Time
	}{
		{domain.PatternDaily, 2, func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
		{domain.PatternWeekly, 2, func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }},
		{domain.PatternMonthly, 5, func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
		{domain.PatternYearly, 10, func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern), func(t *testing.T) {
			def := definition(tt.pattern, start, 45*time.Minute)
			occs, err := NewExpander().Expand(def)
			require.NoError(t, err)
			require.NotEmpty(t, occs)

			cutoff := start.AddDate(tt.years, 0, 0)
			assert.True(t, occs[0].Start.Equal(start))
			for i, occ := range occs {
				assert.False(t, occ.Start.After(cutoff), "occurrence %d beyond horizon", i)
				assert.Equal(t, 45*time.Minute, occ.End.Sub(occ.Start))
				assert.Equal(t, OccurrenceID("E1", occ.Start), occ.ID)
				assert.True(t, occ.IsRecurringInstance)
				if i > 0 {
					assert.True(t, tt.step(occs[i-1].Start).Equal(occ.Start), "step %d", i)
				}
			}
			last := occs[len(occs)-1]
			assert.True(t, tt.step(last.Start).After(cutoff))
		})
	}
}

func TestExpand_CutoffIsInclusive(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	occs, err := NewExpander().Expand(definition(domain.PatternYearly, start, time.Hour))
	require.NoError(t, err)

	require.Len(t, occs, 11)
	assert.True(t, occs[10].Start.Equal(time.Date(2034, 3, 1, 8, 0, 0, 0, time.UTC)))
}

func TestExpand_DailyCount(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	occs, err := NewExpander().Expand(definition(domain.PatternDaily, start, time.Hour))
	require.NoError(t, err)

	// 2024 is a leap year: 366 + 365 days, plus the start itself.
	assert.Len(t, occs, 732)
}

func TestExpand_MonthlyFromMonthEnd(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	occs, err := NewExpander().Expand(definition(domain.PatternMonthly, start, time.Hour))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(occs), 3)
	assert.Equal(t, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), occs[1].Start)
	assert.Equal(t, time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC), occs[2].Start)
	assert.Equal(t, "E1_1709370000000", occs[1].ID)
}

func TestExpand_YearlyFromLeapDay(t *testing.T) {
	start := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	occs, err := NewExpander().Expand(definition(domain.PatternYearly, start, time.Hour))
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(occs), 3)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), occs[1].Start)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), occs[2].Start)
}

func TestExpand_Golden(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	exp := NewExpander(WithHorizons(HorizonPolicy{domain.PatternMonthly: 1}))

	occs, err := exp.Expand(definition(domain.PatternMonthly, start, time.Hour))
	require.NoError(t, err)

	var buf bytes.Buffer
	for _, occ := range occs {
		fmt.Fprintf(&buf, "%s %s %s\n", occ.ID, occ.Start.Format(time.RFC3339), occ.End.Format(time.RFC3339))
	}
	g := goldie.New(t)
	g.Assert(t, "monthly_month_end", buf.Bytes())
}

func TestExpand_IsRestartable(t *testing.T) {
	start := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	def := definition(domain.PatternWeekly, start, 2*time.Hour)
	exp := NewExpander()

	first, err := exp.Expand(def)
	require.NoError(t, err)
	second, err := exp.Expand(def)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExpand_UnknownPatternDegrades(t *testing.T) {
	start := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	def := definition("fortnightly", start, time.Hour)
	def.IsRecurring = true

	occs, err := NewExpander().Expand(def)
	require.ErrorIs(t, err, domain.ErrUnknownPattern)
	require.Len(t, occs, 1)
	assert.Equal(t, "E1", occs[0].ID)
	assert.True(t, occs[0].Start.Equal(start))
}

func TestExpand_NonPositiveDurationPassesThrough(t *testing.T) {
	start := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	def := definition(domain.PatternDaily, start, -time.Hour)

	occs, err := NewExpander().Expand(def)
	require.NoError(t, err)
	for _, occ := range occs {
		assert.Equal(t, -time.Hour, occ.End.Sub(occ.Start))
	}
}

func TestExpand_LocationKeepsWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 09:00 EST, one day before the 2024-03-10 DST switch.
	start := time.Date(2024, 3, 9, 9, 0, 0, 0, loc)
	exp := NewExpander(WithLocation(loc))

	occs, err := exp.Expand(definition(domain.PatternDaily, start, time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 9, occs[1].Start.In(loc).Hour())
	assert.Equal(t, 23*time.Hour, occs[1].Start.Sub(occs[0].Start))
}

func TestExpand_MatchesRRuleForWeekly(t *testing.T) {
	start := time.Date(2024, 2, 5, 7, 0, 0, 0, time.UTC)
	def := definition(domain.PatternWeekly, start, time.Hour)
	exp := NewExpander()

	occs, err := exp.Expand(def)
	require.NoError(t, err)

	opt, ok := exp.RuleOption(def)
	require.True(t, ok)
	rule, err := rrule.NewRRule(*opt)
	require.NoError(t, err)
	want := rule.All()

	require.Len(t, occs, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(occs[i].Start), "occurrence %d", i)
	}
}
