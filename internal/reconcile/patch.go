package reconcile

import (
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/sikong32/mytodo/internal/domain"
)

// EventPatch holds the fields a user changed. Absent options keep the
// current value. Start and End are the new times of the targeted
// occurrence, not of the series.
type EventPatch struct {
	Title       mo.Option[string]
	Description mo.Option[string]
	Start       mo.Option[time.Time]
	End         mo.Option[time.Time]
	Color       mo.Option[string]
	Category    mo.Option[domain.Category]
	Pattern     mo.Option[domain.Pattern]
}

// CreateInput describes a new definition.
type CreateInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Category    domain.Category
	Color       string
	Pattern     domain.Pattern
}

// applyFields copies the non-time fields of patch onto def and resolves the
// colour: a category change without an explicit colour takes the palette
// colour of the new category.
func applyFields(def domain.EventDefinition, patch EventPatch, palette domain.Palette) domain.EventDefinition {
	if title, ok := patch.Title.Get(); ok {
		def.Title = title
	}
	if desc, ok := patch.Description.Get(); ok {
		def.Description = desc
	}
	if category, ok := patch.Category.Get(); ok {
		if category == "" {
			category = domain.CategoryDefault
		}
		if category != def.Category && patch.Color.IsAbsent() {
			def.Color = palette.ColorFor(category)
		}
		def.Category = category
	}
	if color, ok := patch.Color.Get(); ok {
		def.Color = color
	}
	if def.Color == "" {
		def.Color = palette.ColorFor(def.Category)
	}
	return def
}

func setPattern(def *domain.EventDefinition, p domain.Pattern) {
	if p == "" {
		p = domain.PatternNone
	}
	def.RecurringPattern = p
	def.IsRecurring = p != domain.PatternNone
}

// Validate checks a definition before it is written.
func Validate(def domain.EventDefinition) error {
	if strings.TrimSpace(def.Title) == "" {
		return &domain.ValidationError{Field: "title", Err: domain.ErrTitleRequired}
	}
	if !def.EndTime.After(def.StartTime) {
		return &domain.ValidationError{Field: "end_time", Err: domain.ErrInvalidTimeRange}
	}
	if !def.Category.Valid() {
		return &domain.ValidationError{Field: "category", Err: domain.ErrUnknownCategory}
	}
	if !def.RecurringPattern.Valid() {
		return &domain.ValidationError{Field: "recurring_pattern", Err: domain.ErrUnknownPattern}
	}
	return nil
}
