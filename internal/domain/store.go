package domain

// Filter narrows a row query. Empty fields match everything; UserID should
// always be set by callers outside tests.
type Filter struct {
	UserID   string
	ID       string
	SeriesID string
}

// Matches reports whether def satisfies every non-empty field of f.
func (f Filter) Matches(def EventDefinition) bool {
	if f.UserID != "" && def.UserID != f.UserID {
		return false
	}
	if f.ID != "" && def.ID != f.ID {
		return false
	}
	if f.SeriesID != "" && def.SeriesID != f.SeriesID {
		return false
	}
	return true
}

type OrderField string

const (
	OrderStartTime OrderField = "start_time"
	OrderCreatedAt OrderField = "created_at"
)

type Order struct {
	Field OrderField
	Desc  bool
}

// OrderByStart sorts rows chronologically.
var OrderByStart = Order{Field: OrderStartTime}
