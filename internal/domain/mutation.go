package domain

type Table string

const TableSchedules Table = "schedules"

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpQuery  Op = "query"
)

// Mutation is one row-store call. Row is nil for deletes; for updates it
// carries the full replacement values of the row identified by ID.
type Mutation struct {
	Op    Op
	Table Table
	ID    string
	Row   *EventDefinition
}

// MutationPlan is applied strictly in order.
type MutationPlan []Mutation

type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeAll    Scope = "all"
)

func (s Scope) Valid() bool {
	return s == ScopeSingle || s == ScopeAll
}
