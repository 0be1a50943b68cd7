package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
)

// Mode names the active search variant.
type Mode string

const (
	ModeFreeText     Mode = "free_text"
	ModeAvailability Mode = "availability"
)

// ParseMode parses a Mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFreeText, ModeAvailability:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown search mode %q", s)
}

// Query is either FreeText or Availability.
type Query interface {
	Mode() Mode
	isQuery()
}

// FreeText matches hotels by a single term. An empty term lists everything.
type FreeText struct {
	Term string
}

// Availability matches hotels with open inventory in a city for a stay.
type Availability struct {
	City     string
	CheckIn  catalog.Date
	CheckOut catalog.Date
}

func (FreeText) Mode() Mode     { return ModeFreeText }
func (Availability) Mode() Mode { return ModeAvailability }

func (FreeText) isQuery()     {}
func (Availability) isQuery() {}

var (
	// ErrNotSubmittable is returned when a submission is refused locally.
	ErrNotSubmittable = errors.New("query not submittable")

	// ErrWrongMode is returned when editing a field the active variant does not have.
	ErrWrongMode = errors.New("field not available in current search mode")
)

// ValidationError lists why a query cannot be submitted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "query not submittable: " + strings.Join(e.Problems, ", ")
}

// Unwrap makes every ValidationError match ErrNotSubmittable.
func (e *ValidationError) Unwrap() error {
	return ErrNotSubmittable
}

// Validate checks the availability rules against today's date.
func (q Availability) Validate(today catalog.Date) error {
	var problems []string

	if strings.TrimSpace(q.City) == "" {
		problems = append(problems, "city is required")
	}

	switch {
	case q.CheckIn.IsZero():
		problems = append(problems, "check-in date is required")
	case q.CheckIn.Before(today):
		problems = append(problems, "check-in date must not be in the past")
	}

	switch {
	case q.CheckOut.IsZero():
		problems = append(problems, "check-out date is required")
	case !q.CheckIn.IsZero() && !q.CheckOut.After(q.CheckIn):
		problems = append(problems, "check-out date must be after check-in date")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Validate returns the reason q cannot be submitted, or nil.
func Validate(q Query, today catalog.Date) error {
	switch q := q.(type) {
	case FreeText:
		return nil
	case Availability:
		return q.Validate(today)
	default:
		return &ValidationError{Problems: []string{"no query"}}
	}
}

// QueryModel holds the single active Query and applies edits to it.
// It never touches status and never calls the network.
type QueryModel struct {
	query Query
}

// NewQueryModel starts in free-text mode with term.
func NewQueryModel(term string) *QueryModel {
	return &QueryModel{query: FreeText{Term: term}}
}

// Query returns a copy of the active query.
func (m *QueryModel) Query() Query {
	return m.query
}

// Mode returns the active mode.
func (m *QueryModel) Mode() Mode {
	return m.query.Mode()
}

// SwitchToFreeText activates free-text mode with an empty term.
// It reports false and keeps the fields when free-text mode is already active.
func (m *QueryModel) SwitchToFreeText() bool {
	if _, ok := m.query.(FreeText); ok {
		return false
	}
	m.query = FreeText{}
	return true
}

// SwitchToAvailability activates availability mode with empty fields.
// It reports false and keeps the fields when availability mode is already active.
func (m *QueryModel) SwitchToAvailability() bool {
	if _, ok := m.query.(Availability); ok {
		return false
	}
	m.query = Availability{}
	return true
}

// SetTerm sets the free-text term.
func (m *QueryModel) SetTerm(term string) error {
	q, ok := m.query.(FreeText)
	if !ok {
		return fmt.Errorf("%w: term", ErrWrongMode)
	}
	q.Term = term
	m.query = q
	return nil
}

// SetCity sets the availability city.
func (m *QueryModel) SetCity(city string) error {
	return m.editAvailability("city", func(q *Availability) { q.City = city })
}

// SetCheckIn sets the availability check-in date.
func (m *QueryModel) SetCheckIn(d catalog.Date) error {
	return m.editAvailability("checkIn", func(q *Availability) { q.CheckIn = d })
}

// SetCheckOut sets the availability check-out date.
func (m *QueryModel) SetCheckOut(d catalog.Date) error {
	return m.editAvailability("checkOut", func(q *Availability) { q.CheckOut = d })
}

// IsSubmittable reports whether the active query passes validation.
func (m *QueryModel) IsSubmittable(today catalog.Date) bool {
	return Validate(m.query, today) == nil
}

func (m *QueryModel) editAvailability(field string, edit func(*Availability)) error {
	q, ok := m.query.(Availability)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWrongMode, field)
	}
	edit(&q)
	m.query = q
	return nil
}
