package search

import (
	"errors"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
)

// StatusKind names a Status variant.
type StatusKind string

const (
	StatusIdle    StatusKind = "idle"
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusFailed  StatusKind = "failed"
)

// Status is exactly one of Idle, Loading, Success or Failed.
type Status interface {
	Kind() StatusKind
	isStatus()
}

// Idle is the status before the first query.
type Idle struct{}

// Loading is the status while the latest query is in flight.
type Loading struct{}

// Success carries the results of the latest query. Zero results is still a success.
type Success struct {
	Results []catalog.HotelSummary
}

// Failed carries a human-readable message and the underlying cause.
type Failed struct {
	Message string
	Err     error
}

func (Idle) Kind() StatusKind    { return StatusIdle }
func (Loading) Kind() StatusKind { return StatusLoading }
func (Success) Kind() StatusKind { return StatusSuccess }
func (Failed) Kind() StatusKind  { return StatusFailed }

func (Idle) isStatus()    {}
func (Loading) isStatus() {}
func (Success) isStatus() {}
func (Failed) isStatus()  {}

const (
	// EmptyMessage is shown for a successful query with no results.
	EmptyMessage = "No hotels match your search."

	networkFailureMessage = "Could not reach the hotel catalog. Please try again."
	fetchFailureMessage   = "Failed to fetch hotels"
)

func failureMessage(err error) string {
	if errors.Is(err, catalog.ErrNetwork) {
		return networkFailureMessage
	}
	return fetchFailureMessage
}

// ViewKind names a View variant.
type ViewKind string

const (
	ViewIdle    ViewKind = "idle"
	ViewLoading ViewKind = "loading"
	ViewError   ViewKind = "error"
	ViewEmpty   ViewKind = "empty"
	ViewResults ViewKind = "results"
)

// View is the display-ready projection of a Status.
type View struct {
	Kind    ViewKind               `json:"kind"`
	Message string                 `json:"message,omitempty"`
	Items   []catalog.HotelSummary `json:"items,omitempty"`
}

// Project maps a Status onto a View.
func Project(s Status) View {
	switch s := s.(type) {
	case Loading:
		return View{Kind: ViewLoading}
	case Failed:
		msg := s.Message
		if msg == "" || msg == EmptyMessage {
			msg = fetchFailureMessage
		}
		return View{Kind: ViewError, Message: msg}
	case Success:
		if len(s.Results) == 0 {
			return View{Kind: ViewEmpty, Message: EmptyMessage}
		}
		return View{Kind: ViewResults, Items: s.Results}
	default:
		return View{Kind: ViewIdle}
	}
}
