package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Client defines the read operations of the remote hotel catalog.
type Client interface {
	// SearchByTerm returns hotels matching a free-text term. An empty term lists everything.
	SearchByTerm(ctx context.Context, term string) ([]HotelSummary, error)

	// ListCities returns the cities the catalog has hotels in.
	ListCities(ctx context.Context) ([]string, error)

	// FindAvailable returns hotels in city with open inventory for the stay.
	// An empty result means no inventory matches and is not an error.
	FindAvailable(ctx context.Context, city string, checkIn, checkOut Date) ([]HotelSummary, error)

	// HotelsByCity returns every hotel in city regardless of inventory.
	HotelsByCity(ctx context.Context, city string) ([]HotelSummary, error)

	// HotelByID returns a single hotel.
	HotelByID(ctx context.Context, id int64) (HotelSummary, error)
}

// HotelSummary is an immutable snapshot of a catalog hotel record.
type HotelSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Rating    *float64  `json:"rating,omitempty"`
	Amenities Amenities `json:"amenities"`
}

// DisplayRating returns the rating, or 0 when the catalog has none.
func (h HotelSummary) DisplayRating() float64 {
	if h.Rating == nil {
		return 0
	}
	return *h.Rating
}

// Amenities holds the amenity flags of a hotel.
type Amenities struct {
	WiFi      bool `json:"wifi"`
	Breakfast bool `json:"breakfast"`
	Pool      bool `json:"pool"`
	Gym       bool `json:"gym"`
	Bar       bool `json:"bar"`
}

// Labels returns display labels for the set flags in a fixed order.
func (a Amenities) Labels() []string {
	labels := make([]string, 0, 5)
	if a.WiFi {
		labels = append(labels, "WiFi")
	}
	if a.Breakfast {
		labels = append(labels, "Breakfast")
	}
	if a.Pool {
		labels = append(labels, "Pool")
	}
	if a.Gym {
		labels = append(labels, "Gym")
	}
	if a.Bar {
		labels = append(labels, "Bar")
	}
	return labels
}

var (
	// ErrNetwork is returned when the catalog cannot be reached or the call times out.
	ErrNetwork = errors.New("catalog unreachable")

	// ErrServer is returned when the catalog answers with a failure or a malformed payload.
	ErrServer = errors.New("catalog error")

	// ErrNotFound is returned when the requested hotel does not exist.
	ErrNotFound = fmt.Errorf("%w: hotel not found", ErrServer)
)

// StatusError reports a non-success HTTP status from the catalog.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("catalog returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Body)
}

// Unwrap makes every StatusError match ErrServer.
func (e *StatusError) Unwrap() error {
	return ErrServer
}
