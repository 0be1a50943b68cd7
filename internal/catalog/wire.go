package catalog

import (
	"fmt"
	"strings"
)

// wireHotel is a hotel record as the catalog serves it.
// Pointer fields distinguish absent values from zero values.
type wireHotel struct {
	HotelID      *int64   `json:"hotelId"`
	HotelName    *string  `json:"hotelName"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Ratings      *float64 `json:"ratings"`
	WiFi         bool     `json:"wifi"`
	Breakfast    bool     `json:"breakfast"`
	SwimmingPool bool     `json:"swimmingPool"`
	Gym          bool     `json:"gym"`
	Bar          bool     `json:"bar"`
}

// toSummary validates a wire record and converts it.
func (w wireHotel) toSummary() (HotelSummary, error) {
	if w.HotelID == nil {
		return HotelSummary{}, fmt.Errorf("%w: hotel record without hotelId", ErrServer)
	}

	var name string
	if w.HotelName != nil {
		name = strings.TrimSpace(*w.HotelName)
	}
	if name == "" {
		return HotelSummary{}, fmt.Errorf("%w: hotel %d without hotelName", ErrServer, *w.HotelID)
	}

	var rating *float64
	if w.Ratings != nil {
		r := *w.Ratings
		if r < 0 || r > 5 {
			return HotelSummary{}, fmt.Errorf("%w: hotel %d rating %v out of range", ErrServer, *w.HotelID, r)
		}
		rating = &r
	}

	return HotelSummary{
		ID:     *w.HotelID,
		Name:   name,
		City:   strings.TrimSpace(w.City),
		State:  strings.TrimSpace(w.State),
		Rating: rating,
		Amenities: Amenities{
			WiFi:      w.WiFi,
			Breakfast: w.Breakfast,
			Pool:      w.SwimmingPool,
			Gym:       w.Gym,
			Bar:       w.Bar,
		},
	}, nil
}

// decodeHotels converts a response list, rejecting the whole list when any record is malformed.
func decodeHotels(records []wireHotel) ([]HotelSummary, error) {
	hotels := make([]HotelSummary, 0, len(records))
	seen := make(map[int64]struct{}, len(records))

	for _, rec := range records {
		h, err := rec.toSummary()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[h.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate hotelId %d", ErrServer, h.ID)
		}
		seen[h.ID] = struct{}{}
		hotels = append(hotels, h)
	}

	return hotels, nil
}

// decodeCities trims names and drops blanks and duplicates, keeping first-seen order.
func decodeCities(raw []string) []string {
	cities := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cities = append(cities, c)
	}

	return cities
}
