package main

import (
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
)

// hotel is a catalog record in wire form.
type hotel struct {
	HotelID      int64    `json:"hotelId"`
	HotelName    string   `json:"hotelName"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Ratings      *float64 `json:"ratings,omitempty"`
	WiFi         bool     `json:"wifi"`
	Breakfast    bool     `json:"breakfast"`
	SwimmingPool bool     `json:"swimmingPool"`
	Gym          bool     `json:"gym"`
	Bar          bool     `json:"bar"`
}

// booking is a period during which a hotel is full. End is exclusive.
type booking struct {
	hotelID    int64
	start, end catalog.Date
}

func rating(r float64) *float64 { return &r }

var fixtureHotels = []hotel{
	{HotelID: 1, HotelName: "Grand Hotel", City: "Paris", State: "Ile-de-France", Ratings: rating(4.5), WiFi: true, Breakfast: true, Bar: true},
	{HotelID: 2, HotelName: "Grand Lyon Palace", City: "Lyon", State: "Auvergne-Rhone-Alpes", Ratings: rating(4.1), WiFi: true, SwimmingPool: true, Gym: true},
	{HotelID: 3, HotelName: "City Center Inn", City: "Paris", State: "Ile-de-France", Ratings: rating(3.4), WiFi: true},
	{HotelID: 4, HotelName: "Budget Stay", City: "Marseille", State: "Provence-Alpes-Cote d'Azur", Breakfast: true},
	{HotelID: 5, HotelName: "Luxury Palace", City: "Nice", State: "Provence-Alpes-Cote d'Azur", Ratings: rating(4.9), WiFi: true, Breakfast: true, SwimmingPool: true, Gym: true, Bar: true},
	{HotelID: 6, HotelName: "Harbour View", City: "Marseille", State: "Provence-Alpes-Cote d'Azur", Ratings: rating(3.9), WiFi: true, Bar: true},
	{HotelID: 7, HotelName: "Old Town Lodge", City: "Lyon", State: "Auvergne-Rhone-Alpes", Ratings: rating(2.8)},
}

// Paris is fully booked for the first days of June.
var fixtureBookings = []booking{
	{hotelID: 1, start: catalog.NewDate(2025, time.June, 1), end: catalog.NewDate(2025, time.June, 5)},
	{hotelID: 3, start: catalog.NewDate(2025, time.May, 28), end: catalog.NewDate(2025, time.June, 4)},
	{hotelID: 5, start: catalog.NewDate(2025, time.July, 10), end: catalog.NewDate(2025, time.July, 20)},
}

// overlaps reports whether the stay [checkIn, checkOut) intersects the booking.
func (b booking) overlaps(checkIn, checkOut catalog.Date) bool {
	return checkIn.Before(b.end) && b.start.Before(checkOut)
}
