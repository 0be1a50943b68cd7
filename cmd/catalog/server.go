package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
	"github.com/golang-jwt/jwt/v5"
)

var errCatalogUnavailable = errors.New("catalog unavailable")

// behavior is the latency and failure personality of the mock.
type behavior struct {
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64
}

var behaviors = map[string]behavior{
	"static": {},
	"flaky":  {minLatency: 50 * time.Millisecond, maxLatency: 300 * time.Millisecond, failureRate: 0.15},
	"slow":   {minLatency: 1500 * time.Millisecond, maxLatency: 4 * time.Second},
}

// server serves the catalog wire protocol from fixture data.
type server struct {
	behavior  behavior
	token     string
	jwtSecret []byte
	hotels   []hotel
	bookings []booking
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func newServer(b behavior, token string, logger *slog.Logger) *server {
	return &server{
		behavior: b,
		token:    token,
		hotels:   fixtureHotels,
		bookings: fixtureBookings,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /hotels/search", s.guard(s.searchByTerm))
	mux.HandleFunc("GET /hotels/cities", s.guard(s.listCities))
	mux.HandleFunc("GET /hotels/available", s.guard(s.findAvailable))
	mux.HandleFunc("GET /hotels/hotel/{id}", s.guard(s.hotelByID))
	mux.HandleFunc("GET /hotels/city/{city}", s.guard(s.hotelsByCity))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			s.logger.Error("failed to write healthz response", "error", err)
		}
	})
	return mux
}

// guard checks the bearer token and applies the configured latency and failures.
func (s *server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.authorize(r); err != nil {
			s.logger.Warn("rejected request", "path", r.URL.Path, "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := s.simulate(r.Context()); err != nil {
			s.logger.Warn("simulated failure", "path", r.URL.Path, "error", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

// authorize accepts an HS256 token signed with jwtSecret when one is set,
// otherwise the static token. With neither configured every request passes.
func (s *server) authorize(r *http.Request) error {
	if len(s.jwtSecret) == 0 && s.token == "" {
		return nil
	}
	bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || bearer == "" {
		return errors.New("missing bearer token")
	}

	if len(s.jwtSecret) == 0 {
		if bearer != s.token {
			return errors.New("invalid token")
		}
		return nil
	}

	_, err := jwt.Parse(bearer, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}

func (s *server) simulate(ctx context.Context) error {
	s.mu.Lock()
	latency := s.behavior.minLatency
	if spread := s.behavior.maxLatency - s.behavior.minLatency; spread > 0 {
		latency += time.Duration(s.rng.Int63n(int64(spread)))
	}
	fail := s.rng.Float64() < s.behavior.failureRate
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
	if fail {
		return errCatalogUnavailable
	}
	return nil
}

func (s *server) searchByTerm(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("searchTerm")))

	out := []hotel{}
	for _, h := range s.hotels {
		if term == "" ||
			strings.Contains(strings.ToLower(h.HotelName), term) ||
			strings.Contains(strings.ToLower(h.City), term) ||
			strings.Contains(strings.ToLower(h.State), term) {
			out = append(out, h)
		}
	}
	s.writeJSON(w, out)
}

func (s *server) listCities(w http.ResponseWriter, r *http.Request) {
	cities := make([]string, 0, len(s.hotels))
	for _, h := range s.hotels {
		cities = append(cities, h.City)
	}
	slices.Sort(cities)
	s.writeJSON(w, slices.Compact(cities))
}

func (s *server) findAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := strings.TrimSpace(q.Get("city"))
	if city == "" {
		http.Error(w, "city is required", http.StatusBadRequest)
		return
	}
	checkIn, err := catalog.ParseDate(q.Get("checkIn"))
	if err != nil {
		http.Error(w, "checkIn: "+err.Error(), http.StatusBadRequest)
		return
	}
	checkOut, err := catalog.ParseDate(q.Get("checkOut"))
	if err != nil {
		http.Error(w, "checkOut: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !checkOut.After(checkIn) {
		http.Error(w, "checkOut must be after checkIn", http.StatusBadRequest)
		return
	}

	out := []hotel{}
	for _, h := range s.hotels {
		if strings.EqualFold(h.City, city) && s.free(h.HotelID, checkIn, checkOut) {
			out = append(out, h)
		}
	}
	s.writeJSON(w, out)
}

func (s *server) free(hotelID int64, checkIn, checkOut catalog.Date) bool {
	for _, b := range s.bookings {
		if b.hotelID == hotelID && b.overlaps(checkIn, checkOut) {
			return false
		}
	}
	return true
}

func (s *server) hotelsByCity(w http.ResponseWriter, r *http.Request) {
	city := r.PathValue("city")

	out := []hotel{}
	for _, h := range s.hotels {
		if strings.EqualFold(h.City, city) {
			out = append(out, h)
		}
	}
	s.writeJSON(w, out)
}

func (s *server) hotelByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid hotel id", http.StatusBadRequest)
		return
	}
	i := slices.IndexFunc(s.hotels, func(h hotel) bool { return h.HotelID == id })
	if i < 0 {
		http.Error(w, fmt.Sprintf("hotel %d not found", id), http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.hotels[i])
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
