package handler

import (
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
	"github.com/alex-user-go/hotelsearch/internal/middleware"
	"github.com/alex-user-go/hotelsearch/internal/search"
	"github.com/alex-user-go/hotelsearch/internal/search/ratelimit"
	"github.com/alex-user-go/hotelsearch/internal/search/session"
)

// Handler serves the search session API.
type Handler struct {
	client      catalog.Client
	sessions    *session.Registry
	rateLimiter *ratelimit.Limiter
	controller  []search.Option
	logger      *slog.Logger
}

// New creates a new Handler. Every session controller is built with opts.
func New(
	client catalog.Client,
	sessions *session.Registry,
	rateLimiter *ratelimit.Limiter,
	logger *slog.Logger,
	opts ...search.Option,
) *Handler {
	return &Handler{
		client:      client,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		controller:  append([]search.Option{search.WithLogger(logger)}, opts...),
		logger:      logger,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.CreateSession)
	mux.HandleFunc("GET /sessions/{id}", h.GetSession)
	mux.HandleFunc("PATCH /sessions/{id}/query", h.UpdateQuery)
	mux.HandleFunc("POST /sessions/{id}/submit", h.Submit)
	mux.HandleFunc("POST /sessions/{id}/cities/refresh", h.RefreshCities)
	mux.HandleFunc("DELETE /sessions/{id}", h.DeleteSession)
	mux.HandleFunc("GET /hotels/{id}", h.GetHotel)
	mux.HandleFunc("GET /cities/{city}/hotels", h.HotelsByCity)
}

// CreateSession starts a session and runs the initial term search.
// The term comes from the JSON body or, failing that, the "search" query parameter.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	term := req.Term
	if term == "" {
		term = r.URL.Query().Get("search")
	}

	c := search.NewController(h.client, h.controller...)
	status := c.Initialize(r.Context(), term)
	id := h.sessions.Create(c)

	h.logger.Info("session created",
		"request_id", requestID,
		"session_id", id,
		"term", term,
		"status", status.Kind(),
	)
	h.respond(w, r, http.StatusCreated, id, c)
}

// GetSession returns the session document.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusOK, id, c)
}

// UpdateQuery applies a mode switch and then field edits to the active query.
// The edit is all or nothing.
func (h *Handler) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req UpdateQueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	edit, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = c.Edit(func(m *search.QueryModel) error {
		if err := edit.conflict(edit.targetMode(m.Mode())); err != nil {
			return err
		}
		return edit.apply(m)
	})
	if err != nil {
		h.logger.Debug("query edit rejected",
			"request_id", middleware.RequestID(r.Context()),
			"session_id", id,
			"error", err,
		)
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.respond(w, r, http.StatusOK, id, c)
}

// Submit runs the active query.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	// Local refusals never reach the catalog and do not spend quota.
	if !c.IsSubmittable() {
		h.logger.Debug("submission refused", "request_id", requestID, "session_id", id)
		h.respond(w, r, http.StatusUnprocessableEntity, id, c)
		return
	}

	ip := ExtractIP(r)
	if allowed, wait := h.rateLimiter.Allow(ip); !allowed {
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "session_id", id, "ip", ip)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	status, err := c.Submit(r.Context())
	if errors.Is(err, search.ErrNotSubmittable) {
		h.logger.Debug("submission refused", "request_id", requestID, "session_id", id, "error", err)
		h.respond(w, r, http.StatusUnprocessableEntity, id, c)
		return
	}

	h.logger.Info("query submitted",
		"request_id", requestID,
		"session_id", id,
		"mode", c.CurrentQuery().Mode(),
		"status", status.Kind(),
	)
	h.respond(w, r, http.StatusOK, id, c)
}

// RefreshCities retries the city enumeration.
func (h *Handler) RefreshCities(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if _, err := c.RefreshCities(r.Context()); err != nil {
		h.logger.Error("city refresh failed",
			"request_id", middleware.RequestID(r.Context()),
			"session_id", id,
			"error", err,
		)
		writeError(w, http.StatusBadGateway, "city list unavailable")
		return
	}
	h.respond(w, r, http.StatusOK, id, c)
}

// DeleteSession ends the session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Info("session deleted", "request_id", middleware.RequestID(r.Context()), "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetHotel returns one hotel from the catalog.
func (h *Handler) GetHotel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "hotel id must be a positive integer")
		return
	}

	start := time.Now()
	hotel, err := h.client.HotelByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hotel not found")
			return
		}
		h.logger.Error("hotel lookup failed", "request_id", requestID, "hotel_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	h.logger.Debug("hotel lookup", "request_id", requestID, "hotel_id", id, "duration_ms", time.Since(start).Milliseconds())
	if err := writeJSON(w, http.StatusOK, newHotelDocument(hotel)); err != nil {
		h.logger.Error("failed to encode response", "request_id", requestID, "error", err)
	}
}

// HotelsByCity lists every hotel the catalog has in a city.
func (h *Handler) HotelsByCity(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	city := strings.TrimSpace(r.PathValue("city"))
	if city == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}

	hotels, err := h.client.HotelsByCity(r.Context(), city)
	if err != nil {
		h.logger.Error("city listing failed", "request_id", requestID, "city", city, "error", err)
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	if err := writeJSON(w, http.StatusOK, newHotelDocuments(hotels)); err != nil {
		h.logger.Error("failed to encode response", "request_id", requestID, "error", err)
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *search.Controller, bool) {
	id := r.PathValue("id")
	c, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", nil, false
	}
	return id, c, true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, id string, c *search.Controller) {
	if err := writeJSON(w, status, newSessionDocument(id, c.Snapshot())); err != nil {
		// Can't change status after WriteHeader, just log
		h.logger.Error("failed to encode response",
			"request_id", middleware.RequestID(r.Context()),
			"error", err,
		)
	}
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
