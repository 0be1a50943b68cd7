package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
)

// Catalog operation names used in logs and metrics.
const (
	OpSearchByTerm  = "search_by_term"
	OpListCities    = "list_cities"
	OpFindAvailable = "find_available"
)

// Metrics receives controller measurements.
type Metrics interface {
	ObserveCatalogCall(op, outcome string, seconds float64)
	IncSuperseded(op string)
	IncStatus(kind string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCatalogCall(string, string, float64) {}
func (noopMetrics) IncSuperseded(string)                       {}
func (noopMetrics) IncStatus(string)                           {}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the source of "today" for date validation.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// Controller owns one search session: the active query, the result status and the city index.
//
// Every catalog request is stamped with a sequence number when it is issued.
// A response is applied only if its number is still the latest issued, so
// the last submitted query wins regardless of response order.
// Methods are safe for concurrent use; catalog calls run without holding the lock.
type Controller struct {
	client  catalog.Client
	now     func() time.Time
	logger  *slog.Logger
	metrics Metrics

	mu        sync.Mutex
	model     *QueryModel
	status    Status
	cities    []string
	searchSeq uint64
	citySeq   uint64
}

// NewController creates an idle controller in free-text mode.
func NewController(client catalog.Client, opts ...Option) *Controller {
	c := &Controller{
		client:  client,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
		metrics: noopMetrics{},
		model:   NewQueryModel(""),
		status:  Idle{},
		cities:  []string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize resets the query to FreeText{term} and concurrently runs the term
// search and the city enumeration. The term search decides the final status;
// a failed city enumeration only leaves the city index empty.
func (c *Controller) Initialize(ctx context.Context, term string) Status {
	c.mu.Lock()
	c.model = NewQueryModel(term)
	searchSeq := c.beginSearch()
	citySeq := c.beginCities()
	c.mu.Unlock()

	var (
		wg        sync.WaitGroup
		hotels    []catalog.HotelSummary
		searchErr error
		cities    []string
		cityErr   error
	)

	wg.Go(func() {
		hotels, searchErr = callCatalog(ctx, c, OpSearchByTerm, func(ctx context.Context) ([]catalog.HotelSummary, error) {
			return c.client.SearchByTerm(ctx, term)
		})
	})
	wg.Go(func() {
		cities, cityErr = callCatalog(ctx, c, OpListCities, c.client.ListCities)
	})
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if cityErr != nil {
		c.logger.Warn("city enumeration failed, availability search unavailable", "error", cityErr)
		cities = []string{}
	}
	c.applyCities(citySeq, cities)
	c.applyResults(searchSeq, OpSearchByTerm, hotels, searchErr)

	return cloneStatus(c.status)
}

// SubmitAvailabilityQuery runs the active Availability query.
// When the active query is not a submittable Availability it returns an error
// matching ErrNotSubmittable and changes nothing.
func (c *Controller) SubmitAvailabilityQuery(ctx context.Context) (Status, error) {
	c.mu.Lock()
	q, ok := c.model.Query().(Availability)
	var err error
	if !ok {
		err = fmt.Errorf("%w: active mode is %s", ErrNotSubmittable, c.model.Mode())
	} else {
		err = q.Validate(c.today())
	}
	if err != nil {
		current := cloneStatus(c.status)
		c.mu.Unlock()
		c.logger.Debug("availability submission refused", "error", err)
		return current, err
	}
	seq := c.beginSearch()
	c.mu.Unlock()

	city := strings.TrimSpace(q.City)
	hotels, err := callCatalog(ctx, c, OpFindAvailable, func(ctx context.Context) ([]catalog.HotelSummary, error) {
		return c.client.FindAvailable(ctx, city, q.CheckIn, q.CheckOut)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyResults(seq, OpFindAvailable, hotels, err)
	return cloneStatus(c.status), nil
}

// SubmitFreeTextQuery re-runs the term search for the active FreeText query.
func (c *Controller) SubmitFreeTextQuery(ctx context.Context) (Status, error) {
	c.mu.Lock()
	q, ok := c.model.Query().(FreeText)
	if !ok {
		current := cloneStatus(c.status)
		err := fmt.Errorf("%w: active mode is %s", ErrNotSubmittable, c.model.Mode())
		c.mu.Unlock()
		return current, err
	}
	seq := c.beginSearch()
	c.mu.Unlock()

	hotels, err := callCatalog(ctx, c, OpSearchByTerm, func(ctx context.Context) ([]catalog.HotelSummary, error) {
		return c.client.SearchByTerm(ctx, q.Term)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyResults(seq, OpSearchByTerm, hotels, err)
	return cloneStatus(c.status), nil
}

// Submit runs whichever variant is active.
func (c *Controller) Submit(ctx context.Context) (Status, error) {
	if c.CurrentQuery().Mode() == ModeAvailability {
		return c.SubmitAvailabilityQuery(ctx)
	}
	return c.SubmitFreeTextQuery(ctx)
}

// RefreshCities retries the city enumeration. On failure the current index is kept.
func (c *Controller) RefreshCities(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	seq := c.beginCities()
	c.mu.Unlock()

	cities, err := callCatalog(ctx, c, OpListCities, c.client.ListCities)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("city refresh failed", "error", err)
		return slices.Clone(c.cities), err
	}
	c.applyCities(seq, cities)
	return slices.Clone(c.cities), nil
}

// CurrentQuery returns the active query.
func (c *Controller) CurrentQuery() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Query()
}

// CurrentStatus returns the current status.
func (c *Controller) CurrentStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneStatus(c.status)
}

// CurrentCities returns the city index.
func (c *Controller) CurrentCities() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.cities)
}

// IsSubmittable reports whether the active query can be submitted today.
func (c *Controller) IsSubmittable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.IsSubmittable(c.today())
}

// View returns the presentation projection of the current status.
func (c *Controller) View() View {
	return Project(c.CurrentStatus())
}

// Snapshot is a consistent read of the whole controller state.
type Snapshot struct {
	Query       Query
	Submittable bool
	Cities      []string
	Status      Status
}

// Snapshot returns query, submittability, cities and status read under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Query:       c.model.Query(),
		Submittable: c.model.IsSubmittable(c.today()),
		Cities:      slices.Clone(c.cities),
		Status:      cloneStatus(c.status),
	}
}

// Edit applies fn to the query under one lock hold. When fn returns an error
// the query is left exactly as it was. Status is unchanged.
func (c *Controller) Edit(fn func(*QueryModel) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft := &QueryModel{query: c.model.query}
	if err := fn(draft); err != nil {
		return err
	}
	c.model = draft
	return nil
}

// SwitchToFreeText switches to free-text mode. Status is unchanged.
func (c *Controller) SwitchToFreeText() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model.SwitchToFreeText()
}

// SwitchToAvailability switches to availability mode. Status is unchanged.
func (c *Controller) SwitchToAvailability() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model.SwitchToAvailability()
}

// SetTerm edits the free-text term.
func (c *Controller) SetTerm(term string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.SetTerm(term)
}

// SetCity edits the availability city.
func (c *Controller) SetCity(city string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.SetCity(city)
}

// SetCheckIn edits the availability check-in date.
func (c *Controller) SetCheckIn(d catalog.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.SetCheckIn(d)
}

// SetCheckOut edits the availability check-out date.
func (c *Controller) SetCheckOut(d catalog.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.SetCheckOut(d)
}

// beginSearch issues a new result request number and marks the status Loading.
// Caller holds c.mu.
func (c *Controller) beginSearch() uint64 {
	c.searchSeq++
	c.setStatus(Loading{})
	return c.searchSeq
}

// beginCities issues a new city request number. Caller holds c.mu.
func (c *Controller) beginCities() uint64 {
	c.citySeq++
	return c.citySeq
}

// applyResults publishes a result response if it is still the latest. Caller holds c.mu.
func (c *Controller) applyResults(seq uint64, op string, hotels []catalog.HotelSummary, err error) {
	if seq != c.searchSeq {
		c.metrics.IncSuperseded(op)
		c.logger.Debug("discarding superseded response", "op", op, "seq", seq, "latest", c.searchSeq)
		return
	}

	if err != nil {
		c.logger.Error("search failed", "op", op, "seq", seq, "error", err)
		c.setStatus(Failed{Message: failureMessage(err), Err: err})
		return
	}

	results := slices.Clone(hotels)
	if results == nil {
		results = []catalog.HotelSummary{}
	}
	c.setStatus(Success{Results: results})
}

// applyCities publishes a city response if it is still the latest. Caller holds c.mu.
func (c *Controller) applyCities(seq uint64, cities []string) {
	if seq != c.citySeq {
		c.metrics.IncSuperseded(OpListCities)
		return
	}
	c.cities = slices.Clone(cities)
	if c.cities == nil {
		c.cities = []string{}
	}
}

func (c *Controller) setStatus(s Status) {
	c.status = s
	c.metrics.IncStatus(string(s.Kind()))
}

func (c *Controller) today() catalog.Date {
	return catalog.DateOf(c.now())
}

// callCatalog runs one catalog call and records its outcome.
func callCatalog[T any](ctx context.Context, c *Controller, op string, call func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := call(ctx)
	c.metrics.ObserveCatalogCall(op, outcome(err), time.Since(start).Seconds())
	return result, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, catalog.ErrNetwork):
		return "network_error"
	default:
		return "server_error"
	}
}

func cloneStatus(s Status) Status {
	if ok, isSuccess := s.(Success); isSuccess {
		return Success{Results: slices.Clone(ok.Results)}
	}
	return s
}
