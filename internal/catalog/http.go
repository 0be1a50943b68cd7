package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config configures an HTTPClient.
type Config struct {
	// BaseURL is the catalog API root, e.g. http://localhost:9875/api.
	BaseURL string

	// Timeout bounds each call. Zero means no client-side timeout.
	Timeout time.Duration

	// Credentials supplies the bearer token. Nil sends no Authorization header.
	Credentials CredentialProvider

	// Transport is the underlying round tripper. Nil uses http.DefaultTransport.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// HTTPClient talks to the catalog over REST/JSON.
type HTTPClient struct {
	baseURL     *url.URL
	credentials CredentialProvider
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewHTTPClient creates a new HTTPClient.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTPClient{
		baseURL:     u,
		credentials: cfg.Credentials,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		logger: logger,
	}, nil
}

// SearchByTerm searches hotels by free-text term.
func (c *HTTPClient) SearchByTerm(ctx context.Context, term string) ([]HotelSummary, error) {
	q := url.Values{}
	q.Set("searchTerm", term)

	var records []wireHotel
	if err := c.get(ctx, "/hotels/search", q, &records); err != nil {
		return nil, err
	}
	return decodeHotels(records)
}

// ListCities lists the cities known to the catalog.
func (c *HTTPClient) ListCities(ctx context.Context) ([]string, error) {
	var raw []string
	if err := c.get(ctx, "/hotels/cities", nil, &raw); err != nil {
		return nil, err
	}
	return decodeCities(raw), nil
}

// FindAvailable lists hotels in city with inventory between checkIn and checkOut.
func (c *HTTPClient) FindAvailable(ctx context.Context, city string, checkIn, checkOut Date) ([]HotelSummary, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("checkIn", checkIn.String())
	q.Set("checkOut", checkOut.String())

	var records []wireHotel
	if err := c.get(ctx, "/hotels/available", q, &records); err != nil {
		return nil, err
	}
	return decodeHotels(records)
}

// HotelsByCity lists the hotels in city.
func (c *HTTPClient) HotelsByCity(ctx context.Context, city string) ([]HotelSummary, error) {
	var records []wireHotel
	if err := c.get(ctx, "/hotels/city/"+url.PathEscape(city), nil, &records); err != nil {
		return nil, err
	}
	return decodeHotels(records)
}

// HotelByID fetches a single hotel.
func (c *HTTPClient) HotelByID(ctx context.Context, id int64) (HotelSummary, error) {
	var rec wireHotel
	err := c.get(ctx, "/hotels/hotel/"+strconv.FormatInt(id, 10), nil, &rec)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return HotelSummary{}, fmt.Errorf("hotel %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return HotelSummary{}, err
	}
	return rec.toSummary()
}

// get performs a GET request and decodes the JSON body into out.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.credentials != nil {
		token, err := c.credentials.Token(ctx)
		if err != nil {
			return fmt.Errorf("%w: credentials: %v", ErrNetwork, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("catalog request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore close error
	}()

	c.logger.Debug("catalog response",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A body cut off by the client timeout is a transport failure, not a bad payload.
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return fmt.Errorf("%w: failed to parse response: %v", ErrServer, err)
	}

	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
