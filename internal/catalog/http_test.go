package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, url string, opts ...func(*catalog.Config)) *catalog.HTTPClient {
	t.Helper()
	cfg := catalog.Config{BaseURL: url, Timeout: 2 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	client, err := catalog.NewHTTPClient(cfg)
	require.NoError(t, err)
	return client
}

func TestHTTPClient_SearchByTerm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/hotels/search", r.URL.Path)
		assert.Equal(t, "Grand", r.URL.Query().Get("searchTerm"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"hotelId": 1, "hotelName": "Grand Palace", "city": "Paris", "state": "IDF",
			 "ratings": 4.5, "wifi": true, "breakfast": true, "swimmingPool": false, "gym": true, "bar": false},
			{"hotelId": 2, "hotelName": "Grand Budget", "city": "Lyon", "state": "ARA", "ratings": null}
		]`))
	}))
	defer server.Close()

	client := newClient(t, server.URL+"/api")

	hotels, err := client.SearchByTerm(context.Background(), "Grand")
	require.NoError(t, err)
	require.Len(t, hotels, 2)

	first := hotels[0]
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Grand Palace", first.Name)
	assert.Equal(t, "Paris", first.City)
	assert.Equal(t, "IDF", first.State)
	assert.Equal(t, 4.5, first.DisplayRating())
	assert.Equal(t, catalog.Amenities{WiFi: true, Breakfast: true, Gym: true}, first.Amenities)
	assert.Equal(t, []string{"WiFi", "Breakfast", "Gym"}, first.Amenities.Labels())

	second := hotels[1]
	assert.Nil(t, second.Rating)
	assert.Equal(t, 0.0, second.DisplayRating())
}

func TestHTTPClient_SearchByTerm_EmptyTermListsEverything(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, r.URL.Query().Has("searchTerm"))
		assert.Equal(t, "", r.URL.Query().Get("searchTerm"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	hotels, err := newClient(t, server.URL).SearchByTerm(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, hotels)
	assert.NotNil(t, hotels)
}

func TestHTTPClient_ListCities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hotels/cities", r.URL.Path)
		_, _ = w.Write([]byte(`["Paris", " Lyon ", "", "Paris", "Nice"]`))
	}))
	defer server.Close()

	cities, err := newClient(t, server.URL).ListCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Lyon", "Nice"}, cities)
}

func TestHTTPClient_FindAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hotels/available", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Paris", q.Get("city"))
		assert.Equal(t, "2025-06-01", q.Get("checkIn"))
		assert.Equal(t, "2025-06-03", q.Get("checkOut"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	hotels, err := newClient(t, server.URL).FindAvailable(context.Background(), "Paris",
		catalog.NewDate(2025, time.June, 1), catalog.NewDate(2025, time.June, 3))
	require.NoError(t, err)
	assert.Empty(t, hotels)
}

func TestHTTPClient_HotelByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hotels/hotel/7":
			_, _ = w.Write([]byte(`{"hotelId": 7, "hotelName": "Seaside", "city": "Nice"}`))
		default:
			http.Error(w, "no such hotel", http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newClient(t, server.URL)

	hotel, err := client.HotelByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Seaside", hotel.Name)

	_, err = client.HotelByID(context.Background(), 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, err, catalog.ErrServer)
}

func TestHTTPClient_HotelsByCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hotels/city/Saint%20Malo", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`[{"hotelId": 9, "hotelName": "Les Remparts", "city": "Saint Malo"}]`))
	}))
	defer server.Close()

	hotels, err := newClient(t, server.URL).HotelsByCity(context.Background(), "Saint Malo")
	require.NoError(t, err)
	require.Len(t, hotels, 1)
	assert.Equal(t, "Les Remparts", hotels[0].Name)
	assert.Zero(t, hotels[0].DisplayRating())
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "unauthorized status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{not json`))
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "record without id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"hotelName": "Nameless"}]`))
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "record without name",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"hotelId": 3, "hotelName": "  "}]`))
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "rating out of range",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"hotelId": 3, "hotelName": "Odd", "ratings": 7}]`))
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "duplicate ids",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"hotelId": 3, "hotelName": "A"}, {"hotelId": 3, "hotelName": "B"}]`))
			},
			wantErr: catalog.ErrServer,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(time.Second):
				case <-r.Context().Done():
				}
			},
			wantErr: catalog.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := newClient(t, server.URL, func(c *catalog.Config) {
				c.Timeout = 100 * time.Millisecond
			})

			_, err := client.SearchByTerm(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPClient_StatusErrorDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newClient(t, server.URL).ListCities(context.Background())

	var statusErr *catalog.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestHTTPClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newClient(t, url).ListCities(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNetwork)
	assert.NotErrorIs(t, err, catalog.ErrServer)
}

func TestHTTPClient_BearerToken(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newClient(t, server.URL, func(c *catalog.Config) {
		c.Credentials = catalog.StaticToken("test-key")
	})
	_, err := client.ListCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", got)

	anonymous := newClient(t, server.URL)
	_, err = anonymous.ListCities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewHTTPClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:9875", "ftp://catalog", "://bad"} {
		_, err := catalog.NewHTTPClient(catalog.Config{BaseURL: raw})
		assert.Error(t, err, "base URL %q", raw)
	}
}
