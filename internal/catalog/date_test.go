package catalog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    catalog.Date
		wantErr bool
	}{
		{input: "2025-06-01", want: catalog.NewDate(2025, time.June, 1)},
		{input: "2024-02-29", want: catalog.NewDate(2024, time.February, 29)},
		{input: "2025-02-29", wantErr: true},
		{input: "2025/06/01", wantErr: true},
		{input: "01-06-2025", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := catalog.ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestDate_Compare(t *testing.T) {
	a := catalog.NewDate(2025, time.June, 1)
	b := catalog.NewDate(2025, time.June, 3)
	c := catalog.NewDate(2026, time.January, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
	assert.False(t, a.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, b.Before(c))
	assert.Equal(t, b, a.AddDays(2))
	assert.Equal(t, c, catalog.NewDate(2025, time.December, 31).AddDays(1))
}

func TestDateOf_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	instant := time.Date(2025, time.June, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, catalog.NewDate(2025, time.June, 1), catalog.DateOf(instant))
	assert.Equal(t, catalog.NewDate(2025, time.June, 2), catalog.DateOf(instant.In(tokyo)))
}

func TestDate_JSON(t *testing.T) {
	type stay struct {
		CheckIn  catalog.Date `json:"checkIn"`
		CheckOut catalog.Date `json:"checkOut"`
	}

	data, err := json.Marshal(stay{CheckIn: catalog.NewDate(2025, time.June, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"checkIn": "2025-06-01", "checkOut": ""}`, string(data))

	var decoded stay
	require.NoError(t, json.Unmarshal([]byte(`{"checkIn": "2025-06-01", "checkOut": ""}`), &decoded))
	assert.Equal(t, catalog.NewDate(2025, time.June, 1), decoded.CheckIn)
	assert.True(t, decoded.CheckOut.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"checkIn": "June 1st"}`), &decoded))
}
