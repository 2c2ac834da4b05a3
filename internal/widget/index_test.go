package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	index := BuildIndex([]BookingRecord{
		{Date: "2024-03-10", Time: "16:00"},
		{Date: "2024-03-11", Time: "14:00"},
		{Date: "2024-03-10", Time: "14:00"},
	})

	assert.Equal(t, []string{"16:00", "14:00"}, index.Booked("2024-03-10"))
	assert.Equal(t, []string{"14:00"}, index.Booked("2024-03-11"))
	assert.Nil(t, index.Booked("2024-03-12"))
	assert.Equal(t, 0, index.Count("2024-03-12"))
}

func TestBuildIndex_KeepsDuplicates(t *testing.T) {
	index := BuildIndex([]BookingRecord{
		{Date: "2024-03-10", Time: "14:00"},
		{Date: "2024-03-10", Time: "14:00"},
	})

	assert.Equal(t, 2, index.Count("2024-03-10"))
	assert.True(t, index.IsBooked("2024-03-10", "14:00"))
	assert.False(t, index.IsBooked("2024-03-10", "16:00"))
}

func TestParseBookings(t *testing.T) {
	records, err := ParseBookings(strings.NewReader(`[{"date":"2024-03-10","time":"14:00"},{"date":"2024-03-11","time":"16:00"}]`))
	require.NoError(t, err)
	assert.Equal(t, []BookingRecord{
		{Date: "2024-03-10", Time: "14:00"},
		{Date: "2024-03-11", Time: "16:00"},
	}, records)
}

func TestParseBookings_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not_json", input: `not json`},
		{name: "object", input: `{"date":"2024-03-10"}`},
		{name: "unknown_field", input: `[{"date":"2024-03-10","time":"14:00","court":1}]`},
		{name: "missing_time", input: `[{"date":"2024-03-10"}]`},
		{name: "trailing", input: `[] []`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseBookings(strings.NewReader(test.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedBookings)
		})
	}
}

func TestEncodeBookings_RoundTripsThroughParse(t *testing.T) {
	records := []BookingRecord{{Date: "2024-03-10", Time: "14:00"}}

	raw, err := EncodeBookings(records)
	require.NoError(t, err)

	parsed, err := ParseBookings(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, records, parsed)

	empty, err := EncodeBookings(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
