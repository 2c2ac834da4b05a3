package widget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	today := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	index := BuildIndex([]BookingRecord{
		{Date: "2024-03-04", Time: "14:00"},
		{Date: "2024-03-06", Time: "14:00"},
		{Date: "2024-03-07", Time: "14:00"},
		{Date: "2024-03-07", Time: "16:00"},
		{Date: "2024-03-07", Time: "18:00"},
		{Date: "2024-03-07", Time: "20:00"},
	})
	slotCount := len(DefaultTimeSlots)

	tests := []struct {
		name  string
		date  time.Time
		state SelectionState
		want  string
	}{
		{
			name: "past_with_bookings",
			date: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
			want: "calendar-day past",
		},
		{
			name: "today_available",
			date: today,
			want: "calendar-day available today",
		},
		{
			name: "limited",
			date: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC),
			want: "calendar-day limited",
		},
		{
			name:  "full_and_selected",
			date:  time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC),
			state: SelectionState{SelectedDate: "2024-03-07"},
			want:  "calendar-day full selected",
		},
		{
			name:  "past_selected",
			date:  time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
			state: SelectionState{SelectedDate: "2024-02-01"},
			want:  "calendar-day past selected",
		},
		{
			name:  "today_selected",
			date:  today,
			state: SelectionState{SelectedDate: "2024-03-05"},
			want:  "calendar-day available today selected",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Classify(test.date, index, today, test.state, slotCount)
			assert.Equal(t, test.want, got.String())
		})
	}
}

func TestClassify_TimeOfDayIgnored(t *testing.T) {
	today := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	lateToday := time.Date(2024, time.March, 5, 23, 59, 0, 0, time.UTC)

	got := Classify(lateToday, BookingIndex{}, today, SelectionState{}, 4)
	assert.False(t, got.Has(TagPast))
	assert.True(t, got.Has(TagToday))
}

func TestClassify_PastNeverCarriesAvailability(t *testing.T) {
	today := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	index := BookingIndex{}
	for day := 1; day <= 4; day++ {
		date := time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
		for n := 0; n <= 5; n++ {
			index[date.Format(DateLayout)] = make([]string, n)
			got := Classify(date, index, today, SelectionState{}, 4)
			assert.Equal(t, TagPast, got.Status(), "day %d with %d bookings", day, n)
			assert.False(t, got.Has(TagAvailable))
			assert.False(t, got.Has(TagLimited))
			assert.False(t, got.Has(TagFull))
		}
	}
}

func TestClassify_Thresholds(t *testing.T) {
	today := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	date := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	key := date.Format(DateLayout)

	for n := 0; n <= 6; n++ {
		index := BookingIndex{key: make([]string, n)}
		got := Classify(date, index, today, SelectionState{}, 4).Status()
		switch {
		case n == 0:
			assert.Equal(t, TagAvailable, got, "n=%d", n)
		case n >= 4:
			assert.Equal(t, TagFull, got, "n=%d", n)
		default:
			assert.Equal(t, TagLimited, got, "n=%d", n)
		}
	}
}

func TestClassify_FullScenario(t *testing.T) {
	today := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	index := BuildIndex([]BookingRecord{
		{Date: "2024-03-10", Time: "14:00"},
		{Date: "2024-03-10", Time: "16:00"},
		{Date: "2024-03-10", Time: "18:00"},
		{Date: "2024-03-10", Time: "20:00"},
	})

	got := Classify(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), index, today, SelectionState{}, len(DefaultTimeSlots))
	assert.Equal(t, TagFull, got.Status())
}

func TestClassify_DuplicatesCanFillEarly(t *testing.T) {
	today := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	index := BuildIndex([]BookingRecord{
		{Date: "2024-03-10", Time: "14:00"},
		{Date: "2024-03-10", Time: "14:00"},
		{Date: "2024-03-10", Time: "14:00"},
		{Date: "2024-03-10", Time: "14:00"},
	})

	got := Classify(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), index, today, SelectionState{}, len(DefaultTimeSlots))
	assert.Equal(t, TagFull, got.Status())
}
