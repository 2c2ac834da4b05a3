package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSlots_LimitedScenario(t *testing.T) {
	index := BuildIndex([]BookingRecord{{Date: "2024-03-11", Time: "14:00"}})

	cells := RenderSlots("2024-03-11", index, DefaultTimeSlots, "")

	require.Len(t, cells, 4)
	assert.True(t, cells[0].Booked)
	assert.False(t, cells[0].Clickable())
	assert.Equal(t, []string{"time-slot", "booked"}, cells[0].Classes())
	for _, cell := range cells[1:] {
		assert.False(t, cell.Booked, cell.Value)
		assert.True(t, cell.Clickable(), cell.Value)
	}
}

func TestRenderSlots_Selected(t *testing.T) {
	cells := RenderSlots("2024-03-11", BookingIndex{}, DefaultTimeSlots, "18:00")

	var selected []string
	for _, cell := range cells {
		if cell.Selected {
			selected = append(selected, cell.Value)
		}
	}
	assert.Equal(t, []string{"18:00"}, selected)
	assert.Equal(t, []string{"time-slot", "selected"}, cells[2].Classes())
}

func TestRenderSlots_UnlistedBookingIsInert(t *testing.T) {
	index := BuildIndex([]BookingRecord{
		{Date: "2024-03-11", Time: "09:00"},
		{Date: "2024-03-11", Time: "16:00"},
		{Date: "2024-03-11", Time: "16:00"},
	})

	cells := RenderSlots("2024-03-11", index, DefaultTimeSlots, "")

	booked := 0
	for _, cell := range cells {
		if cell.Booked {
			booked++
			assert.Equal(t, "16:00", cell.Value)
		}
	}
	assert.Equal(t, 1, booked)
}
