package widget

// TimeSlot is a bookable time of day with its display label.
type TimeSlot struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DefaultTimeSlots are the sessions offered every day.
var DefaultTimeSlots = []TimeSlot{
	{Value: "14:00", Label: "2:00 PM"},
	{Value: "16:00", Label: "4:00 PM"},
	{Value: "18:00", Label: "6:00 PM"},
	{Value: "20:00", Label: "8:00 PM"},
}

// SlotCell is one entry of the time list shown for a selected date.
type SlotCell struct {
	Value    string
	Label    string
	Booked   bool
	Selected bool
}

// Clickable reports whether the cell may be bound to SelectTime.
func (c SlotCell) Clickable() bool {
	return !c.Booked
}

// Classes returns the style hooks for the slot, base tag first.
func (c SlotCell) Classes() []string {
	classes := []string{"time-slot"}
	if c.Booked {
		classes = append(classes, "booked")
	}
	if c.Selected {
		classes = append(classes, "selected")
	}
	return classes
}

// RenderSlots lists every defined slot for date, marking booked values and
// the currently selected one.
func RenderSlots(date string, index BookingIndex, slots []TimeSlot, selectedTime string) []SlotCell {
	cells := make([]SlotCell, 0, len(slots))
	for _, slot := range slots {
		cells = append(cells, SlotCell{
			Value:    slot.Value,
			Label:    slot.Label,
			Booked:   index.IsBooked(date, slot.Value),
			Selected: selectedTime != "" && slot.Value == selectedTime,
		})
	}
	return cells
}

func findSlot(slots []TimeSlot, value string) (TimeSlot, bool) {
	for _, slot := range slots {
		if slot.Value == value {
			return slot, true
		}
	}
	return TimeSlot{}, false
}
