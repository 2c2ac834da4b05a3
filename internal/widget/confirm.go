package widget

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownSlot means the selection names a time that no slot defines. The
// state machine and slot list have drifted apart; callers should not recover.
var ErrUnknownSlot = errors.New("selected time does not match a defined slot")

const longDateLayout = "Monday, January 2, 2006"

// FormFields are the values staged for the host form post.
type FormFields struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Confirmation is what the form region shows once a time is chosen.
type Confirmation struct {
	DateDisplay    string
	TimeDisplay    string
	Display        string
	Fields         FormFields
	ScrollIntoView bool
}

// Present formats the chosen date and slot as "<long date> at <label>".
func Present(selectedDate, selectedTime string, slots []TimeSlot) (Confirmation, error) {
	slot, ok := findSlot(slots, selectedTime)
	if !ok {
		return Confirmation{}, fmt.Errorf("%w: %q", ErrUnknownSlot, selectedTime)
	}
	dateDisplay, err := LongDate(selectedDate)
	if err != nil {
		return Confirmation{}, err
	}

	return Confirmation{
		DateDisplay:    dateDisplay,
		TimeDisplay:    slot.Label,
		Display:        fmt.Sprintf("%s at %s", dateDisplay, slot.Label),
		Fields:         FormFields{Date: selectedDate, Time: selectedTime},
		ScrollIntoView: true,
	}, nil
}

// LongDate renders YYYY-MM-DD as e.g. "Sunday, March 10, 2024".
func LongDate(date string) (string, error) {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return parsed.Format(longDateLayout), nil
}
