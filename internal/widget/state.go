package widget

import (
	"fmt"
	"strings"
	"time"
)

type Phase int

const (
	PhaseNoSelection Phase = iota
	PhaseDateSelected
	PhaseTimeSelected
)

func (p Phase) String() string {
	switch p {
	case PhaseDateSelected:
		return "date_selected"
	case PhaseTimeSelected:
		return "time_selected"
	default:
		return "no_selection"
	}
}

// SelectionState is the user's in-progress choice. It is a value: transitions
// return a new state and never mutate their input.
type SelectionState struct {
	Cursor       YearMonth
	SelectedDate string
	SelectedTime string
}

func (s SelectionState) Phase() Phase {
	switch {
	case s.SelectedDate != "" && s.SelectedTime != "":
		return PhaseTimeSelected
	case s.SelectedDate != "":
		return PhaseDateSelected
	default:
		return PhaseNoSelection
	}
}

// DecodeState rebuilds a state from its serialized fields. An empty month
// falls back to the given cursor.
func DecodeState(month, date, timeValue string, fallback YearMonth) (SelectionState, error) {
	state := SelectionState{Cursor: fallback}

	month = strings.TrimSpace(month)
	if month != "" {
		cursor, err := ParseYearMonth(month)
		if err != nil {
			return SelectionState{}, err
		}
		state.Cursor = cursor
	}

	date = strings.TrimSpace(date)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return SelectionState{}, fmt.Errorf("selected_date must be in YYYY-MM-DD format: %w", err)
		}
		state.SelectedDate = date
	}

	timeValue = strings.TrimSpace(timeValue)
	if timeValue != "" {
		if state.SelectedDate == "" {
			return SelectionState{}, fmt.Errorf("selected_time requires selected_date")
		}
		if _, err := time.Parse(TimeLayout, timeValue); err != nil {
			return SelectionState{}, fmt.Errorf("selected_time must be in HH:MM format: %w", err)
		}
		state.SelectedTime = timeValue
	}

	return state, nil
}

// Effects lists the UI consequences of a transition for the rendering layer.
type Effects struct {
	RenderCalendar bool
	RenderSlots    bool
	ShowSlotsPanel bool
	HidePrompt     bool
	HideForm       bool
	ShowForm       bool
	ScrollToForm   bool
}

// Transition is the result of applying a user action. When Applied is false
// State equals the input and Effects is empty.
type Transition struct {
	State   SelectionState
	Applied bool
	Effects Effects
}

func ignored(state SelectionState) Transition {
	return Transition{State: state}
}

// SelectDate picks date and clears any selected time. Past or unparseable
// dates are ignored. The month cursor is left alone.
func (w *Widget) SelectDate(state SelectionState, date string) Transition {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), w.location())
	if err != nil {
		return ignored(state)
	}
	if day.Before(w.Today()) {
		return ignored(state)
	}

	next := state
	next.SelectedDate = day.Format(DateLayout)
	next.SelectedTime = ""
	return Transition{
		State:   next,
		Applied: true,
		Effects: Effects{
			RenderCalendar: true,
			RenderSlots:    true,
			ShowSlotsPanel: true,
			HidePrompt:     true,
			HideForm:       true,
		},
	}
}

// SelectTime picks a slot on the selected date. It is ignored without a
// selected date or when the value is already booked on it.
func (w *Widget) SelectTime(state SelectionState, value string) Transition {
	value = strings.TrimSpace(value)
	if state.SelectedDate == "" || value == "" {
		return ignored(state)
	}
	if w.index.IsBooked(state.SelectedDate, value) {
		return ignored(state)
	}

	next := state
	next.SelectedTime = value
	return Transition{
		State:   next,
		Applied: true,
		Effects: Effects{
			RenderSlots:  true,
			ShowForm:     true,
			ScrollToForm: true,
		},
	}
}

// NavigateMonth moves the cursor by one month in either direction. The
// selection survives navigation so its highlight returns with its month.
func (w *Widget) NavigateMonth(state SelectionState, delta int) Transition {
	if delta != -1 && delta != 1 {
		return ignored(state)
	}
	next := state
	next.Cursor = state.Cursor.AddMonths(delta)
	return Transition{
		State:   next,
		Applied: true,
		Effects: Effects{RenderCalendar: true},
	}
}
