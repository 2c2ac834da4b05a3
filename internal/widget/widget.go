package widget

import (
	"fmt"
	"time"
)

// Clock lets tests pin "today".
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Widget binds an immutable booking index to the slot definitions. It holds no
// selection state, so one instance can serve concurrent requests.
type Widget struct {
	index BookingIndex
	slots []TimeSlot
	clock Clock
	loc   *time.Location
}

type Option func(*Widget)

func WithClock(clock Clock) Option {
	return func(w *Widget) {
		if clock != nil {
			w.clock = clock
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(w *Widget) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithTimeSlots replaces DefaultTimeSlots. Intended for tests.
func WithTimeSlots(slots []TimeSlot) Option {
	return func(w *Widget) {
		w.slots = append([]TimeSlot(nil), slots...)
	}
}

// New builds the booking index once from records.
func New(records []BookingRecord, opts ...Option) *Widget {
	w := &Widget{
		index: BuildIndex(records),
		slots: DefaultTimeSlots,
		clock: realClock{},
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Widget) Index() BookingIndex { return w.index }

func (w *Widget) TimeSlots() []TimeSlot { return w.slots }

func (w *Widget) location() *time.Location {
	return w.loc
}

// Today is midnight of the current day in the widget's location.
func (w *Widget) Today() time.Time {
	return truncateToDay(w.clock.Now().In(w.loc))
}

// InitialState opens the calendar on the current month with nothing selected.
func (w *Widget) InitialState() SelectionState {
	return SelectionState{Cursor: YearMonthOf(w.Today())}
}

// IsDefinedSlot reports whether value names one of the widget's slots.
func (w *Widget) IsDefinedSlot(value string) bool {
	_, ok := findSlot(w.slots, value)
	return ok
}

// View is the full projection of a state: everything the rendering layer
// needs and nothing it has to decide.
type View struct {
	State             SelectionState
	Phase             Phase
	Calendar          MonthGrid
	SelectedDateTitle string
	Slots             []SlotCell
	ShowPrompt        bool
	ShowSlots         bool
	ShowForm          bool
	Confirmation      *Confirmation
}

// Project renders state. Rendering the same state twice yields equal views.
func (w *Widget) Project(state SelectionState) (View, error) {
	view := View{
		State:      state,
		Phase:      state.Phase(),
		Calendar:   RenderMonth(state.Cursor, w.index, state, w.Today(), w.slots),
		ShowPrompt: true,
	}

	if state.SelectedDate == "" {
		return view, nil
	}

	title, err := LongDate(state.SelectedDate)
	if err != nil {
		return View{}, fmt.Errorf("project selected date: %w", err)
	}
	view.SelectedDateTitle = title
	view.Slots = RenderSlots(state.SelectedDate, w.index, w.slots, state.SelectedTime)
	view.ShowSlots = true
	view.ShowPrompt = false

	if state.SelectedTime == "" {
		return view, nil
	}

	confirmation, err := Present(state.SelectedDate, state.SelectedTime, w.slots)
	if err != nil {
		return View{}, fmt.Errorf("project confirmation: %w", err)
	}
	view.Confirmation = &confirmation
	view.ShowForm = true
	return view, nil
}
