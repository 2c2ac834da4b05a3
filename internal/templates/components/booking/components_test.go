package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codr1/Escapade/internal/widget"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func renderWidget(t *testing.T, state widget.SelectionState, records []widget.BookingRecord, data WidgetData) string {
	t.Helper()

	w := widget.New(records,
		widget.WithClock(fixedClock(time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC))),
		widget.WithLocation(time.UTC),
	)
	view, err := w.Project(state)
	require.NoError(t, err)
	data.View = view
	data.SelectPath = "/api/v1/booking/select"
	data.SubmitPath = "/bookings"

	var buf strings.Builder
	require.NoError(t, Widget(data).Render(context.Background(), &buf))
	return buf.String()
}

func march() widget.YearMonth {
	return widget.YearMonth{Year: 2024, Month: time.March}
}

func TestWidget_InitialRender(t *testing.T) {
	out := renderWidget(t, widget.SelectionState{Cursor: march()}, nil, WidgetData{})

	assert.Contains(t, out, `id="bookingWidget"`)
	assert.Contains(t, out, `hx-post="/api/v1/booking/select"`)
	assert.Contains(t, out, `<h2 id="currentMonth">March 2024</h2>`)
	assert.Contains(t, out, `name="month" value="2024-03"`)
	assert.Contains(t, out, `id="selectDatePrompt"`)
	assert.NotContains(t, out, `id="timeSlotsSection"`)
	assert.NotContains(t, out, FormSectionID)

	// March 2024 starts on a Friday: five leading fillers.
	assert.Equal(t, 5, strings.Count(out, `<div class="calendar-day disabled"></div>`))
	assert.Contains(t, out, `<div class="calendar-day past" data-date="2024-03-04" aria-disabled="true">4</div>`)
	assert.Contains(t, out, `<div class="calendar-day available today" data-select-date="2024-03-05">5</div>`)
}

func TestWidget_TimeSelectedRender(t *testing.T) {
	records := []widget.BookingRecord{{Date: "2024-03-11", Time: "14:00"}}
	state := widget.SelectionState{Cursor: march(), SelectedDate: "2024-03-11", SelectedTime: "16:00"}

	out := renderWidget(t, state, records, WidgetData{
		Values:      FormValues{Name: `Lisa "Cuddy"`},
		FieldErrors: map[string]string{"email": "email must be a valid email address"},
		Notice:      "Please fix the errors below.",
	})

	assert.Contains(t, out, `<div class="calendar-day limited selected" data-select-date="2024-03-11">11</div>`)
	assert.Contains(t, out, `<h3 id="selectedDateTitle">Monday, March 11, 2024</h3>`)
	assert.Contains(t, out, `<div class="time-slot booked" data-time="14:00" aria-disabled="true">2:00 PM<br><small>Booked</small></div>`)
	assert.Contains(t, out, `<div class="time-slot selected" data-time="16:00" data-select-time="16:00">4:00 PM</div>`)
	assert.Contains(t, out, `<strong id="confirmDateTime">Monday, March 11, 2024 at 4:00 PM</strong>`)
	assert.Contains(t, out, `name="date" value="2024-03-11"`)
	assert.Contains(t, out, `name="time" value="16:00"`)
	assert.Contains(t, out, `value="Lisa &#34;Cuddy&#34;"`)
	assert.Contains(t, out, `<p class="field-error">email must be a valid email address</p>`)
	assert.Contains(t, out, `role="alert">Please fix the errors below.</div>`)
	assert.Contains(t, out, `max="10"`)
	assert.NotContains(t, out, `id="selectDatePrompt"`)
}

func TestPage_EmbedsBookedSlots(t *testing.T) {
	var buf strings.Builder
	err := Page(PageData{BookedSlotsJSON: `[{"date":"2024-03-10","time":"</script>"}]`}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `<script type="application/json" id="booked-slots-data">[{"date":"2024-03-10","time":"<\/script>"}]</script>`)
	assert.Contains(t, out, `id="bookingWidget"`)
}

func TestOrderSummary(t *testing.T) {
	var buf strings.Builder
	err := OrderSummary(OrderSummaryData{
		VenueName:      "House MD Escape Room",
		OrderNumber:    "AB12CD34",
		Name:           "Lisa Cuddy",
		Email:          "cuddy@example.com",
		Date:           "Sunday, March 10, 2024",
		Time:           "2:00 PM",
		NumberOfPeople: 4,
		Status:         "confirmed",
		Created:        true,
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<h1>Booking Confirmed</h1>")
	assert.Contains(t, out, "<dt>Order Number</dt><dd>AB12CD34</dd>")
	assert.Contains(t, out, "<dt>Status</dt><dd>Confirmed</dd>")
	assert.Contains(t, out, "<dt>Number of People</dt><dd>4</dd>")
}

func TestWidget_CarriesBookedSlots(t *testing.T) {
	out := renderWidget(t, widget.SelectionState{Cursor: march()}, nil, WidgetData{
		BookedSlotsJSON: `[{"date":"2024-03-11","time":"14:00"}]`,
	})
	assert.Contains(t, out, `<input type="hidden" name="booked_slots" value="[{&#34;date&#34;:&#34;2024-03-11&#34;,&#34;time&#34;:&#34;14:00&#34;}]" data-widget-state>`)

	out = renderWidget(t, widget.SelectionState{Cursor: march()}, nil, WidgetData{})
	assert.NotContains(t, out, `name="booked_slots"`)
}

func TestMyBookings(t *testing.T) {
	var buf strings.Builder
	err := MyBookings(MyBookingsData{
		BookPath: "/booking",
		Rows: []BookingRow{
			{OrderNumber: "AB12CD34", Href: "/bookings/AB12CD34", Date: "Sunday, March 10, 2024", Time: "2:00 PM", NumberOfPeople: 4, Status: "cancelled", CreatedAt: "Mar 5, 2024 3:30 PM"},
		},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `<tr class="status-cancelled"><td><a href="/bookings/AB12CD34">AB12CD34</a></td>`)
	assert.Contains(t, out, `<td>4</td><td>Cancelled</td><td>Mar 5, 2024 3:30 PM</td>`)
	assert.NotContains(t, out, "empty-state")

	buf.Reset()
	require.NoError(t, MyBookings(MyBookingsData{BookPath: "/booking"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `You have no bookings yet. <a href="/booking">Book a room</a>`)
}
