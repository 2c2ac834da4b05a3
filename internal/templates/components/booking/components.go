package booking

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/Escapade/internal/widget"
)

// Clicks anywhere in the widget bubble to the container; only elements that
// carry a selection identifier trigger a request.
const (
	delegatedTrigger = `click[target.closest('[data-select-date],[data-select-time],[data-nav]')]`
	delegatedVals    = `js:{` +
		`select_date: event.target.closest('[data-select-date]')?.dataset.selectDate ?? '', ` +
		`select_time: event.target.closest('[data-select-time]')?.dataset.selectTime ?? '', ` +
		`nav: event.target.closest('[data-nav]')?.dataset.nav ?? ''}`
)

// Page renders the widget together with the booking feed it was built from.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="booking-page"><h1>Book Your Escape</h1>`)
		b.WriteString(`<script type="application/json" id="`)
		b.WriteString(BookedSlotsDataID)
		b.WriteString(`">`)
		b.WriteString(escapeScriptJSON(data.BookedSlotsJSON))
		b.WriteString(`</script>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := Widget(data.Widget).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// Widget renders the whole interactive region. It is also the swap target
// for every delegated interaction.
func Widget(data WidgetData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, buildWidgetHTML(data))
		return err
	})
}

func buildWidgetHTML(data WidgetData) string {
	view := data.View
	var b strings.Builder

	fmt.Fprintf(&b, `<div id="%s" class="booking-widget" data-phase="%s" hx-post="%s" hx-trigger="%s" hx-vals="%s" hx-include="#%s [data-widget-state]" hx-target="this" hx-swap="outerHTML">`,
		WidgetID,
		html.EscapeString(view.Phase.String()),
		html.EscapeString(data.SelectPath),
		html.EscapeString(delegatedTrigger),
		html.EscapeString(delegatedVals),
		WidgetID,
	)
	writeStateInput(&b, "month", view.State.Cursor.String())
	writeStateInput(&b, "selected_date", view.State.SelectedDate)
	writeStateInput(&b, "selected_time", view.State.SelectedTime)
	if data.BookedSlotsJSON != "" {
		writeStateInput(&b, "booked_slots", data.BookedSlotsJSON)
	}

	if data.Notice != "" {
		fmt.Fprintf(&b, `<div class="booking-notice" role="alert">%s</div>`, html.EscapeString(data.Notice))
	}

	b.WriteString(`<div class="booking-layout">`)
	b.WriteString(buildCalendarHTML(view.Calendar))
	b.WriteString(`<div class="booking-side">`)
	if view.ShowPrompt {
		b.WriteString(`<div id="selectDatePrompt" class="select-date-prompt"><p>Select a date to see available times.</p></div>`)
	}
	if view.ShowSlots {
		b.WriteString(buildSlotsHTML(view.SelectedDateTitle, view.Slots))
	}
	b.WriteString(`</div></div>`)

	if view.ShowForm && view.Confirmation != nil {
		b.WriteString(buildFormHTML(data, *view.Confirmation))
	}

	b.WriteString(`</div>`)
	return b.String()
}

func writeStateInput(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, `<input type="hidden" name="%s" value="%s" data-widget-state>`, name, html.EscapeString(value))
}

func buildCalendarHTML(grid widget.MonthGrid) string {
	var b strings.Builder
	b.WriteString(`<div class="calendar">`)
	b.WriteString(`<div class="calendar-header">`)
	b.WriteString(`<button type="button" id="prevMonth" class="calendar-nav" data-nav="-1" aria-label="Previous month">&lsaquo;</button>`)
	fmt.Fprintf(&b, `<h2 id="currentMonth">%s</h2>`, html.EscapeString(grid.Title))
	b.WriteString(`<button type="button" id="nextMonth" class="calendar-nav" data-nav="1" aria-label="Next month">&rsaquo;</button>`)
	b.WriteString(`</div>`)

	b.WriteString(`<div id="calendarGrid" class="calendar-grid">`)
	for _, name := range grid.Headers {
		fmt.Fprintf(&b, `<div class="calendar-day-header">%s</div>`, html.EscapeString(name))
	}
	for _, cell := range grid.Cells {
		if cell.IsFiller() {
			fmt.Fprintf(&b, `<div class="%s"></div>`, html.EscapeString(cell.Classification.String()))
			continue
		}
		if cell.Clickable() {
			fmt.Fprintf(&b, `<div class="%s" data-select-date="%s">%d</div>`,
				html.EscapeString(cell.Classification.String()),
				html.EscapeString(cell.Date),
				cell.Day,
			)
			continue
		}
		fmt.Fprintf(&b, `<div class="%s" data-date="%s" aria-disabled="true">%d</div>`,
			html.EscapeString(cell.Classification.String()),
			html.EscapeString(cell.Date),
			cell.Day,
		)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func buildSlotsHTML(title string, slots []widget.SlotCell) string {
	var b strings.Builder
	b.WriteString(`<div id="timeSlotsSection" class="time-slots-section">`)
	fmt.Fprintf(&b, `<h3 id="selectedDateTitle">%s</h3>`, html.EscapeString(title))
	b.WriteString(`<div id="timeSlotsList" class="time-slots">`)
	for _, slot := range slots {
		classes := html.EscapeString(strings.Join(slot.Classes(), " "))
		if !slot.Clickable() {
			fmt.Fprintf(&b, `<div class="%s" data-time="%s" aria-disabled="true">%s<br><small>Booked</small></div>`,
				classes,
				html.EscapeString(slot.Value),
				html.EscapeString(slot.Label),
			)
			continue
		}
		fmt.Fprintf(&b, `<div class="%s" data-time="%s" data-select-time="%s">%s</div>`,
			classes,
			html.EscapeString(slot.Value),
			html.EscapeString(slot.Value),
			html.EscapeString(slot.Label),
		)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func buildFormHTML(data WidgetData, confirmation widget.Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div id="%s" class="booking-form-section">`, FormSectionID)
	b.WriteString(`<h3>Complete Your Booking</h3>`)
	fmt.Fprintf(&b, `<p class="confirm-datetime">Selected: <strong id="confirmDateTime">%s</strong></p>`, html.EscapeString(confirmation.Display))

	fmt.Fprintf(&b, `<form method="post" action="%s" class="booking-form">`, html.EscapeString(data.SubmitPath))
	fmt.Fprintf(&b, `<input type="hidden" id="formDate" name="date" value="%s">`, html.EscapeString(confirmation.Fields.Date))
	fmt.Fprintf(&b, `<input type="hidden" id="formTime" name="time" value="%s">`, html.EscapeString(confirmation.Fields.Time))

	writeField(&b, data, "name", "Name", "text", data.Values.Name, `maxlength="100" required`)
	writeField(&b, data, "email", "Email", "email", data.Values.Email, `required`)
	writeField(&b, data, "phone", "Phone", "tel", data.Values.Phone, `required`)
	writeField(&b, data, "number_of_people", "Number of People", "number", data.PartySizeValue(),
		fmt.Sprintf(`min="1" max="%s" required`, data.PartySizeMax()))

	b.WriteString(`<button type="submit" class="btn-primary">Confirm Booking</button>`)
	b.WriteString(`</form></div>`)
	return b.String()
}

func writeField(b *strings.Builder, data WidgetData, name, label, inputType, value, attrs string) {
	fmt.Fprintf(b, `<div class="form-field"><label for="field_%s">%s</label>`, name, html.EscapeString(label))
	fmt.Fprintf(b, `<input id="field_%s" name="%s" type="%s" value="%s" class="form-control" %s>`,
		name, name, inputType, html.EscapeString(value), attrs)
	if msg := data.FieldError(name); msg != "" {
		fmt.Fprintf(b, `<p class="field-error">%s</p>`, html.EscapeString(msg))
	}
	b.WriteString(`</div>`)
}

// OrderSummary renders a stored booking.
func OrderSummary(data OrderSummaryData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="order-summary">`)
		if data.Created {
			b.WriteString(`<h1>Booking Confirmed</h1>`)
			if data.Email != "" {
				fmt.Fprintf(&b, `<p>A confirmation has been sent to %s.</p>`, html.EscapeString(data.Email))
			}
		} else {
			b.WriteString(`<h1>Your Booking</h1>`)
		}
		b.WriteString(`<dl class="order-details">`)
		writeDetail(&b, "Order Number", data.OrderNumber)
		writeDetail(&b, "Name", data.Name)
		writeDetail(&b, "Date", data.Date)
		writeDetail(&b, "Time", data.Time)
		writeDetail(&b, "Number of People", fmt.Sprintf("%d", data.NumberOfPeople))
		writeDetail(&b, "Status", data.StatusLabel())
		b.WriteString(`</dl>`)
		if data.VenueName != "" {
			fmt.Fprintf(&b, `<p>Please arrive 10 minutes early. We look forward to seeing you at %s!</p>`, html.EscapeString(data.VenueName))
		}
		b.WriteString(`<a href="/booking" class="btn-secondary">Book another room</a> <a href="/my-bookings" class="btn-secondary">My bookings</a>`)
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// NotFound renders the order lookup miss.
func NotFound(orderNumber string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="order-summary"><h1>Booking not found</h1><p>No booking matches order %s.</p><a href="/booking" class="btn-secondary">Make a booking</a></section>`,
			html.EscapeString(orderNumber))
		return err
	})
}

// MyBookings lists the signed-in customer's bookings, newest first.
func MyBookings(data MyBookingsData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="my-bookings"><h1>My Bookings</h1>`)
		if len(data.Rows) == 0 {
			fmt.Fprintf(&b, `<p class="empty-state">You have no bookings yet. <a href="%s">Book a room</a></p></section>`, html.EscapeString(data.BookPath))
			_, err := io.WriteString(w, b.String())
			return err
		}
		b.WriteString(`<table class="booking-table"><thead><tr>`)
		for _, heading := range []string{"Order Number", "Date", "Time", "People", "Status", "Booked On"} {
			fmt.Fprintf(&b, `<th>%s</th>`, heading)
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, row := range data.Rows {
			fmt.Fprintf(&b, `<tr class="status-%s"><td><a href="%s">%s</a></td><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>`,
				html.EscapeString(row.Status),
				html.EscapeString(row.Href),
				html.EscapeString(row.OrderNumber),
				html.EscapeString(row.Date),
				html.EscapeString(row.Time),
				row.NumberOfPeople,
				html.EscapeString(row.StatusLabel()),
				html.EscapeString(row.CreatedAt),
			)
		}
		b.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeDetail(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, `<dt>%s</dt><dd>%s</dd>`, html.EscapeString(label), html.EscapeString(value))
}

// escapeScriptJSON keeps JSON inert inside a script element.
func escapeScriptJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "[]"
	}
	return strings.ReplaceAll(raw, "</", `<\/`)
}
