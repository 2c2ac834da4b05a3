package staff

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Page renders the staff booking list with its filter bar. The bar re-fetches
// the list partial as filters change.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		list := data.List
		var b strings.Builder
		b.WriteString(`<section class="staff-bookings"><h1>Bookings</h1>`)
		fmt.Fprintf(&b, `<form id="bookingFilters" class="filter-bar" method="get" hx-get="%s" hx-target="#%s" hx-swap="outerHTML" hx-push-url="false" hx-trigger="change, keyup changed delay:300ms from:#filterQuery, submit">`,
			html.EscapeString(list.ListPath), ListID)
		fmt.Fprintf(&b, `<input id="filterQuery" type="search" name="q" value="%s" placeholder="Order number, name or email" maxlength="100">`, html.EscapeString(list.Filter.Query))
		b.WriteString(`<select name="status"><option value="">All statuses</option>`)
		for _, status := range list.Statuses {
			selected := ""
			if status == list.Filter.Status {
				selected = " selected"
			}
			fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, html.EscapeString(status), selected, html.EscapeString(statusLabel(status)))
		}
		b.WriteString(`</select>`)
		fmt.Fprintf(&b, `<input type="text" name="date" value="%s" placeholder="YYYY, YYYY-MM or YYYY-MM-DD" maxlength="10">`, html.EscapeString(list.Filter.Date))
		b.WriteString(`<button type="submit" class="btn-secondary">Filter</button></form>`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		if err := List(list).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// List renders the filtered bookings table. It is the swap target for the
// filter bar and the date drill-down.
func List(data ListData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<div id="%s" class="staff-booking-list">`, ListID)
		if data.Error != "" {
			fmt.Fprintf(&b, `<div class="booking-notice" role="alert">%s</div>`, html.EscapeString(data.Error))
		}
		writeDateHierarchy(&b, data)

		switch count := len(data.Rows); {
		case count == 0:
			b.WriteString(`<p class="empty-state">No bookings match these filters.</p></div>`)
			_, err := io.WriteString(w, b.String())
			return err
		case data.Truncated:
			fmt.Fprintf(&b, `<p class="result-count">Showing the newest %d bookings. Narrow the filters to see more.</p>`, count)
		default:
			fmt.Fprintf(&b, `<p class="result-count">%d booking%s</p>`, count, plural(count))
		}

		b.WriteString(`<table class="booking-table"><thead><tr>`)
		for _, heading := range []string{"Order Number", "Name", "Email", "Date", "Time", "People", "Status", "Created"} {
			fmt.Fprintf(&b, `<th>%s</th>`, heading)
		}
		b.WriteString(`</tr></thead><tbody>`)
		for _, row := range data.Rows {
			b.WriteString(rowHTML(row, data.Statuses, ""))
		}
		b.WriteString(`</tbody></table></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Row renders one booking row; status changes swap it in place.
func Row(row BookingRow, statuses []string, notice string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rowHTML(row, statuses, notice))
		return err
	})
}

func rowHTML(row BookingRow, statuses []string, notice string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<tr id="booking-%s" class="status-%s">`, html.EscapeString(row.OrderNumber), html.EscapeString(row.Status))
	fmt.Fprintf(&b, `<td><a href="%s">%s</a></td>`, html.EscapeString(row.DetailHref), html.EscapeString(row.OrderNumber))
	for _, value := range []string{row.Name, row.Email, row.Date, row.Time} {
		fmt.Fprintf(&b, `<td>%s</td>`, html.EscapeString(value))
	}
	fmt.Fprintf(&b, `<td>%d</td>`, row.NumberOfPeople)

	fmt.Fprintf(&b, `<td><form hx-post="%s" hx-target="closest tr" hx-swap="outerHTML" hx-trigger="change"><select name="status" aria-label="Status for order %s">`,
		html.EscapeString(row.StatusPath), html.EscapeString(row.OrderNumber))
	for _, status := range statuses {
		selected := ""
		if status == row.Status {
			selected = " selected"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, html.EscapeString(status), selected, html.EscapeString(statusLabel(status)))
	}
	b.WriteString(`</select></form>`)
	if notice != "" {
		fmt.Fprintf(&b, `<p class="field-error">%s</p>`, html.EscapeString(notice))
	}
	b.WriteString(`</td>`)
	fmt.Fprintf(&b, `<td>%s</td></tr>`, html.EscapeString(row.CreatedAt))
	return b.String()
}

func writeDateHierarchy(b *strings.Builder, data ListData) {
	if len(data.Breadcrumbs) == 0 && len(data.Periods) == 0 {
		return
	}
	b.WriteString(`<nav class="date-hierarchy">`)
	for _, crumb := range data.Breadcrumbs {
		writePeriodLink(b, crumb, "date-crumb", data.ListPath)
	}
	for _, period := range data.Periods {
		writePeriodLink(b, period, "date-period", data.ListPath)
	}
	b.WriteString(`</nav>`)
}

func writePeriodLink(b *strings.Builder, period Period, class, listPath string) {
	fmt.Fprintf(b, `<a class="%s" href="%s" hx-get="%s" hx-target="#%s" hx-swap="outerHTML">%s</a>`,
		class,
		html.EscapeString(period.Href),
		html.EscapeString(swapHref(listPath, period.Href)),
		ListID,
		html.EscapeString(period.Label),
	)
}

// swapHref points a page link at the list partial, keeping its query.
func swapHref(listPath, href string) string {
	if i := strings.IndexByte(href, '?'); i >= 0 {
		return listPath + href[i:]
	}
	return listPath
}

func statusLabel(status string) string {
	if status == "" {
		return ""
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
