// internal/api/staff/handlers.go
package staff

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/api/authz"
	"github.com/codr1/Escapade/internal/api/htmx"
	"github.com/codr1/Escapade/internal/bookings"
	"github.com/codr1/Escapade/internal/db"
	stafftempl "github.com/codr1/Escapade/internal/templates/components/staff"
	"github.com/codr1/Escapade/internal/templates/layouts"
)

const (
	PagePath   = "/staff/bookings"
	ListPath   = "/api/v1/staff/bookings"
	StatusPath = ListPath + "/{orderNumber}/status"

	orderNumberParam  = "orderNumber"
	staffQueryTimeout = 5 * time.Second
	createdLayout     = "2006-01-02 15:04"
)

var service *bookings.Service

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *bookings.Service) {
	service = svc
}

// HandleBookingsPage handles GET /staff/bookings.
func HandleBookingsPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	data, status, err := buildList(ctx, service, r.URL.Query())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch staff booking list")
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}

	page := layouts.Base(pageTitle(service), stafftempl.Page(stafftempl.PageData{List: data}))
	apiutil.RenderHTMLComponentStatus(r.Context(), w, status, page, nil, "Failed to render staff bookings page", "Failed to render page")
}

// HandleBookingList handles GET /api/v1/staff/bookings.
func HandleBookingList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	data, status, err := buildList(ctx, service, r.URL.Query())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch staff booking list")
		http.Error(w, "Failed to fetch bookings", http.StatusInternalServerError)
		return
	}

	logger.Debug().
		Str("status", data.Filter.Status).
		Str("date", data.Filter.Date).
		Str("q", data.Filter.Query).
		Int("rows", len(data.Rows)).
		Msg("Staff booking list")

	apiutil.RenderHTMLComponentStatus(r.Context(), w, status, stafftempl.List(data), nil, "Failed to render staff booking list", "Failed to render booking list")
}

// HandleSetStatus handles POST /api/v1/staff/bookings/{orderNumber}/status
// and answers with the updated table row.
func HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	orderNumber := strings.TrimSpace(r.PathValue(orderNumberParam))
	status := apiutil.TrimmedFormValue(r.PostForm, "status")

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	updated, err := service.SetStatus(ctx, orderNumber, status)
	if err != nil {
		var fieldErr apiutil.FieldError
		switch {
		case errors.As(err, &fieldErr):
			http.Error(w, fieldErr.Error(), http.StatusBadRequest)
		case errors.Is(err, bookings.ErrNotFound):
			http.Error(w, "Booking not found", http.StatusNotFound)
		case errors.Is(err, bookings.ErrSlotTaken):
			renderSlotTaken(ctx, w, r, orderNumber)
		default:
			logger.Error().Err(err).Str("order_number", orderNumber).Msg("Failed to update booking status")
			http.Error(w, "Failed to update booking", http.StatusInternalServerError)
		}
		return
	}

	event := logger.Info().Str("order_number", updated.OrderNumber).Str("status", updated.Status)
	if user := authz.UserFromContext(r.Context()); user != nil {
		event = event.Int64("staff_user_id", user.ID)
	}
	event.Msg("Staff changed booking status")

	apiutil.RenderHTMLComponent(r.Context(), w, stafftempl.Row(toRow(service, updated), bookings.Statuses, ""), nil, "Failed to render booking row", "Failed to render booking row")
}

// renderSlotTaken re-renders the unchanged row with a notice. htmx only swaps
// successful responses, so htmx requests get a 200.
func renderSlotTaken(ctx context.Context, w http.ResponseWriter, r *http.Request, orderNumber string) {
	logger := log.Ctx(r.Context())
	current, err := service.Get(ctx, orderNumber)
	if err != nil {
		logger.Error().Err(err).Str("order_number", orderNumber).Msg("Failed to reload booking")
		http.Error(w, "Failed to update booking", http.StatusInternalServerError)
		return
	}
	status := http.StatusConflict
	if htmx.IsRequest(r) {
		status = http.StatusOK
	}
	row := stafftempl.Row(toRow(service, current), bookings.Statuses, "Another booking now holds this time slot.")
	apiutil.RenderHTMLComponentStatus(r.Context(), w, status, row, nil, "Failed to render booking row", "Failed to render booking row")
}

// buildList runs the filters in query. Invalid filters come back as a 400
// with the message on the list rather than an error.
func buildList(ctx context.Context, svc *bookings.Service, query url.Values) (stafftempl.ListData, int, error) {
	data := stafftempl.ListData{
		ListPath: ListPath,
		Statuses: bookings.Statuses,
		Filter: stafftempl.Filter{
			Status: strings.TrimSpace(query.Get("status")),
			Date:   strings.TrimSpace(query.Get("date")),
			Query:  strings.TrimSpace(query.Get("q")),
		},
	}

	filter, err := bookings.NormalizeFilter(bookings.SearchFilter{
		Status: data.Filter.Status,
		Date:   data.Filter.Date,
		Query:  data.Filter.Query,
	})
	if err != nil {
		var fieldErr apiutil.FieldError
		if errors.As(err, &fieldErr) {
			data.Error = fieldErr.Error()
			return data, http.StatusBadRequest, nil
		}
		return data, 0, err
	}
	data.Filter = stafftempl.Filter{Status: filter.Status, Date: filter.Date, Query: filter.Query}

	rows, err := svc.Search(ctx, filter)
	if err != nil {
		return data, 0, err
	}
	periods, err := svc.DatePeriods(ctx, filter.Date)
	if err != nil {
		return data, 0, err
	}

	data.Rows = make([]stafftempl.BookingRow, 0, len(rows))
	for _, row := range rows {
		data.Rows = append(data.Rows, toRow(svc, row))
	}
	data.Truncated = len(rows) >= filter.Limit
	data.Breadcrumbs = breadcrumbs(data.Filter)
	for _, period := range periods {
		next := data.Filter
		next.Date = period
		data.Periods = append(data.Periods, stafftempl.Period{Label: periodLabel(period, false), Href: filterHref(next)})
	}
	return data, http.StatusOK, nil
}

// breadcrumbs lead from the current date filter back up to all dates.
func breadcrumbs(f stafftempl.Filter) []stafftempl.Period {
	if f.Date == "" {
		return nil
	}
	all := f
	all.Date = ""
	crumbs := []stafftempl.Period{{Label: "All dates", Href: filterHref(all)}}
	for _, length := range []int{len("2006"), len("2006-01")} {
		if len(f.Date) <= length {
			break
		}
		up := f
		up.Date = f.Date[:length]
		crumbs = append(crumbs, stafftempl.Period{Label: periodLabel(up.Date, true), Href: filterHref(up)})
	}
	return crumbs
}

func filterHref(f stafftempl.Filter) string {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", f.Status)
	}
	if f.Date != "" {
		query.Set("date", f.Date)
	}
	if f.Query != "" {
		query.Set("q", f.Query)
	}
	if len(query) == 0 {
		return PagePath
	}
	return PagePath + "?" + query.Encode()
}

// periodLabel names a drill-down step: "2024", "March 2024" or "March 10".
// Days drop the year unless long is set.
func periodLabel(period string, long bool) string {
	switch len(period) {
	case len("2006-01"):
		if t, err := time.Parse("2006-01", period); err == nil {
			return t.Format("January 2006")
		}
	case len("2006-01-02"):
		if t, err := time.Parse("2006-01-02", period); err == nil {
			if long {
				return t.Format("January 2, 2006")
			}
			return t.Format("January 2")
		}
	}
	return period
}

func toRow(svc *bookings.Service, booking db.Booking) stafftempl.BookingRow {
	return stafftempl.BookingRow{
		OrderNumber:    booking.OrderNumber,
		DetailHref:     "/bookings/" + url.PathEscape(booking.OrderNumber),
		StatusPath:     ListPath + "/" + url.PathEscape(booking.OrderNumber) + "/status",
		Name:           booking.Name,
		Email:          booking.Email,
		Date:           booking.Date,
		Time:           svc.Details(booking).Time,
		NumberOfPeople: booking.NumberOfPeople,
		Status:         booking.Status,
		CreatedAt:      booking.CreatedAt.In(svc.Location()).Format(createdLayout),
	}
}

func pageTitle(svc *bookings.Service) string {
	if venue := strings.TrimSpace(svc.VenueName()); venue != "" {
		return "Bookings | " + venue
	}
	return "Bookings"
}
