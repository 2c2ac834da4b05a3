// internal/api/booking/handlers.go
package booking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/api/authz"
	"github.com/codr1/Escapade/internal/api/htmx"
	"github.com/codr1/Escapade/internal/bookings"
	"github.com/codr1/Escapade/internal/metrics"
	"github.com/codr1/Escapade/internal/ratelimit"
	bookingtempl "github.com/codr1/Escapade/internal/templates/components/booking"
	"github.com/codr1/Escapade/internal/templates/layouts"
	"github.com/codr1/Escapade/internal/widget"
)

const (
	SelectPath = "/api/v1/booking/select"
	SubmitPath = "/bookings"
	PagePath   = "/booking"

	MyBookingsPath = "/my-bookings"

	orderNumberParam = "orderNumber"
	bookingTimeout   = 5 * time.Second

	noticeSlotTaken = "slot_taken"

	bookedSlotsField = "booked_slots"

	actionSelectDate = "select_date"
	actionSelectTime = "select_time"
	actionNavigate   = "navigate"
)

var (
	service     *bookings.Service
	stats       *metrics.BookingMetrics
	serviceOnce sync.Once

	limiter    *ratelimit.Limiter
	trustProxy bool
)

// InitHandlers must be called during server startup before handling requests.
// m may be nil when metrics are disabled.
func InitHandlers(svc *bookings.Service, m *metrics.BookingMetrics) {
	if svc == nil {
		return
	}
	serviceOnce.Do(func() {
		service = svc
		stats = m
	})
}

// InitRateLimiter enables per-email and per-IP throttling of booking
// submissions. Without it submissions are not throttled.
func InitRateLimiter(l *ratelimit.Limiter, trustForwardedFor bool) {
	limiter = l
	trustProxy = trustForwardedFor
}

func loadService() *bookings.Service {
	return service
}

type serviceClock struct {
	svc *bookings.Service
}

func (c serviceClock) Now() time.Time { return c.svc.Now() }

// loadWidget builds a widget from the current booking feed.
func loadWidget(ctx context.Context, svc *bookings.Service) (*widget.Widget, []byte, error) {
	records, err := svc.BookedSlots(ctx)
	if err != nil {
		return nil, nil, err
	}
	payload, err := widget.EncodeBookings(records)
	if err != nil {
		return nil, nil, fmt.Errorf("encode booked slots: %w", err)
	}
	return widgetFromPayload(svc, payload)
}

// widgetFromPayload builds a widget from a serialized booking feed: the JSON
// embedded in the page, which the widget also carries in its state inputs.
func widgetFromPayload(svc *bookings.Service, payload []byte) (*widget.Widget, []byte, error) {
	parsed, err := widget.ParseBookings(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	w := widget.New(parsed,
		widget.WithClock(serviceClock{svc: svc}),
		widget.WithLocation(svc.Location()),
		widget.WithTimeSlots(svc.TimeSlots()),
	)
	return w, payload, nil
}

// HandleBookingPage handles GET /booking.
func HandleBookingPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingTimeout)
	defer cancel()

	bw, payload, err := loadWidget(ctx, svc)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load booking widget")
		http.Error(w, "Failed to load availability", http.StatusInternalServerError)
		return
	}

	state := bw.InitialState()
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		if cursor, err := widget.ParseYearMonth(raw); err == nil {
			state.Cursor = cursor
		}
	}

	view, err := bw.Project(state)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to project booking widget")
		http.Error(w, "Failed to render booking widget", http.StatusInternalServerError)
		return
	}

	page := bookingtempl.Page(bookingtempl.PageData{
		BookedSlotsJSON: string(payload),
		Widget:          widgetData(svc, view, payload, noticeMessage(r.URL.Query().Get("notice")), nil, defaultValues(r)),
	})
	apiutil.RenderHTMLComponent(r.Context(), w, layouts.Base(pageTitle(svc, "Book"), page), nil, "Failed to render booking page", "Failed to render page")
}

// HandleSelect handles POST /api/v1/booking/select. Every click inside the
// widget is delegated here; the identifier that is present picks the
// transition. The booking feed comes back with the widget state, so the
// index is rebuilt from the page payload rather than the database.
func HandleSelect(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingTimeout)
	defer cancel()

	var (
		bw      *widget.Widget
		payload []byte
		err     error
	)
	if raw := strings.TrimSpace(r.PostForm.Get(bookedSlotsField)); raw != "" {
		bw, payload, err = widgetFromPayload(svc, []byte(raw))
		if err != nil {
			logger.Warn().Err(err).Msg("Rejected malformed booked slots payload")
			http.Error(w, "booked_slots is malformed", http.StatusBadRequest)
			return
		}
	} else {
		bw, payload, err = loadWidget(ctx, svc)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load booking widget")
			http.Error(w, "Failed to load availability", http.StatusInternalServerError)
			return
		}
	}

	state, err := widget.DecodeState(
		r.PostForm.Get("month"),
		r.PostForm.Get("selected_date"),
		r.PostForm.Get("selected_time"),
		bw.InitialState().Cursor,
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if state.SelectedTime != "" && !bw.IsDefinedSlot(state.SelectedTime) {
		http.Error(w, "selected_time is not a defined time slot", http.StatusBadRequest)
		return
	}

	action, transition, err := dispatch(bw, state, r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stats.ObserveTransition(action, transition.Applied)

	logger.Debug().
		Str("action", action).
		Bool("applied", transition.Applied).
		Str("phase", transition.State.Phase().String()).
		Msg("Booking widget transition")

	view, err := bw.Project(transition.State)
	if err != nil {
		logger.Error().Err(err).Str("action", action).Msg("Failed to project booking widget")
		http.Error(w, "Failed to render booking widget", http.StatusInternalServerError)
		return
	}

	var headers map[string]string
	if transition.Effects.ScrollToForm && htmx.IsRequest(r) {
		headers = map[string]string{
			"HX-Reswap": fmt.Sprintf("outerHTML show:#%s:top", bookingtempl.FormSectionID),
		}
	}

	component := bookingtempl.Widget(widgetData(svc, view, payload, "", nil, defaultValues(r)))
	apiutil.RenderHTMLComponent(r.Context(), w, component, headers, "Failed to render booking widget", "Failed to render booking widget")
}

func dispatch(bw *widget.Widget, state widget.SelectionState, form url.Values) (string, widget.Transition, error) {
	date := strings.TrimSpace(form.Get("select_date"))
	timeValue := strings.TrimSpace(form.Get("select_time"))
	nav := strings.TrimSpace(form.Get("nav"))

	switch {
	case date != "":
		if _, err := time.Parse(widget.DateLayout, date); err != nil {
			return "", widget.Transition{}, fmt.Errorf("select_date must be in YYYY-MM-DD format")
		}
		return actionSelectDate, bw.SelectDate(state, date), nil
	case timeValue != "":
		if !bw.IsDefinedSlot(timeValue) {
			return "", widget.Transition{}, fmt.Errorf("select_time is not a defined time slot")
		}
		return actionSelectTime, bw.SelectTime(state, timeValue), nil
	case nav != "":
		switch nav {
		case "-1":
			return actionNavigate, bw.NavigateMonth(state, -1), nil
		case "1", "+1":
			return actionNavigate, bw.NavigateMonth(state, 1), nil
		default:
			return "", widget.Transition{}, fmt.Errorf("nav must be -1 or 1")
		}
	default:
		return "", widget.Transition{}, fmt.Errorf("one of select_date, select_time or nav is required")
	}
}

// HandleBookedSlots handles GET /api/v1/booking/booked-slots.
func HandleBookedSlots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingTimeout)
	defer cancel()

	records, err := svc.BookedSlots(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list booked slots")
		http.Error(w, "Failed to load availability", http.StatusInternalServerError)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, records); err != nil {
		logger.Error().Err(err).Msg("Failed to write booked slots response")
	}
}

// HandleCreateBooking handles POST /bookings. The booking is owned by the
// signed-in user.
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	user := authz.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	values := bookingtempl.FormValues{
		Name:           apiutil.TrimmedFormValue(r.PostForm, "name"),
		Email:          apiutil.TrimmedFormValue(r.PostForm, "email"),
		Phone:          apiutil.TrimmedFormValue(r.PostForm, "phone"),
		NumberOfPeople: apiutil.TrimmedFormValue(r.PostForm, "number_of_people"),
	}
	date := apiutil.TrimmedFormValue(r.PostForm, "date")
	timeValue := apiutil.TrimmedFormValue(r.PostForm, "time")

	ctx, cancel := context.WithTimeout(r.Context(), bookingTimeout)
	defer cancel()

	if limiter != nil {
		ip := ratelimit.ClientIP(r, trustProxy)
		if result := limiter.CheckSubmission(values.Email, ip); !result.Allowed {
			stats.ObserveSubmission("rate_limited")
			ratelimit.LogExceeded(logger, values.Email, ip, result)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter)))
			http.Error(w, "Too many booking attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}
		limiter.RecordSubmission(values.Email, ip)
	}

	people, err := apiutil.ParsePositiveInt64Field(values.NumberOfPeople, "number_of_people")
	if err != nil {
		stats.ObserveSubmission("invalid")
		renderRejectedSubmission(ctx, w, r, svc, date, timeValue, values, apiutil.FieldError{Field: "number_of_people", Reason: strings.TrimPrefix(err.Error(), "number_of_people ")})
		return
	}

	created, err := svc.Create(ctx, bookings.Request{
		Name:           values.Name,
		Email:          values.Email,
		Phone:          values.Phone,
		Date:           date,
		Time:           timeValue,
		NumberOfPeople: people,
		UserID:         user.ID,
	})
	if err != nil {
		var fieldErr apiutil.FieldError
		switch {
		case errors.As(err, &fieldErr):
			stats.ObserveSubmission("invalid")
			renderRejectedSubmission(ctx, w, r, svc, date, timeValue, values, fieldErr)
		case errors.Is(err, bookings.ErrSlotTaken):
			stats.ObserveSubmission(noticeSlotTaken)
			logger.Info().Str("date", date).Str("time", timeValue).Msg("Booking rejected: slot taken")
			http.Redirect(w, r, slotTakenRedirect(date), http.StatusSeeOther)
		default:
			stats.ObserveSubmission("error")
			logger.Error().Err(err).Msg("Failed to create booking")
			http.Error(w, "Failed to create booking", http.StatusInternalServerError)
		}
		return
	}

	stats.ObserveSubmission("created")
	http.Redirect(w, r, SubmitPath+"/"+url.PathEscape(created.OrderNumber)+"?created=1", http.StatusSeeOther)
}

func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// renderRejectedSubmission re-renders the booking page with the submitted
// selection restored and the offending field marked.
func renderRejectedSubmission(ctx context.Context, w http.ResponseWriter, r *http.Request, svc *bookings.Service, date, timeValue string, values bookingtempl.FormValues, fieldErr apiutil.FieldError) {
	logger := log.Ctx(r.Context())

	bw, payload, err := loadWidget(ctx, svc)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load booking widget")
		http.Error(w, "Failed to load availability", http.StatusInternalServerError)
		return
	}

	view, err := bw.Project(restoreState(bw, date, timeValue))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to project booking widget")
		http.Error(w, "Failed to render booking widget", http.StatusInternalServerError)
		return
	}

	data := widgetData(svc, view, payload, "Please correct the highlighted field.", map[string]string{fieldErr.Field: fieldErr.Error()}, values)
	if !view.ShowForm {
		data.Notice = fieldErr.Error()
	}

	page := bookingtempl.Page(bookingtempl.PageData{
		BookedSlotsJSON: string(payload),
		Widget:          data,
	})

	apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusBadRequest, layouts.Base(pageTitle(svc, "Book"), page), nil, "Failed to render booking page", "Failed to render page")
}

// restoreState replays the submitted date and time through the state
// machine so only a still-valid selection comes back.
func restoreState(bw *widget.Widget, date, timeValue string) widget.SelectionState {
	state := bw.InitialState()
	if date == "" {
		return state
	}
	byDate := bw.SelectDate(state, date)
	if !byDate.Applied {
		return state
	}
	state = byDate.State
	if cursor, err := widget.ParseYearMonth(date[:7]); err == nil {
		state.Cursor = cursor
	}
	if timeValue == "" || !bw.IsDefinedSlot(timeValue) {
		return state
	}
	return bw.SelectTime(state, timeValue).State
}

func slotTakenRedirect(date string) string {
	query := url.Values{}
	query.Set("notice", noticeSlotTaken)
	if len(date) >= 7 {
		if _, err := widget.ParseYearMonth(date[:7]); err == nil {
			query.Set("month", date[:7])
		}
	}
	return PagePath + "?" + query.Encode()
}

// HandleBookingLookup handles GET /bookings/{orderNumber}. Customers see only
// their own bookings; anything else looks like a miss.
func HandleBookingLookup(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	orderNumber := strings.TrimSpace(r.PathValue(orderNumberParam))

	ctx, cancel := context.WithTimeout(r.Context(), bookingTimeout)
	defer cancel()

	stored, err := svc.Get(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, bookings.ErrNotFound) {
			renderNotFound(w, r, svc, orderNumber)
			return
		}
		logger.Error().Err(err).Str("order_number", orderNumber).Msg("Failed to load booking")
		http.Error(w, "Failed to load booking", http.StatusInternalServerError)
		return
	}
	if user := authz.UserFromContext(r.Context()); !authz.CanViewBooking(user, stored.UserID) {
		event := logger.Warn().Str("order_number", stored.OrderNumber)
		if user != nil {
			event = event.Int64("user_id", user.ID)
		}
		event.Msg("Booking lookup denied")
		renderNotFound(w, r, svc, orderNumber)
		return
	}

	details := svc.Details(stored)
	summary := bookingtempl.OrderSummary(bookingtempl.OrderSummaryData{
		VenueName:      details.VenueName,
		OrderNumber:    details.OrderNumber,
		Name:           details.Name,
		Email:          stored.Email,
		Date:           details.Date,
		Time:           details.Time,
		NumberOfPeople: details.NumberOfPeople,
		Status:         stored.Status,
		Created:        r.URL.Query().Get("created") == "1",
	})
	apiutil.RenderHTMLComponent(r.Context(), w, layouts.Base(pageTitle(svc, "Order #"+stored.OrderNumber), summary), nil, "Failed to render booking summary", "Failed to render page")
}

func renderNotFound(w http.ResponseWriter, r *http.Request, svc *bookings.Service, orderNumber string) {
	apiutil.RenderHTMLComponentStatus(r.Context(), w, http.StatusNotFound, layouts.Base(pageTitle(svc, "Booking not found"), bookingtempl.NotFound(orderNumber)), nil, "Failed to render not found page", "Failed to render page")
}

// HandleMyBookings handles GET /my-bookings.
func HandleMyBookings(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	svc := loadService()
	if svc == nil {
		logger.Error().Msg("Booking service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	user := authz.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingTimeout)
	defer cancel()

	rows, err := svc.ListForUser(ctx, user.ID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list user bookings")
		http.Error(w, "Failed to load bookings", http.StatusInternalServerError)
		return
	}

	data := bookingtempl.MyBookingsData{
		BookPath: PagePath,
		Rows:     make([]bookingtempl.BookingRow, 0, len(rows)),
	}
	for _, row := range rows {
		details := svc.Details(row)
		data.Rows = append(data.Rows, bookingtempl.BookingRow{
			OrderNumber:    row.OrderNumber,
			Href:           SubmitPath + "/" + url.PathEscape(row.OrderNumber),
			Date:           details.Date,
			Time:           details.Time,
			NumberOfPeople: row.NumberOfPeople,
			Status:         row.Status,
			CreatedAt:      row.CreatedAt.In(svc.Location()).Format("Jan 2, 2006 3:04 PM"),
		})
	}
	apiutil.RenderHTMLComponent(r.Context(), w, layouts.Base(pageTitle(svc, "My bookings"), bookingtempl.MyBookings(data)), nil, "Failed to render bookings list", "Failed to render page")
}

// defaultValues prefills the contact email from the signed-in account.
func defaultValues(r *http.Request) bookingtempl.FormValues {
	if user := authz.UserFromContext(r.Context()); user != nil {
		return bookingtempl.FormValues{Email: user.Email}
	}
	return bookingtempl.FormValues{}
}

func widgetData(svc *bookings.Service, view widget.View, payload []byte, notice string, fieldErrors map[string]string, values bookingtempl.FormValues) bookingtempl.WidgetData {
	return bookingtempl.WidgetData{
		BookedSlotsJSON: string(payload),
		View:            view,
		SelectPath:      SelectPath,
		SubmitPath:      SubmitPath,
		Notice:          notice,
		FieldErrors:     fieldErrors,
		Values:          values,
		MaxPartySize:    svc.MaxPartySize(),
	}
}

func noticeMessage(code string) string {
	switch strings.TrimSpace(code) {
	case noticeSlotTaken:
		return "Sorry, that time slot was just booked. Please choose another."
	default:
		return ""
	}
}

func pageTitle(svc *bookings.Service, title string) string {
	venue := strings.TrimSpace(svc.VenueName())
	if venue == "" {
		return title
	}
	return title + " | " + venue
}
