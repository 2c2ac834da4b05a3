// Package bookings owns stored escape-room bookings: the booked-slot feed the
// widget is built from, form submission and order lookup.
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/config"
	"github.com/codr1/Escapade/internal/db"
	"github.com/codr1/Escapade/internal/email"
	"github.com/codr1/Escapade/internal/widget"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var (
	ErrSlotTaken = errors.New("time slot already booked")
	ErrNotFound  = errors.New("booking not found")
)

type Options struct {
	VenueName    string
	WindowDays   int
	MaxPartySize int
	PhoneRegion  string
	TimeSlots    []widget.TimeSlot
	Location     *time.Location
	Now          func() time.Time
}

// OptionsFromConfig maps the booking section of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		VenueName:    cfg.App.Name,
		WindowDays:   cfg.Booking.WindowDays,
		MaxPartySize: cfg.Booking.MaxPartySize,
		PhoneRegion:  cfg.Booking.PhoneRegion,
	}
}

type Service struct {
	db           *db.DB
	mailer       email.EmailSender
	venueName    string
	windowDays   int
	maxPartySize int
	phoneRegion  string
	slots        []widget.TimeSlot
	loc          *time.Location
	now          func() time.Time

	// sent receives the done channel of each async email attempt.
	sent func(<-chan struct{})
}

// NewService builds a Service. mailer may be nil, in which case no
// confirmation emails are sent.
func NewService(database *db.DB, mailer email.EmailSender, opts Options) *Service {
	s := &Service{
		db:           database,
		mailer:       mailer,
		venueName:    opts.VenueName,
		windowDays:   opts.WindowDays,
		maxPartySize: opts.MaxPartySize,
		phoneRegion:  opts.PhoneRegion,
		slots:        opts.TimeSlots,
		loc:          opts.Location,
		now:          opts.Now,
	}
	if s.maxPartySize <= 0 {
		s.maxPartySize = 10
	}
	if s.phoneRegion == "" {
		s.phoneRegion = "US"
	}
	if len(s.slots) == 0 {
		s.slots = widget.DefaultTimeSlots
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) TimeSlots() []widget.TimeSlot { return s.slots }

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) MaxPartySize() int { return s.maxPartySize }

func (s *Service) VenueName() string { return s.venueName }

// Now is the service clock; widgets built from its feed share it.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func (s *Service) isDefinedSlot(value string) bool {
	for _, slot := range s.slots {
		if slot.Value == value {
			return true
		}
	}
	return false
}

// BookedSlots returns active bookings from today through the configured
// window, ordered by date then time.
func (s *Service) BookedSlots(ctx context.Context) ([]widget.BookingRecord, error) {
	today := s.today()
	from := today.Format(widget.DateLayout)
	to := today.AddDate(0, 0, s.windowDays).Format(widget.DateLayout)

	rows, err := s.db.Queries.ListActiveBookedSlots(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}

	records := make([]widget.BookingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, widget.BookingRecord{Date: row.Date, Time: row.Time})
	}
	return records, nil
}

// Create validates req, stores it as a confirmed booking and queues the
// confirmation email. It returns ErrSlotTaken when an active booking already
// holds the date and time, or an apiutil.FieldError for invalid input.
func (s *Service) Create(ctx context.Context, req Request) (db.Booking, error) {
	logger := log.Ctx(ctx)

	req, err := s.validate(req)
	if err != nil {
		return db.Booking{}, err
	}

	var booking db.Booking
	err = s.db.RunInTx(ctx, func(txdb *db.DB) error {
		count, err := txdb.Queries.CountActiveBookingsAt(ctx, req.Date, req.Time)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if count > 0 {
			return ErrSlotTaken
		}

		booking, err = txdb.Queries.CreateBooking(ctx, db.CreateBookingParams{
			OrderNumber:    NewOrderNumber(),
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Date:           req.Date,
			Time:           req.Time,
			NumberOfPeople: req.NumberOfPeople,
			Status:         StatusConfirmed,
			UserID:         sql.NullInt64{Int64: req.UserID, Valid: req.UserID > 0},
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.Booking{}, err
	}

	logger.Info().
		Str("order_number", booking.OrderNumber).
		Int64("user_id", req.UserID).
		Str("date", booking.Date).
		Str("time", booking.Time).
		Int64("number_of_people", booking.NumberOfPeople).
		Msg("Booking created")

	s.sendConfirmation(ctx, booking)
	return booking, nil
}

// Get looks up a booking by order number, case-insensitively.
func (s *Service) Get(ctx context.Context, orderNumber string) (db.Booking, error) {
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))
	if orderNumber == "" {
		return db.Booking{}, ErrNotFound
	}
	booking, err := s.db.Queries.GetBookingByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Booking{}, ErrNotFound
		}
		return db.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// Details formats booking for customer-facing email and pages.
func (s *Service) Details(booking db.Booking) email.BookingDetails {
	return email.BookingDetails{
		VenueName:      s.venueName,
		OrderNumber:    booking.OrderNumber,
		Name:           booking.Name,
		Date:           s.displayDate(booking.Date),
		Time:           s.displayTime(booking.Time),
		NumberOfPeople: booking.NumberOfPeople,
	}
}

func (s *Service) displayDate(date string) string {
	long, err := widget.LongDate(date)
	if err != nil {
		return date
	}
	return long
}

func (s *Service) displayTime(value string) string {
	for _, slot := range s.slots {
		if slot.Value == value {
			return slot.Label
		}
	}
	return value
}

func (s *Service) sendConfirmation(ctx context.Context, booking db.Booking) {
	if s.mailer == nil {
		return
	}
	logger := log.Ctx(ctx).With().Str("order_number", booking.OrderNumber).Logger()
	done := email.SendAsync(ctx, s.mailer, booking.Email, email.BuildConfirmationEmail(s.Details(booking)), &logger)
	if s.sent != nil {
		s.sent(done)
	}
}

// NewOrderNumber returns the first eight hex digits of a random UUID,
// upper-cased.
func NewOrderNumber() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
