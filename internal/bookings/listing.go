package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/db"
)

const (
	DefaultSearchLimit = 200
	maxSearchTerm      = 100
)

// Statuses lists every booking status in display order.
var Statuses = []string{StatusPending, StatusConfirmed, StatusCancelled}

// SearchFilter narrows the staff booking list. Date may be a year, a month
// or a single day; Query matches order number, name or email.
type SearchFilter struct {
	Status string
	Date   string
	Query  string
	Limit  int
}

// IsStatus reports whether status is a known booking status.
func IsStatus(status string) bool {
	for _, known := range Statuses {
		if status == known {
			return true
		}
	}
	return false
}

// NormalizeFilter trims f and rejects values the list cannot filter on.
func NormalizeFilter(f SearchFilter) (SearchFilter, error) {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.Date = strings.TrimSpace(f.Date)
	f.Query = strings.TrimSpace(f.Query)

	if f.Status != "" && !IsStatus(f.Status) {
		return f, apiutil.FieldError{Field: "status", Reason: "must be pending, confirmed or cancelled"}
	}
	if f.Date != "" && !validDatePrefix(f.Date) {
		return f, apiutil.FieldError{Field: "date", Reason: "must be YYYY, YYYY-MM or YYYY-MM-DD"}
	}
	if utf8.RuneCountInString(f.Query) > maxSearchTerm {
		return f, apiutil.FieldError{Field: "q", Reason: fmt.Sprintf("must be at most %d characters", maxSearchTerm)}
	}
	if f.Limit <= 0 || f.Limit > DefaultSearchLimit {
		f.Limit = DefaultSearchLimit
	}
	return f, nil
}

func validDatePrefix(value string) bool {
	var layout string
	switch len(value) {
	case len("2006"):
		layout = "2006"
	case len("2006-01"):
		layout = "2006-01"
	case len("2006-01-02"):
		layout = "2006-01-02"
	default:
		return false
	}
	_, err := time.Parse(layout, value)
	return err == nil
}

// ListForUser returns userID's bookings, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]db.Booking, error) {
	rows, err := s.db.Queries.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return rows, nil
}

// Search returns bookings matching f, newest first. Invalid filters return an
// apiutil.FieldError.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]db.Booking, error) {
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Queries.SearchBookings(ctx, db.SearchBookingsParams{
		Status:     f.Status,
		DatePrefix: f.Date,
		Term:       f.Query,
		Limit:      int64(f.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search bookings: %w", err)
	}
	return rows, nil
}

// SetStatus moves a booking to status. Re-activating a cancelled booking
// fails with ErrSlotTaken when another booking has since taken the slot.
func (s *Service) SetStatus(ctx context.Context, orderNumber, status string) (db.Booking, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !IsStatus(status) {
		return db.Booking{}, apiutil.FieldError{Field: "status", Reason: "must be pending, confirmed or cancelled"}
	}
	orderNumber = strings.ToUpper(strings.TrimSpace(orderNumber))

	var updated db.Booking
	err := s.db.RunInTx(ctx, func(txdb *db.DB) error {
		booking, err := txdb.Queries.GetBookingByOrderNumber(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get booking: %w", err)
		}
		if booking.Status == status {
			updated = booking
			return nil
		}

		if booking.Status == StatusCancelled {
			count, err := txdb.Queries.CountActiveBookingsAt(ctx, booking.Date, booking.Time)
			if err != nil {
				return fmt.Errorf("check slot: %w", err)
			}
			if count > 0 {
				return ErrSlotTaken
			}
		}

		if err := txdb.Queries.UpdateBookingStatus(ctx, booking.ID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		booking.Status = status
		updated = booking
		return nil
	})
	if err != nil {
		return db.Booking{}, err
	}

	log.Ctx(ctx).Info().
		Str("order_number", updated.OrderNumber).
		Str("status", updated.Status).
		Msg("Booking status changed")
	return updated, nil
}

// DatePeriods returns the next level of the date drill-down under date:
// years when date is empty, months under a year and days under a month. A
// single day has nothing below it.
func (s *Service) DatePeriods(ctx context.Context, date string) ([]string, error) {
	date = strings.TrimSpace(date)
	var length int
	switch {
	case date == "":
		length = len("2006")
	case !validDatePrefix(date):
		return nil, apiutil.FieldError{Field: "date", Reason: "must be YYYY, YYYY-MM or YYYY-MM-DD"}
	case len(date) == len("2006"):
		length = len("2006-01")
	case len(date) == len("2006-01"):
		length = len("2006-01-02")
	default:
		return nil, nil
	}

	periods, err := s.db.Queries.ListBookingDatePeriods(ctx, date, length)
	if err != nil {
		return nil, fmt.Errorf("list date periods: %w", err)
	}
	return periods, nil
}
