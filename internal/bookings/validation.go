package bookings

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/codr1/Escapade/internal/api/apiutil"
	"github.com/codr1/Escapade/internal/widget"
)

const maxNameLength = 100

// Request is a submitted booking form after HTTP decoding.
type Request struct {
	Name           string
	Email          string
	Phone          string
	Date           string
	Time           string
	NumberOfPeople int64
	// UserID owns the booking; 0 stores it without an owner.
	UserID int64
}

func (s *Service) validate(req Request) (Request, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)

	if req.Name == "" {
		return req, apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if len([]rune(req.Name)) > maxNameLength {
		return req, apiutil.FieldError{Field: "name", Reason: "must be 100 characters or fewer"}
	}

	if req.Email == "" {
		return req, apiutil.FieldError{Field: "email", Reason: "is required"}
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return req, apiutil.FieldError{Field: "email", Reason: "must be a valid email address"}
	}

	phone, err := normalizePhone(req.Phone, s.phoneRegion)
	if err != nil {
		return req, err
	}
	req.Phone = phone

	if req.Date == "" {
		return req, apiutil.FieldError{Field: "date", Reason: "is required"}
	}
	date, err := time.ParseInLocation(widget.DateLayout, req.Date, s.loc)
	if err != nil {
		return req, apiutil.FieldError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if date.Before(s.today()) {
		return req, apiutil.FieldError{Field: "date", Reason: "must not be in the past"}
	}

	if req.Time == "" {
		return req, apiutil.FieldError{Field: "time", Reason: "is required"}
	}
	if !s.isDefinedSlot(req.Time) {
		return req, apiutil.FieldError{Field: "time", Reason: "is not an available time slot"}
	}

	if req.NumberOfPeople < 1 || req.NumberOfPeople > int64(s.maxPartySize) {
		return req, apiutil.FieldError{Field: "number_of_people", Reason: partySizeReason(s.maxPartySize)}
	}

	return req, nil
}

// normalizePhone parses raw against region and returns it in E.164 form.
func normalizePhone(raw, region string) (string, error) {
	if raw == "" {
		return "", apiutil.FieldError{Field: "phone", Reason: "is required"}
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

func partySizeReason(max int) string {
	if max == 1 {
		return "must be 1"
	}
	return fmt.Sprintf("must be between 1 and %d", max)
}
