// Package widget holds the booking calendar's decision logic: availability
// classification, the date/time selection state machine and the projections
// the rendering layer turns into markup. Nothing here performs I/O.
package widget

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var ErrMalformedBookings = errors.New("malformed booking data")

// BookingRecord is a single reserved (date, time) pair.
type BookingRecord struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// BookingIndex maps a YYYY-MM-DD key to the booked HH:MM values for that day,
// in input order.
type BookingIndex map[string][]string

// BuildIndex groups records by date. Duplicate pairs are kept, so a duplicated
// booking counts twice toward the date's booked total.
func BuildIndex(records []BookingRecord) BookingIndex {
	index := make(BookingIndex)
	for _, record := range records {
		if _, ok := index[record.Date]; !ok {
			index[record.Date] = []string{}
		}
		index[record.Date] = append(index[record.Date], record.Time)
	}
	return index
}

// Booked returns the booked times for date. Absent keys yield nil.
func (idx BookingIndex) Booked(date string) []string {
	return idx[date]
}

func (idx BookingIndex) Count(date string) int {
	return len(idx[date])
}

func (idx BookingIndex) IsBooked(date, value string) bool {
	for _, booked := range idx[date] {
		if booked == value {
			return true
		}
	}
	return false
}

// ParseBookings decodes the JSON array embedded in the booking page.
func ParseBookings(r io.Reader) ([]BookingRecord, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var records []BookingRecord
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBookings, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after booking array", ErrMalformedBookings)
	}
	for i, record := range records {
		if record.Date == "" || record.Time == "" {
			return nil, fmt.Errorf("%w: record %d is missing date or time", ErrMalformedBookings, i)
		}
	}
	return records, nil
}

// EncodeBookings serializes records in the format ParseBookings accepts.
func EncodeBookings(records []BookingRecord) ([]byte, error) {
	if records == nil {
		records = []BookingRecord{}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(records); err != nil {
		return nil, fmt.Errorf("encode bookings: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
