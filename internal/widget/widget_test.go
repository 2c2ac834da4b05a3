package widget

import (
	"testing"
	"time"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// newTestWidget pins today to 2024-03-05 in UTC.
func newTestWidget(t *testing.T, records []BookingRecord) *Widget {
	t.Helper()
	return New(records,
		WithClock(fixedClock{now: time.Date(2024, time.March, 5, 15, 30, 0, 0, time.UTC)}),
		WithLocation(time.UTC),
	)
}

func march2024() YearMonth {
	return YearMonth{Year: 2024, Month: time.March}
}
