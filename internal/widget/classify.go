package widget

import (
	"strings"
	"time"
)

const (
	TagBase      = "calendar-day"
	TagDisabled  = "disabled"
	TagPast      = "past"
	TagAvailable = "available"
	TagLimited   = "limited"
	TagFull      = "full"
	TagToday     = "today"
	TagSelected  = "selected"
)

// Classification is the ordered set of tags attached to a calendar cell:
// base, then status, then today, then selected.
type Classification []string

func (c Classification) Has(tag string) bool {
	for _, t := range c {
		if t == tag {
			return true
		}
	}
	return false
}

// Status returns the past or availability tag, or "" for filler cells.
func (c Classification) Status() string {
	for _, t := range c {
		switch t {
		case TagPast, TagAvailable, TagLimited, TagFull:
			return t
		}
	}
	return ""
}

func (c Classification) String() string {
	return strings.Join(c, " ")
}

// Classify tags date against the booking index. today must be a midnight value
// in the same location as date; only the calendar day of each is compared.
func Classify(date time.Time, index BookingIndex, today time.Time, state SelectionState, slotCount int) Classification {
	day := truncateToDay(date)
	key := day.Format(DateLayout)

	tags := Classification{TagBase}
	if day.Before(truncateToDay(today)) {
		tags = append(tags, TagPast)
	} else {
		n := index.Count(key)
		switch {
		case n == 0:
			tags = append(tags, TagAvailable)
		case n >= slotCount:
			tags = append(tags, TagFull)
		default:
			tags = append(tags, TagLimited)
		}
	}

	if sameDay(day, today) {
		tags = append(tags, TagToday)
	}
	if state.SelectedDate != "" && state.SelectedDate == key {
		tags = append(tags, TagSelected)
	}
	return tags
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
