package widget

import (
	"fmt"
	"strconv"
	"time"
)

// DayNames are the grid header labels; weeks start on Sunday.
var DayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// YearMonth is the month cursor of the calendar.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth accepts YYYY-MM.
func ParseYearMonth(raw string) (YearMonth, error) {
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		return YearMonth{}, fmt.Errorf("month must be in YYYY-MM format: %w", err)
	}
	return YearMonthOf(parsed), nil
}

// AddMonths moves the cursor by delta months, rolling the year over.
func (ym YearMonth) AddMonths(delta int) YearMonth {
	total := ym.Year*12 + int(ym.Month) - 1 + delta
	year := total / 12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: time.Month(month + 1)}
}

// First returns midnight on the first day of the month in loc.
func (ym YearMonth) First(loc *time.Location) time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
}

// DaysIn uses day 0 of the following month, which normalizes to the last
// day of this one.
func (ym YearMonth) DaysIn() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (ym YearMonth) Title() string {
	return ym.Month.String() + " " + strconv.Itoa(ym.Year)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// DayCell is one cell after the header row. Filler cells have no Date and Day 0.
type DayCell struct {
	Day            int
	Date           string
	Classification Classification
}

// Clickable reports whether the cell may be bound to SelectDate.
func (c DayCell) Clickable() bool {
	return c.Date != "" && !c.Classification.Has(TagPast) && !c.Classification.Has(TagDisabled)
}

func (c DayCell) IsFiller() bool {
	return c.Date == ""
}

// MonthGrid is the structural description of one calendar month.
type MonthGrid struct {
	Month   YearMonth
	Title   string
	Headers [7]string
	Cells   []DayCell
}

// RenderMonth lays out the month: leading filler cells up to the weekday of
// the 1st, then one classified cell per day. Trailing cells are left to the
// presentation layer.
func RenderMonth(ym YearMonth, index BookingIndex, state SelectionState, today time.Time, slots []TimeSlot) MonthGrid {
	loc := today.Location()
	first := ym.First(loc)
	leading := int(first.Weekday())
	days := ym.DaysIn()

	cells := make([]DayCell, 0, leading+days)
	for i := 0; i < leading; i++ {
		cells = append(cells, DayCell{Classification: Classification{TagBase, TagDisabled}})
	}
	for day := 1; day <= days; day++ {
		date := time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, loc)
		cells = append(cells, DayCell{
			Day:            day,
			Date:           date.Format(DateLayout),
			Classification: Classify(date, index, today, state, len(slots)),
		})
	}

	return MonthGrid{
		Month:   ym,
		Title:   ym.Title(),
		Headers: DayNames,
		Cells:   cells,
	}
}

// Cell returns the cell for date, if it is part of the grid.
func (g MonthGrid) Cell(date string) (DayCell, bool) {
	for _, cell := range g.Cells {
		if cell.Date == date {
			return cell, true
		}
	}
	return DayCell{}, false
}
