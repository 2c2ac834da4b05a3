package booking

import (
	"strconv"
	"strings"

	"github.com/codr1/Escapade/internal/widget"
)

const (
	WidgetID          = "bookingWidget"
	FormSectionID     = "bookingFormSection"
	BookedSlotsDataID = "booked-slots-data"
)

// FormValues are the contact fields echoed back when a submission is
// rejected.
type FormValues struct {
	Name           string
	Email          string
	Phone          string
	NumberOfPeople string
}

type WidgetData struct {
	// BookedSlotsJSON travels with the widget state so each interaction
	// rebuilds the same index the page was rendered from.
	BookedSlotsJSON string
	View            widget.View
	SelectPath      string
	SubmitPath      string
	Notice          string
	FieldErrors     map[string]string
	Values          FormValues
	MaxPartySize    int
}

func (d WidgetData) FieldError(field string) string {
	if d.FieldErrors == nil {
		return ""
	}
	return d.FieldErrors[field]
}

func (d WidgetData) PartySizeMax() string {
	if d.MaxPartySize <= 0 {
		return "10"
	}
	return strconv.Itoa(d.MaxPartySize)
}

func (d WidgetData) PartySizeValue() string {
	value := strings.TrimSpace(d.Values.NumberOfPeople)
	if value == "" {
		return "1"
	}
	return value
}

type PageData struct {
	Title string
	// BookedSlotsJSON is the serialized booking feed the widget was built from.
	BookedSlotsJSON string
	Widget          WidgetData
}

type OrderSummaryData struct {
	VenueName      string
	OrderNumber    string
	Name           string
	Email          string
	Date           string
	Time           string
	NumberOfPeople int64
	Status         string
	Created        bool
}

func (d OrderSummaryData) StatusLabel() string {
	status := strings.ToLower(strings.TrimSpace(d.Status))
	if status == "" {
		return "Confirmed"
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

type BookingRow struct {
	OrderNumber    string
	Href           string
	Date           string
	Time           string
	NumberOfPeople int64
	Status         string
	CreatedAt      string
}

func (r BookingRow) StatusLabel() string {
	return OrderSummaryData{Status: r.Status}.StatusLabel()
}

type MyBookingsData struct {
	BookPath string
	Rows     []BookingRow
}
