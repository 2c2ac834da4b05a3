package email

import (
	"fmt"
	"strings"
)

const (
	KindConfirmation = "confirmation"
	KindReminder     = "reminder"
)

// Message is a rendered booking email. Kind and OrderNumber tag the send
// for logs and SES.
type Message struct {
	Kind        string
	OrderNumber string
	Subject     string
	Body        string
}

type BookingDetails struct {
	VenueName      string
	OrderNumber    string
	Name           string
	Date           string
	Time           string
	NumberOfPeople int64
}

func BuildConfirmationEmail(details BookingDetails) Message {
	venue := venueOrDefault(details.VenueName)
	lines := []string{
		fmt.Sprintf("Dear %s,", nameOrDefault(details.Name)),
		"",
		"Your escape room booking has been confirmed!",
		"",
		fmt.Sprintf("Order Number: %s", details.OrderNumber),
		fmt.Sprintf("Date: %s", valueOrTBD(details.Date)),
		fmt.Sprintf("Time: %s", valueOrTBD(details.Time)),
		fmt.Sprintf("Number of People: %d", details.NumberOfPeople),
		"",
		"Please arrive 10 minutes early. We look forward to seeing you!",
		"",
		"Best regards,",
		fmt.Sprintf("%s Team", venue),
	}

	return Message{
		Kind:        KindConfirmation,
		OrderNumber: details.OrderNumber,
		Subject:     fmt.Sprintf("Booking Confirmation - Order #%s", details.OrderNumber),
		Body:        strings.Join(lines, "\n"),
	}
}

func BuildReminderEmail(details BookingDetails) Message {
	venue := venueOrDefault(details.VenueName)
	lines := []string{
		fmt.Sprintf("Dear %s,", nameOrDefault(details.Name)),
		"",
		"Reminder: your escape room booking is coming up.",
		"",
		fmt.Sprintf("Order Number: %s", details.OrderNumber),
		fmt.Sprintf("Date: %s", valueOrTBD(details.Date)),
		fmt.Sprintf("Time: %s", valueOrTBD(details.Time)),
		fmt.Sprintf("Number of People: %d", details.NumberOfPeople),
		"",
		"Please arrive 10 minutes early.",
		"",
		fmt.Sprintf("%s Team", venue),
	}

	return Message{
		Kind:        KindReminder,
		OrderNumber: details.OrderNumber,
		Subject:     fmt.Sprintf("Upcoming Booking Reminder - Order #%s", details.OrderNumber),
		Body:        strings.Join(lines, "\n"),
	}
}

func venueOrDefault(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Escape Room"
	}
	return value
}

func nameOrDefault(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "guest"
	}
	return value
}

func valueOrTBD(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "TBD"
	}
	return value
}
