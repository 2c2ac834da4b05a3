package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeEmailSender struct {
	mu        sync.Mutex
	calls     []Message
	ctxErr    error
	sendErr   error
	recipient string
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Message{Subject: subject, Body: body})
	f.ctxErr = ctx.Err()
	f.recipient = recipient
	return f.sendErr
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send did not finish")
	}
}

func TestSendAsync_DetachedFromCanceledParent(t *testing.T) {
	sender := &fakeEmailSender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := SendAsync(ctx, sender, " guest@example.com ", Message{Subject: "Subject", Body: "Body"}, nil)
	waitDone(t, done)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.calls) != 1 {
		t.Fatalf("expected one send call, got %d", len(sender.calls))
	}
	if sender.ctxErr != nil {
		t.Fatalf("send context should not inherit cancellation, got %v", sender.ctxErr)
	}
	if sender.recipient != "guest@example.com" {
		t.Fatalf("recipient = %q", sender.recipient)
	}
}

func TestSendAsync_SkipsIncompleteMessages(t *testing.T) {
	sender := &fakeEmailSender{}

	waitDone(t, SendAsync(context.Background(), sender, "", Message{Subject: "s", Body: "b"}, nil))
	waitDone(t, SendAsync(context.Background(), sender, "guest@example.com", Message{Body: "b"}, nil))
	waitDone(t, SendAsync(context.Background(), nil, "guest@example.com", Message{Subject: "s", Body: "b"}, nil))

	if len(sender.calls) != 0 {
		t.Fatalf("expected no sends, got %d", len(sender.calls))
	}
}

func TestSendAsync_SwallowsErrors(t *testing.T) {
	sender := &fakeEmailSender{sendErr: errors.New("ses down")}

	waitDone(t, SendAsync(context.Background(), sender, "guest@example.com", Message{Subject: "s", Body: "b"}, nil))

	if len(sender.calls) != 1 {
		t.Fatalf("expected one send attempt, got %d", len(sender.calls))
	}
}

func TestBuildConfirmationEmail(t *testing.T) {
	message := BuildConfirmationEmail(BookingDetails{
		VenueName:      "House MD Escape Room",
		OrderNumber:    "AB12CD34",
		Name:           "Lisa Cuddy",
		Date:           "Sunday, March 10, 2024",
		Time:           "2:00 PM",
		NumberOfPeople: 4,
	})

	if message.Kind != KindConfirmation || message.OrderNumber != "AB12CD34" {
		t.Fatalf("tag = %s/%s", message.Kind, message.OrderNumber)
	}
	if message.Subject != "Booking Confirmation - Order #AB12CD34" {
		t.Fatalf("subject = %q", message.Subject)
	}
	for _, want := range []string{
		"Dear Lisa Cuddy,",
		"Order Number: AB12CD34",
		"Date: Sunday, March 10, 2024",
		"Time: 2:00 PM",
		"Number of People: 4",
		"House MD Escape Room Team",
	} {
		if !strings.Contains(message.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, message.Body)
		}
	}
}

func TestBuildReminderEmail_Defaults(t *testing.T) {
	message := BuildReminderEmail(BookingDetails{OrderNumber: "AB12CD34"})

	if !strings.HasPrefix(message.Subject, "Upcoming Booking Reminder") {
		t.Fatalf("subject = %q", message.Subject)
	}
	for _, want := range []string{"Dear guest,", "Date: TBD", "Time: TBD", "Escape Room Team"} {
		if !strings.Contains(message.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, message.Body)
		}
	}
}
