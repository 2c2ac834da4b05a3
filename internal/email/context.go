package email

import (
	"context"
	"time"
)

type bookingMailKey struct{}

// BookingMail identifies the booking an outgoing message belongs to.
type BookingMail struct {
	Kind        string
	OrderNumber string
}

// WithBookingMail tags ctx so the sender can label the message.
func WithBookingMail(ctx context.Context, mail BookingMail) context.Context {
	return context.WithValue(ctx, bookingMailKey{}, mail)
}

// BookingMailFromContext returns the tag set by WithBookingMail.
func BookingMailFromContext(ctx context.Context) (BookingMail, bool) {
	mail, ok := ctx.Value(bookingMailKey{}).(BookingMail)
	return mail, ok
}

func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so handler-scoped contexts don't abort async sends.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}
