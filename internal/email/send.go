package email

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const sendTimeout = 5 * time.Second

var errIncompleteMessage = errors.New("email recipient, subject and body are required")

// Deliver sends message synchronously, tagging the context with the
// booking it belongs to.
func Deliver(ctx context.Context, sender EmailSender, recipient string, message Message) error {
	recipient = strings.TrimSpace(recipient)
	if sender == nil {
		return errors.New("email sender is not configured")
	}
	if recipient == "" || message.Subject == "" || message.Body == "" {
		return errIncompleteMessage
	}
	ctx = WithBookingMail(ctx, BookingMail{Kind: message.Kind, OrderNumber: message.OrderNumber})
	return sender.Send(ctx, recipient, message.Subject, message.Body)
}

// SendAsync delivers message in the background. Failures are logged, never
// returned: a booking stands whether or not its email goes out. The returned
// channel is closed when the attempt finishes.
func SendAsync(ctx context.Context, sender EmailSender, recipient string, message Message, logger *zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	recipient = strings.TrimSpace(recipient)
	if sender == nil || recipient == "" || message.Subject == "" || message.Body == "" {
		close(done)
		return done
	}

	sendCtx, cancel := newEmailContext(ctx, sendTimeout)
	go func() {
		defer close(done)
		defer cancel()
		if err := Deliver(sendCtx, sender, recipient, message); err != nil {
			if logger != nil {
				logger.Error().Err(err).Str("recipient", recipient).Str("kind", message.Kind).Msg("Failed to send booking email")
			}
			return
		}
		if logger != nil {
			logger.Info().Str("recipient", recipient).Str("kind", message.Kind).Msg("Booking email sent")
		}
	}()
	return done
}
