package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Escapade/internal/bookings"
	"github.com/codr1/Escapade/internal/db"
	"github.com/codr1/Escapade/internal/email"
	"github.com/codr1/Escapade/internal/metrics"
	"github.com/codr1/Escapade/internal/widget"
)

const (
	reminderSendTimeout = 10 * time.Second
	reminderRunTimeout  = 2 * time.Minute
)

// ReminderJob emails every active booking dated tomorrow that has not been
// reminded yet.
type ReminderJob struct {
	Database *db.DB
	Bookings *bookings.Service
	Sender   email.EmailSender
	Metrics  *metrics.BookingMetrics
	Now      func() time.Time
}

// ReminderJobName identifies the daily reminder job in logs and gocron.
const ReminderJobName = "booking_reminders"

// RegisterReminderJobs schedules the daily booking reminder mail-out.
func RegisterReminderJobs(job *ReminderJob, cronExpr string) error {
	if job == nil || job.Database == nil || job.Bookings == nil {
		return fmt.Errorf("reminder jobs require database and bookings service")
	}

	_, err := Schedule(Job{
		Name:    ReminderJobName,
		Cron:    cronExpr,
		Timeout: reminderRunTimeout,
		Run: func(ctx context.Context) error {
			if job.Sender == nil {
				log.Ctx(ctx).Debug().Msg("Reminder run skipped: email client not configured")
				return nil
			}
			_, err := job.Run(ctx)
			return err
		},
	})
	if err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}
	return nil
}

// Run sends reminders for tomorrow's bookings and returns how many were
// sent and recorded. A booking whose send or bookkeeping fails is counted
// as failed and the run moves on; an unmarked booking is retried next run.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	logger := log.Ctx(ctx)
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}

	tomorrow := now().In(j.Bookings.Location()).AddDate(0, 0, 1).Format(widget.DateLayout)
	due, err := j.Database.Queries.ListBookingsPendingReminder(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("list bookings for %s: %w", tomorrow, err)
	}

	sent, failed := 0, 0
	for _, booking := range due {
		bookingLogger := logger.With().
			Str("order_number", booking.OrderNumber).
			Str("booking_date", booking.Date).
			Str("booking_time", booking.Time).
			Logger()
		if err := j.remind(ctx, booking, &bookingLogger); err != nil {
			bookingLogger.Error().Err(err).Msg("Failed to send booking reminder")
			j.Metrics.ObserveReminder("failed")
			failed++
			continue
		}
		if err := j.Database.Queries.MarkReminderSent(ctx, booking.ID, now().UTC()); err != nil {
			bookingLogger.Error().Err(err).Msg("Failed to record booking reminder")
			j.Metrics.ObserveReminder("failed")
			failed++
			continue
		}
		j.Metrics.ObserveReminder("sent")
		sent++
	}

	logger.Info().
		Str("booking_date", tomorrow).
		Int("due", len(due)).
		Int("sent", sent).
		Int("failed", failed).
		Msg("Booking reminders processed")
	return sent, nil
}

func (j *ReminderJob) remind(ctx context.Context, booking db.Booking, logger *zerolog.Logger) error {
	message := email.BuildReminderEmail(j.Bookings.Details(booking))

	sendCtx, cancel := context.WithTimeout(ctx, reminderSendTimeout)
	defer cancel()
	if err := email.Deliver(sendCtx, j.Sender, booking.Email, message); err != nil {
		return err
	}
	logger.Info().Msg("Booking reminder sent")
	return nil
}
