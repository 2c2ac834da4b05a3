// Package scheduler runs the venue's recurring booking jobs, such as the
// daily reminder mail-out.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultJobTimeout = 2 * time.Minute

var (
	service     *Service
	serviceOnce sync.Once
	serviceErr  error
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
	ErrNoJobFunc      = errors.New("job run function is required")
)

// Job is a recurring booking task. Run receives a context bounded by
// Timeout and carrying a logger tagged with the job name and run id.
type Job struct {
	Name    string
	Cron    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Service owns the gocron scheduler. Cron expressions are read in the
// venue's time zone.
type Service struct {
	scheduler gocron.Scheduler
	location  *time.Location
	stopOnce  sync.Once
	stopErr   error
}

// Init creates the scheduler singleton for the venue location. A nil
// location means UTC.
func Init(loc *time.Location) error {
	serviceOnce.Do(func() {
		service, serviceErr = newService(loc)
	})
	return serviceErr
}

func newService(loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Booking job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	log.Info().Str("location", loc.String()).Msg("Booking scheduler initialized")
	return &Service{scheduler: sched, location: loc}, nil
}

// ServiceInstance returns the initialized scheduler singleton.
func ServiceInstance() (*Service, error) {
	if service == nil && serviceErr == nil {
		return nil, ErrNotInitialized
	}
	return service, serviceErr
}

func Start() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	svc.Start()
	return nil
}

func Stop() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	return svc.Stop()
}

// Schedule registers job with the singleton scheduler.
func Schedule(job Job, opts ...gocron.JobOption) (gocron.Job, error) {
	svc, err := ServiceInstance()
	if err != nil {
		return nil, err
	}
	return svc.Schedule(job, opts...)
}

func (s *Service) Location() *time.Location {
	if s == nil {
		return time.UTC
	}
	return s.location
}

func (s *Service) Start() {
	if s == nil {
		log.Error().Msg("Booking scheduler start requested before initialization")
		return
	}
	log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("Booking scheduler starting")
	s.scheduler.Start()
}

// Stop waits for running jobs and prevents new runs.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		log.Info().Msg("Booking scheduler stopping")
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// Schedule registers a cron job. Runs of the same job never overlap: a run
// that comes due while the previous one is still going is skipped.
func (s *Service) Schedule(job Job, opts ...gocron.JobOption) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if err := job.validate(); err != nil {
		return nil, err
	}
	jobLogger := log.With().
		Str("job_name", job.Name).
		Str("cron", job.Cron).
		Str("location", s.Location().String()).
		Logger()

	jobOpts := append([]gocron.JobOption{
		gocron.WithName(job.Name),
		gocron.WithTags("booking"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}, opts...)
	scheduled, err := s.scheduler.NewJob(
		gocron.CronJob(job.Cron, false),
		gocron.NewTask(job.runner()),
		jobOpts...,
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register booking job")
		return nil, err
	}
	jobLogger.Info().Msg("Booking job registered")
	return scheduled, nil
}

func (j Job) validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return ErrEmptyJobName
	}
	if strings.TrimSpace(j.Cron) == "" {
		return ErrEmptyCronExpr
	}
	if j.Run == nil {
		return ErrNoJobFunc
	}
	return nil
}

// runner adapts Run to a gocron task.
func (j Job) runner() func() {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	return func() {
		logger := log.With().
			Str("job_name", j.Name).
			Str("run_id", uuid.NewString()).
			Logger()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx = logger.WithContext(ctx)

		start := time.Now()
		logger.Debug().Msg("Booking job started")
		if err := j.Run(ctx); err != nil {
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Booking job failed")
			return
		}
		logger.Info().Dur("duration", time.Since(start)).Msg("Booking job finished")
	}
}
