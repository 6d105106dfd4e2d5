// Package scheduler runs the periodic jobs: day-before event reminders and
// cleanup of expired password reset tokens.
package scheduler

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campus-clubs/backend/config"
	"github.com/campus-clubs/backend/internal/models"
	"github.com/campus-clubs/backend/pkg/queue"
)

const runTimeout = 5 * time.Minute

// EventSource lists events and their attendees.
type EventSource interface {
	OnDate(ctx context.Context, day models.Date) ([]models.Event, error)
	Registrations(ctx context.Context, eventID int64) ([]models.Registration, error)
}

// ResetPurger removes expired password reset tokens.
type ResetPurger interface {
	PurgeExpiredResets(ctx context.Context) (int64, error)
}

// Config holds the cron specs (5 fields or descriptors such as @hourly).
type Config struct {
	ReminderSpec string
	PurgeSpec    string
	Location     *time.Location
}

// ConfigFrom builds the scheduler settings shared by the API server and the worker.
func ConfigFrom(w config.WorkerConfig, logger *zap.Logger) Config {
	loc, err := w.Location()
	if err != nil && logger != nil {
		logger.Warn("unknown timezone, using local", zap.String("tz", w.Timezone), zap.Error(err))
	}
	return Config{ReminderSpec: w.ReminderCron, PurgeSpec: w.PurgeCron, Location: loc}
}

// Scheduler owns the cron instance.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	events EventSource
	resets ResetPurger
	jobs   queue.Enqueuer
	now    func() time.Time
	logger *zap.Logger
}

// New creates a scheduler; call Start to register and run the jobs.
func New(cfg Config, events EventSource, resets ResetPurger, jobs queue.Enqueuer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(cfg.Location)),
		cfg:    cfg,
		events: events,
		resets: resets,
		jobs:   jobs,
		now:    time.Now,
		logger: logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.ReminderSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, func() { s.run("event reminders", s.SendReminders) }); err != nil {
			return fmt.Errorf("add reminder job %q: %w", s.cfg.ReminderSpec, err)
		}
	}
	if s.cfg.PurgeSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.PurgeSpec, func() { s.run("reset purge", s.PurgeResets) }); err != nil {
			return fmt.Errorf("add purge job %q: %w", s.cfg.PurgeSpec, err)
		}
	}
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Debug("scheduled job", zap.Int("entry", int(e.ID)), zap.Time("next", e.Next))
	}
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
	}
}

// SendReminders queues one email per registration for events held tomorrow.
func (s *Scheduler) SendReminders(ctx context.Context) error {
	now := s.now().In(s.cfg.Location)
	tomorrow := models.Date{Time: time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)}
	events, err := s.events.OnDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("events on %s: %w", tomorrow.Format(models.DateLayout), err)
	}
	queued := 0
	for _, e := range events {
		regs, err := s.events.Registrations(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("registrations of event %d: %w", e.ID, err)
		}
		for _, r := range regs {
			payload := queue.EmailPayload{
				Kind:           "event_reminder",
				RecipientEmail: r.Email,
				RecipientName:  r.Name,
				Subject:        "Reminder: " + e.Title + " is tomorrow",
				BodyHTML:       reminderBody(r.Name, e),
			}
			if err := s.jobs.EnqueueEmail(ctx, payload); err != nil {
				return fmt.Errorf("enqueue reminder: %w", err)
			}
			queued++
		}
	}
	s.logger.Info("event reminders queued", zap.Int("events", len(events)), zap.Int("emails", queued))
	return nil
}

func reminderBody(name string, e models.Event) string {
	club := e.ClubName
	if club == "" {
		club = "your club"
	}
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>You are registered for <strong>%s</strong> (%s) on %s.</p>
<p>See you there!</p>`, html.EscapeString(name), html.EscapeString(e.Title), html.EscapeString(club),
		e.EventDate.Format(models.DateLayout))
}

// PurgeResets deletes expired password reset tokens.
func (s *Scheduler) PurgeResets(ctx context.Context) error {
	n, err := s.resets.PurgeExpiredResets(ctx)
	if err != nil {
		return fmt.Errorf("purge resets: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired reset tokens purged", zap.Int64("count", n))
	}
	return nil
}
