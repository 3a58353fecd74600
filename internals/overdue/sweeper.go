// Package overdue runs the recurring sweep that auto-returns loans past
// their due date and mails the borrower a reminder.
package overdue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"library-api/internals/mailer"
	"library-api/internals/storage"
)

type Sweeper struct {
	store *storage.Store
	mail  *mailer.Service
	log   *slog.Logger
	now   func() time.Time
	cron  *cron.Cron
}

// New builds a sweeper. now may be nil, in which case wall-clock time is
// used; tests inject a fixed clock instead.
func New(store *storage.Store, mail *mailer.Service, log *slog.Logger, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: store, mail: mail, log: log, now: now}
}

// Start schedules SweepOnce on a recurring interval.
func (s *Sweeper) Start(interval time.Duration) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		s.SweepOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule overdue sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SweepOnce scans all issued entries, returns the overdue ones to stock and
// queues a reminder per auto-returned loan. Best-effort: a failure is logged
// and the next tick tries again.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	loans, err := s.store.CollectOverdue(ctx, s.now())
	if err != nil {
		s.log.Error("overdue sweep failed", "err", err)
		return
	}
	for _, l := range loans {
		s.mail.Enqueue(mailer.ReminderMessage(l.Email, l.Username, l.Title, l.DueDate))
	}
	if len(loans) > 0 {
		s.log.Info("overdue sweep auto-returned books", "count", len(loans))
	}
}
