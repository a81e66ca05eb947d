package services

import (
	"time"

	"github.com/go-co-op/gocron"

	"invoice-qa-platform/internal/logger"
)

// SessionJanitor periodically discards sessions that have been idle past the
// configured TTL. Session state is memory-only, so an abandoned session is
// just leaked RAM until the sweep reclaims it.
type SessionJanitor struct {
	sessions  *SessionService
	idleTTL   time.Duration
	scheduler *gocron.Scheduler
}

func NewSessionJanitor(sessions *SessionService, idleTTL time.Duration) *SessionJanitor {
	return &SessionJanitor{
		sessions:  sessions,
		idleTTL:   idleTTL,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the sweep at a fraction of the idle TTL and runs it in the
// background.
func (j *SessionJanitor) Start() error {
	interval := j.idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	_, err := j.scheduler.Every(interval).Do(func() {
		if removed := j.sessions.SweepIdle(j.idleTTL); removed > 0 {
			logger.Info("swept idle sessions", "removed", removed, "ttl", j.idleTTL.String())
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	logger.Info("session janitor started", "interval", interval.String())
	return nil
}

func (j *SessionJanitor) Stop() {
	j.scheduler.Stop()
}
