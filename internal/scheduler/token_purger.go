// Package scheduler runs periodic maintenance jobs next to the HTTP server
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// purgeTimeout bounds a single purge run
const purgeTimeout = 30 * time.Second

// ExpiredTokenRepository deletes session audit records past their expiry
type ExpiredTokenRepository interface {
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// TokenPurger deletes expired session audit records on a cron schedule.
// Session validation never reads these records, so a missed run only delays cleanup.
type TokenPurger struct {
	repo     ExpiredTokenRepository
	schedule cron.Schedule
	logger   *zap.Logger
	now      func() time.Time

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewTokenPurger creates a purger for a standard five-field cron expression
func NewTokenPurger(repo ExpiredTokenRepository, cronExpr string, logger *zap.Logger) (*TokenPurger, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("invalid cron expression: %q never fires", cronExpr)
	}

	return &TokenPurger{
		repo:     repo,
		schedule: schedule,
		logger:   logger.Named("token_purger"),
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start runs one purge immediately, then one per scheduled tick until Stop
func (p *TokenPurger) Start() {
	p.logger.Info("Token purger started")
	go p.run()
}

// Stop stops the purger and waits for a running purge to finish
func (p *TokenPurger) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		<-p.done
		p.logger.Info("Token purger stopped")
	})
}

// NextRun returns the first scheduled run strictly after from
func (p *TokenPurger) NextRun(from time.Time) time.Time {
	return p.schedule.Next(from)
}

func (p *TokenPurger) run() {
	defer close(p.done)

	p.purge()

	for {
		now := p.now()
		next := p.NextRun(now)
		if next.IsZero() {
			p.logger.Error("Token purge schedule has no next run, stopping")
			return
		}
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			p.purge()
		case <-p.stopChan:
			timer.Stop()
			return
		}
	}
}

// purge runs a single cleanup, errors are logged and retried on the next tick
func (p *TokenPurger) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	deletedCount, err := p.repo.DeleteExpiredTokens(ctx, p.now())
	if err != nil {
		p.logger.Error("Failed to purge expired tokens", zap.Error(err))
		return
	}

	if deletedCount > 0 {
		p.logger.Info("Purged expired tokens", zap.Int("deletedCount", deletedCount))
	}
}
