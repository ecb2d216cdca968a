// Package rollover drives the ledger's day-boundary rollover while the
// process stays alive across midnight. The ledger already rolls over on its
// own before any write; this scheduler only covers the idle case.
package rollover

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gymledger/gymledger/internal/domain"
	"github.com/gymledger/gymledger/internal/services/ledger"
)

// midnightSpec fires at 00:00 local time every day.
const midnightSpec = "0 0 * * *"

// Scheduler triggers the ledger rollover at midnight.
type Scheduler struct {
	cron   *cron.Cron
	ledger *ledger.Ledger
	logger *zap.Logger
}

// New creates a scheduler for the given ledger.
func New(l *ledger.Ledger, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{cron: cron.New(), ledger: l, logger: logger}
}

// Start registers the midnight job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(midnightSpec, s.tick); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("rollover scheduler started")

	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("rollover scheduler stopped")
}

func (s *Scheduler) tick() {
	today := domain.NewDayKey(time.Now())

	res, err := s.ledger.RolloverIfNeeded(today)
	if err != nil {
		s.logger.Error("midnight rollover failed", zap.Error(err))
		return
	}

	if res.Archived != nil {
		s.logger.Info("midnight rollover archived day",
			zap.String("date", res.Archived.Date.String()),
			zap.Int("amount_ml", res.Archived.AmountMl))
	}
}
