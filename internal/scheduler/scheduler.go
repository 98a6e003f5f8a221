package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"zonebourse-go/internal/logger"
)

// Sweeper drops expired sessions and reports how many it removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	timeout time.Duration
}

func New(spec string, sweeper Sweeper) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		spec:    spec,
		timeout: time.Minute,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.sweeper.Sweep(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("session sweep failed")
		return
	}
	logger.Debug().Int("removed", removed).Msg("session sweep done")
}
