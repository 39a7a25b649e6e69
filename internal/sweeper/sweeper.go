package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Expirer clears VIP grants whose expiry has passed.
type Expirer interface {
	ExpireVIP(ctx context.Context) (int64, error)
}

// Sweeper periodically drops expired VIP access from stored accounts.
type Sweeper interface {
	Start(ctx context.Context) error
	Shutdown()
}

type Config struct {
	Interval time.Duration
	Logger   *logrus.Logger
}

type sweeper struct {
	cfg     Config
	expirer Expirer

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg Config, expirer Expirer) Sweeper {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &sweeper{cfg: cfg, expirer: expirer}
}

// Start runs one sweep immediately and then one per interval.
// A non-positive interval disables the sweeper.
func (s *sweeper) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		s.cfg.Logger.Info("vip sweeper disabled")
		return nil
	}

	var runCtx context.Context
	runCtx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(runCtx)
	}()
	s.cfg.Logger.Infof("vip sweeper started, interval: %s", s.cfg.Interval)
	return nil
}

func (s *sweeper) Shutdown() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cfg.Logger.Info("vip sweeper stopped")
}

func (s *sweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	cleared, err := s.expirer.ExpireVIP(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.cfg.Logger.Warnf("expire vip: %v", err)
		}
		return
	}
	if cleared > 0 {
		s.cfg.Logger.WithField("accounts", cleared).Info("expired vip access cleared")
	}
}
