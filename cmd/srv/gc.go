package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

type expiredCollector interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func (s *srv) startGC(ct *cli.Context) error {
	ctx, stop := signal.NotifyContext(ct.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.loadConfig(ct); err != nil {
		return err
	}

	s.loadLogger()
	if err := s.loadStorage(ctx); err != nil {
		return err
	}
	defer s.close()

	collector, ok := s.store.(expiredCollector)
	if !ok {
		s.logger.Infof("The %s store expires keys by itself, nothing to collect", s.configs.KV.Driver)
		return nil
	}

	interval := ct.Duration("interval")
	if interval <= 0 {
		return s.collectExpired(ctx, collector)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.collectExpired(ctx, collector); err != nil {
			s.logger.Errorf("Cannot collect expired keys: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *srv) collectExpired(ctx context.Context, collector expiredCollector) error {
	deleted, err := collector.DeleteExpired(ctx)
	if err != nil {
		return err
	}

	s.logger.Infof("Deleted %d expired keys", deleted)
	return nil
}
