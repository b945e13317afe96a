package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/config"
	"github.com/sociomanager/sociomanager/internal/geelark"
)

// Scheduler runs the two background workflows on independent schedules:
// the task status sync (every sync_interval) and the account warmup
// (warmup_cron, daily by default). A failure in one never disturbs the
// other's schedule or the request path.
type Scheduler struct {
	config     *config.SchedulerConfig
	logger     *zap.Logger
	reconciler *Reconciler
	dispatcher *Dispatcher
	accounts   *AccountService
	cron       *cron.Cron
	cancel     context.CancelFunc
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, reconciler *Reconciler, dispatcher *Dispatcher, accounts *AccountService) *Scheduler {
	return &Scheduler{
		config:     cfg,
		logger:     logger,
		reconciler: reconciler,
		dispatcher: dispatcher,
		accounts:   accounts,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.cron = cron.New()

	syncSpec := fmt.Sprintf("@every %s", s.config.SyncInterval)
	if _, err := s.cron.AddFunc(syncSpec, func() {
		s.reconciler.RunOnce(jobCtx)
	}); err != nil {
		cancel()
		return fmt.Errorf("invalid sync interval %q: %w", s.config.SyncInterval, err)
	}

	if _, err := s.cron.AddFunc(s.config.WarmupCron, func() {
		s.runWarmup(jobCtx)
	}); err != nil {
		cancel()
		return fmt.Errorf("invalid warmup cron %q: %w", s.config.WarmupCron, err)
	}

	s.logger.Info("Starting scheduler",
		zap.String("sync_interval", s.config.SyncInterval),
		zap.String("warmup_cron", s.config.WarmupCron))

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("Scheduler shutdown completed")
}

// runWarmup fans a warmup action out over every known account so they keep
// looking organically active to the platforms.
func (s *Scheduler) runWarmup(ctx context.Context) {
	s.logger.Info("Running scheduled warmup")

	accounts, err := s.accounts.All(ctx, "", "")
	if err != nil {
		s.logger.Error("Failed to load accounts for warmup", zap.Error(err))
		return
	}

	if len(accounts) == 0 {
		s.logger.Info("No accounts to warm up")
		return
	}

	outcomes := s.dispatcher.DispatchFanout(ctx, geelark.Action{
		Kind:     geelark.ActionWarmup,
		Keywords: s.config.WarmupKeywords,
	}, accounts)

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Ok() {
			succeeded++
		}
	}

	s.logger.Info("Scheduled warmup completed",
		zap.Int("accounts", len(accounts)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(accounts)-succeeded))
}
