package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"rumor-trust-system/internal/service"
	"rumor-trust-system/pkg/logger"
)

// ResolutionScheduler 定时触发传闻清扫
type ResolutionScheduler struct {
	cron          *cron.Cron
	resolutionSvc *service.ResolutionService
	cronExpr      string
}

func NewResolutionScheduler(resolutionSvc *service.ResolutionService, cronExpr string) *ResolutionScheduler {
	return &ResolutionScheduler{
		cron:          cron.New(cron.WithSeconds()),
		resolutionSvc: resolutionSvc,
		cronExpr:      cronExpr,
	}
}

func (s *ResolutionScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("Resolution sweep scheduler started")
	return nil
}

func (s *ResolutionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Resolution sweep scheduler stopped")
}

func (s *ResolutionScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	logger.Info("Starting resolution sweep")

	result, err := s.resolutionSvc.SweepOnce(ctx)
	if err != nil {
		logger.Error("Resolution sweep failed:", err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"resolved_count": result.ResolvedCount,
		"resolved_ids":   result.ResolvedIDs,
		"elapsed":        time.Since(start).String(),
	}).Info("Resolution sweep completed")
}

// TriggerManualSweep 手动触发一轮清扫，管理接口使用
func (s *ResolutionScheduler) TriggerManualSweep(ctx context.Context) (*service.SweepResult, error) {
	return s.resolutionSvc.SweepOnce(ctx)
}
