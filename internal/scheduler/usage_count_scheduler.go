package scheduler

import (
	"github.com/ikkim/videokb-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// UsageReconciler recomputes tag usage counters from the relation table.
type UsageReconciler interface {
	ReconcileUsageCounts() (int64, error)
}

// UsageCountScheduler 標籤使用次數校正排程
type UsageCountScheduler struct {
	cron       *cron.Cron
	spec       string
	reconciler UsageReconciler
}

// NewUsageCountScheduler 建立排程; spec 為標準 5 欄 cron 表達式
func NewUsageCountScheduler(reconciler UsageReconciler, spec string) *UsageCountScheduler {
	return &UsageCountScheduler{
		cron:       cron.New(),
		spec:       spec,
		reconciler: reconciler,
	}
}

// Start 排程開始
func (s *UsageCountScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		logger.Error("Failed to add cron job for usage count reconcile", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Usage count scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce reconciles immediately. Errors are logged; the next run retries.
func (s *UsageCountScheduler) RunOnce() {
	fixed, err := s.reconciler.ReconcileUsageCounts()
	if err != nil {
		logger.Error("Failed to reconcile tag usage counts", err)
		return
	}

	if fixed > 0 {
		logger.Warn("Tag usage counts drifted and were corrected", map[string]interface{}{
			"tags_fixed": fixed,
		})
		return
	}
	logger.Info("Tag usage counts verified", nil)
}

// Stop 排程停止，等待執行中的工作結束
func (s *UsageCountScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Usage count scheduler stopped", nil)
}
