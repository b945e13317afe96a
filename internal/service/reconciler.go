package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/geelark"
	"github.com/sociomanager/sociomanager/internal/models"
)

// reconcileLedger is what the reconciler needs from the job ledger.
type reconcileLedger interface {
	FindOpenTasks(ctx context.Context) ([]models.Task, error)
	BulkUpdateStatus(ctx context.Context, changes []StatusChange) (int64, error)
}

// taskQuerier is the single remote call the reconciler makes.
type taskQuerier interface {
	QueryTasks(ctx context.Context, ids []string) ([]geelark.TaskStatus, error)
}

// Reconciler periodically mirrors remote task status into the ledger. The
// remote side is the sole authority: a pass pulls status for every open
// task, stages only the rows that actually changed, and writes them in one
// batch. If the bulk query fails the pass is abandoned whole; the ledger
// is never mutated on guesswork.
type Reconciler struct {
	ledger reconcileLedger
	api    taskQuerier
	logger *zap.Logger
}

func NewReconciler(ledger reconcileLedger, api taskQuerier, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		ledger: ledger,
		api:    api,
		logger: logger,
	}
}

// RunOnce performs a single reconciliation pass. Errors are logged, not
// returned; the next scheduled run retries naturally.
func (r *Reconciler) RunOnce(ctx context.Context) {
	start := time.Now()

	open, err := r.ledger.FindOpenTasks(ctx)
	if err != nil {
		r.logger.Error("Failed to load open tasks, skipping reconciliation pass", zap.Error(err))
		return
	}

	if len(open) == 0 {
		r.logger.Debug("No open tasks to reconcile")
		return
	}

	ids := make([]string, 0, len(open))
	localByID := make(map[string]string, len(open))
	for _, task := range open {
		ids = append(ids, task.TaskID)
		localByID[task.TaskID] = task.Status
	}

	remote, err := r.api.QueryTasks(ctx, ids)
	if err != nil {
		r.logger.Error("Bulk status query failed, aborting reconciliation pass",
			zap.Int("open_tasks", len(ids)),
			zap.Error(err))
		return
	}

	var changes []StatusChange
	for _, status := range remote {
		local, ok := localByID[status.ID]
		if !ok {
			continue
		}
		if status.Status != "" && status.Status != local {
			changes = append(changes, StatusChange{TaskID: status.ID, Status: status.Status})
		}
	}

	if len(changes) == 0 {
		r.logger.Debug("No status changes", zap.Int("open_tasks", len(open)))
		return
	}

	updated, err := r.ledger.BulkUpdateStatus(ctx, changes)
	if err != nil {
		r.logger.Error("Failed to apply status updates", zap.Error(err))
		return
	}

	r.logger.Info("Reconciliation pass completed",
		zap.Int("open_tasks", len(open)),
		zap.Int("staged", len(changes)),
		zap.Int64("updated", updated),
		zap.Duration("duration", time.Since(start)))
}
