package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sociomanager/sociomanager/internal/models"
)

// Ledger owns all Task and Post storage. The dispatcher and reconciler
// never touch the tables directly; everything goes through these
// operations, all keyed by the remote task id so concurrent writers
// cannot corrupt a row.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{
		db:     db,
		logger: logger,
	}
}

// StatusChange is one staged reconciliation update.
type StatusChange struct {
	TaskID string
	Status string
}

// RecordDispatch persists the local mirror of a freshly accepted remote
// job, together with its Post record for publish actions. Upserting on
// task_id keeps a dispatch/reconcile race on the same new id harmless.
func (l *Ledger) RecordDispatch(ctx context.Context, task *models.Task, post *models.Post) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Status is deliberately not in the update set: reconciliation may
		// already have advanced it past Waiting.
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"trace_id", "mobile_id", "scheduled_at"}),
		}).Create(task).Error; err != nil {
			return fmt.Errorf("failed to record task: %w", err)
		}

		if post != nil {
			if err := tx.Create(post).Error; err != nil {
				return fmt.Errorf("failed to record post: %w", err)
			}
		}

		return nil
	})
}

// FindOpenTasks returns every task that may still change remotely. This is
// the sole feed for reconciliation, so terminal rows are excluded to keep
// each pass bounded.
func (l *Ledger) FindOpenTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := l.db.WithContext(ctx).
		Where("status NOT IN ?", models.TerminalStatuses).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find open tasks: %w", err)
	}
	return tasks, nil
}

// BulkUpdateStatus applies staged status changes in one transaction with
// one UPDATE per distinct new status, rather than one write per row. Rows
// already carrying the new status are left untouched, so re-applying the
// same input mutates nothing. Post rows mirror the task status.
func (l *Ledger) BulkUpdateStatus(ctx context.Context, changes []StatusChange) (int64, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	idsByStatus := make(map[string][]string)
	for _, change := range changes {
		idsByStatus[change.Status] = append(idsByStatus[change.Status], change.TaskID)
	}

	var updated int64
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for status, ids := range idsByStatus {
			res := tx.Model(&models.Task{}).
				Where("task_id IN ? AND status <> ?", ids, status).
				Update("status", status)
			if res.Error != nil {
				return fmt.Errorf("failed to update task statuses: %w", res.Error)
			}
			updated += res.RowsAffected

			if err := tx.Model(&models.Post{}).
				Where("task_id IN ? AND status <> ?", ids, status).
				Update("status", status).Error; err != nil {
				return fmt.Errorf("failed to mirror post statuses: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}

// DeleteTask removes a task and any paired post in one transaction. Only
// called after a successful remote cancel; the two records are
// lifecycle-coupled and neither survives alone.
func (l *Ledger) DeleteTask(ctx context.Context, taskID string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

// AllTasks lists every tracked task, newest first.
func (l *Ledger) AllTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := l.db.WithContext(ctx).Order("id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// PostFilter narrows a post listing.
type PostFilter struct {
	Search   string
	Platform models.Platform
	Status   string
}

// Posts lists publish records matching the filter, newest first.
func (l *Ledger) Posts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	query := l.db.WithContext(ctx).Model(&models.Post{})

	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("username ILIKE ?", "%"+filter.Search+"%")
	}

	var posts []models.Post
	if err := query.Order("id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}
