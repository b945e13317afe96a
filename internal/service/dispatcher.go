package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sociomanager/sociomanager/internal/geelark"
	"github.com/sociomanager/sociomanager/internal/models"
)

// dispatchLedger is what the dispatcher needs from the job ledger.
type dispatchLedger interface {
	RecordDispatch(ctx context.Context, task *models.Task, post *models.Post) error
}

// taskCreator is the single remote call the dispatcher makes.
type taskCreator interface {
	CreateTask(ctx context.Context, req *geelark.DispatchRequest) (*geelark.CreateResult, error)
}

// Outcome is the per-target result of one fan-out. Either TaskID is set
// and Err is nil, or Err explains why this target failed. A persistence
// failure after remote acceptance carries both.
type Outcome struct {
	Username string
	Platform models.Platform
	MobileID string
	TaskID   string
	Err      error
}

func (o Outcome) Ok() bool {
	return o.Err == nil
}

// Dispatcher turns one action against many accounts into remote jobs,
// recording each accepted job in the ledger. Targets are independent: all
// remote calls run concurrently and one target's failure never blocks or
// fails its siblings.
type Dispatcher struct {
	encoder *geelark.Encoder
	api     taskCreator
	ledger  dispatchLedger
	logger  *zap.Logger
}

func NewDispatcher(encoder *geelark.Encoder, api taskCreator, ledger dispatchLedger, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		encoder: encoder,
		api:     api,
		ledger:  ledger,
		logger:  logger,
	}
}

// DispatchFanout encodes and dispatches the action for every account,
// returning exactly one outcome per account in input order.
func (d *Dispatcher) DispatchFanout(ctx context.Context, action geelark.Action, accounts []models.Account) []Outcome {
	if action.ScheduleAt.IsZero() {
		action.ScheduleAt = time.Now()
	}

	outcomes := make([]Outcome, len(accounts))

	var g errgroup.Group
	for i := range accounts {
		g.Go(func() error {
			outcomes[i] = d.dispatchOne(ctx, action, accounts[i])
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, action geelark.Action, acc models.Account) Outcome {
	outcome := Outcome{
		Username: acc.Username,
		Platform: acc.Platform,
		MobileID: acc.MobileID,
	}

	req, err := d.encoder.Encode(action, &acc)
	if err != nil {
		d.logger.Warn("Cannot encode action",
			zap.String("action", string(action.Kind)),
			zap.String("platform", string(acc.Platform)),
			zap.String("username", acc.Username),
			zap.Error(err))
		outcome.Err = err
		return outcome
	}

	result, err := d.api.CreateTask(ctx, req)
	if err != nil {
		d.logger.Error("Remote task creation failed",
			zap.String("action", string(action.Kind)),
			zap.String("username", acc.Username),
			zap.Error(err))
		outcome.Err = err
		return outcome
	}
	outcome.TaskID = result.TaskID

	scheduledAt := time.Unix(action.ScheduleAt.Unix(), 0)
	task := &models.Task{
		TaskID:      result.TaskID,
		TraceID:     result.TraceID,
		MobileID:    acc.MobileID,
		Status:      models.StatusWaiting,
		ScheduledAt: scheduledAt,
	}

	var post *models.Post
	if action.Kind == geelark.ActionPublish {
		post = &models.Post{
			TaskID:     result.TaskID,
			Username:   acc.Username,
			Platform:   acc.Platform,
			Caption:    action.Caption,
			MediaURL:   action.MediaURL,
			MediaKind:  action.MediaKind,
			Status:     models.StatusWaiting,
			ScheduleAt: scheduledAt,
		}
	}

	if err := d.ledger.RecordDispatch(ctx, task, post); err != nil {
		// The remote job is live but we have no record of it. Nothing is
		// rolled back remotely; the id in the log is the only handle an
		// operator has left.
		d.logger.Error("Task accepted remotely but not recorded locally",
			zap.String("task_id", result.TaskID),
			zap.String("trace_id", result.TraceID),
			zap.String("username", acc.Username),
			zap.Error(err))
		outcome.Err = err
		return outcome
	}

	d.logger.Info("Task dispatched",
		zap.String("action", string(action.Kind)),
		zap.String("task_id", result.TaskID),
		zap.String("platform", string(acc.Platform)),
		zap.String("username", acc.Username))

	return outcome
}
