package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/geelark"
	"github.com/sociomanager/sociomanager/internal/models"
)

type fakeReconcileLedger struct {
	open    []models.Task
	openErr error

	updateCalls int
	staged      []StatusChange
	updateErr   error
}

func (f *fakeReconcileLedger) FindOpenTasks(context.Context) ([]models.Task, error) {
	return f.open, f.openErr
}

func (f *fakeReconcileLedger) BulkUpdateStatus(_ context.Context, changes []StatusChange) (int64, error) {
	f.updateCalls++
	f.staged = changes
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	return int64(len(changes)), nil
}

type fakeQuerier struct {
	calls    int
	gotIDs   []string
	statuses []geelark.TaskStatus
	err      error
}

func (f *fakeQuerier) QueryTasks(_ context.Context, ids []string) ([]geelark.TaskStatus, error) {
	f.calls++
	f.gotIDs = ids
	return f.statuses, f.err
}

func TestReconcilerRunOnce(t *testing.T) {
	logger := zap.NewNop()

	t.Run("Only Changed Rows Are Staged", func(t *testing.T) {
		ledger := &fakeReconcileLedger{open: []models.Task{
			{TaskID: "t1", Status: models.StatusWaiting},
			{TaskID: "t2", Status: models.StatusWaiting},
		}}
		querier := &fakeQuerier{statuses: []geelark.TaskStatus{
			{ID: "t1", Status: models.StatusCompleted},
			{ID: "t2", Status: models.StatusWaiting},
		}}

		NewReconciler(ledger, querier, logger).RunOnce(context.Background())

		if querier.calls != 1 || len(querier.gotIDs) != 2 {
			t.Fatalf("expected one bulk query over both ids, got %d calls over %v", querier.calls, querier.gotIDs)
		}
		if ledger.updateCalls != 1 {
			t.Fatalf("expected one bulk update, got %d", ledger.updateCalls)
		}
		if len(ledger.staged) != 1 || ledger.staged[0].TaskID != "t1" || ledger.staged[0].Status != models.StatusCompleted {
			t.Errorf("expected only t1 staged as Completed, got %v", ledger.staged)
		}
	})

	t.Run("Query Failure Aborts Without Mutation", func(t *testing.T) {
		ledger := &fakeReconcileLedger{open: []models.Task{{TaskID: "t1", Status: models.StatusWaiting}}}
		querier := &fakeQuerier{err: errors.New("remote down")}

		NewReconciler(ledger, querier, logger).RunOnce(context.Background())

		if ledger.updateCalls != 0 {
			t.Error("ledger must not be touched when the bulk query fails")
		}
	})

	t.Run("No Open Tasks Skips The Remote Call", func(t *testing.T) {
		ledger := &fakeReconcileLedger{}
		querier := &fakeQuerier{}

		NewReconciler(ledger, querier, logger).RunOnce(context.Background())

		if querier.calls != 0 {
			t.Error("expected no remote call with nothing to reconcile")
		}
		if ledger.updateCalls != 0 {
			t.Error("expected no update with nothing to reconcile")
		}
	})

	t.Run("No Changes Means No Write", func(t *testing.T) {
		ledger := &fakeReconcileLedger{open: []models.Task{{TaskID: "t1", Status: models.StatusInProgress}}}
		querier := &fakeQuerier{statuses: []geelark.TaskStatus{{ID: "t1", Status: models.StatusInProgress}}}

		NewReconciler(ledger, querier, logger).RunOnce(context.Background())

		if ledger.updateCalls != 0 {
			t.Error("an all-unchanged pass must not write")
		}
	})

	t.Run("Unknown Remote IDs Are Ignored", func(t *testing.T) {
		ledger := &fakeReconcileLedger{open: []models.Task{{TaskID: "t1", Status: models.StatusWaiting}}}
		querier := &fakeQuerier{statuses: []geelark.TaskStatus{
			{ID: "t1", Status: models.StatusFailed},
			{ID: "t-unknown", Status: models.StatusCompleted},
		}}

		NewReconciler(ledger, querier, logger).RunOnce(context.Background())

		if len(ledger.staged) != 1 || ledger.staged[0].TaskID != "t1" {
			t.Errorf("expected only the known id staged, got %v", ledger.staged)
		}
	})

	t.Run("Ledger Read Failure Skips The Pass", func(t *testing.T) {
		ledger := &fakeReconcileLedger{openErr: errors.New("db down")}
		querier := &fakeQuerier{}

		NewReconciler(ledger, querier, logger).RunOnce(context.Background())

		if querier.calls != 0 || ledger.updateCalls != 0 {
			t.Error("expected nothing to happen when open tasks cannot be read")
		}
	})
}
