package scheduler

import (
	"context"
	"errors"
	"testing"

	"homni_backend/internal/leads/distribution"
	"homni_backend/platform/apperr"
	"homni_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeDistributor struct {
	byID     []uuid.UUID
	assignTo *uuid.UUID
	err      error
	sweeps   int
	sweepErr error
}

func (d *fakeDistributor) DistributeByID(_ context.Context, leadID uuid.UUID) (*uuid.UUID, error) {
	d.byID = append(d.byID, leadID)
	return d.assignTo, d.err
}

func (d *fakeDistributor) DistributeLeads(context.Context) (distribution.Result, error) {
	d.sweeps++
	return distribution.Result{AssignedCount: 2}, d.sweepErr
}

type counter struct {
	calls int
	err   error
}

func (c *counter) ResetWindows(context.Context) (int64, error) {
	c.calls++
	return 3, c.err
}

func (c *counter) CleanupExpiredRoles(context.Context) (int64, error) {
	c.calls++
	return 1, c.err
}

func newTestWorker(d *fakeDistributor, budget, roles *counter) *Worker {
	return newWorker(WorkerDeps{Distributor: d, Budget: budget, Roles: roles}, logger.Discard())
}

func TestDistributeLeadTaskCallsDistributor(t *testing.T) {
	d := &fakeDistributor{}
	w := newTestWorker(d, &counter{}, &counter{})
	leadID := uuid.New()

	task, err := NewDistributeLeadTask(DistributeLeadPayload{LeadID: leadID.String()})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := w.mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(d.byID) != 1 || d.byID[0] != leadID {
		t.Fatalf("expected distribution of %s, got %v", leadID, d.byID)
	}
}

func TestDistributeLeadTaskErrors(t *testing.T) {
	cases := []struct {
		name      string
		payload   []byte
		distErr   error
		wantErr   bool
		skipRetry bool
	}{
		{"malformed payload", []byte("{"), nil, true, true},
		{"bad lead id", []byte(`{"leadId":"nope"}`), nil, true, true},
		{"missing lead is dropped", []byte(`{"leadId":"` + uuid.NewString() + `"}`), apperr.NotFound("lead not found"), false, false},
		{"store down retries", []byte(`{"leadId":"` + uuid.NewString() + `"}`), apperr.Unavailable(errors.New("down")), true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWorker(&fakeDistributor{err: tc.distErr}, &counter{}, &counter{})
			err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskDistributeLead, tc.payload))

			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if errors.Is(err, asynq.SkipRetry) != tc.skipRetry {
				t.Fatalf("expected skip retry %v, got %v", tc.skipRetry, err)
			}
		})
	}
}

func TestPeriodicTasksReachTheirServices(t *testing.T) {
	d := &fakeDistributor{}
	budget := &counter{}
	roles := &counter{}
	w := newTestWorker(d, budget, roles)

	for _, entry := range periodicEntries {
		if err := w.mux.ProcessTask(context.Background(), entry.task()); err != nil {
			t.Fatalf("process %s: %v", entry.task().Type(), err)
		}
	}

	if d.sweeps != 1 || budget.calls != 1 || roles.calls != 1 {
		t.Fatalf("expected one call each, got sweep=%d budget=%d roles=%d", d.sweeps, budget.calls, roles.calls)
	}
}

func TestDistributeTaskIDIsStablePerLead(t *testing.T) {
	id := uuid.New()
	if distributeTaskID(id) != distributeTaskID(id) {
		t.Fatal("task id must be deterministic")
	}
	if distributeTaskID(id) == distributeTaskID(uuid.New()) {
		t.Fatal("task ids of different leads must differ")
	}
}
