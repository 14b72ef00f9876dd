package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TaskDistributeLead    = "leads.distribute"
	TaskDistributeSweep   = "leads.distribute_sweep"
	TaskBudgetResetWindow = "budget.reset_windows"
	TaskRolesCleanup      = "auth.roles.cleanup"
)

const distributeMaxRetry = 5

type DistributeLeadPayload struct {
	LeadID string `json:"leadId"`
}

func NewDistributeLeadTask(payload DistributeLeadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistributeLead, data), nil
}

func ParseDistributeLeadPayload(task *asynq.Task) (DistributeLeadPayload, error) {
	var payload DistributeLeadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributeLeadPayload{}, fmt.Errorf("decode %s payload: %w", TaskDistributeLead, err)
	}
	return payload, nil
}

// Periodic tasks carry no payload.
func NewDistributeSweepTask() *asynq.Task { return asynq.NewTask(TaskDistributeSweep, nil) }
func NewBudgetResetTask() *asynq.Task     { return asynq.NewTask(TaskBudgetResetWindow, nil) }
func NewRolesCleanupTask() *asynq.Task    { return asynq.NewTask(TaskRolesCleanup, nil) }
