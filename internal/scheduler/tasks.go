package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCompensationDue = "outbox.compensation.due"

type CompensationDuePayload struct {
	OutboxID string `json:"outboxId"`
}

func NewCompensationDueTask(payload CompensationDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompensationDue, data, asynq.MaxRetry(10)), nil
}

func ParseCompensationDuePayload(task *asynq.Task) (CompensationDuePayload, error) {
	var payload CompensationDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CompensationDuePayload{}, err
	}
	return payload, nil
}
