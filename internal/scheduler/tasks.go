package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskContextCleanup erases conversational contexts past the retention
// window. Registered periodically; the payload carries the retention so a
// manual enqueue can override it.
const TaskContextCleanup = "leads.context.cleanup"

type ContextCleanupPayload struct {
	RetentionHours int `json:"retentionHours"`
}

func NewContextCleanupTask(payload ContextCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContextCleanup, data), nil
}

func ParseContextCleanupPayload(task *asynq.Task) (ContextCleanupPayload, error) {
	var payload ContextCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ContextCleanupPayload{}, err
	}
	return payload, nil
}
