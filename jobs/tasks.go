// Package jobs wires the Asynq worker, its task types and the statistics
// warmup handler.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarmup refreshes the per-entity statistics caches.
	TaskStatsWarmup = "stats:warmup"
)

// StatsWarmupPayload selects which entity caches to refresh. An empty list
// refreshes all of them.
type StatsWarmupPayload struct {
	Entities []string `json:"entities,omitempty"`
}

// NewStatsWarmupTask constructs an Asynq task.
func NewStatsWarmupTask(payload StatsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}
