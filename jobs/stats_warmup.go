package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/acquisitions"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/materials"
	"github.com/meridian-erp/meridian-erp/internal/orders"
	"github.com/meridian-erp/meridian-erp/internal/production"
)

// StatsWarmupJob re-primes the Redis statistics caches so the first list
// load after an idle period does not pay the aggregate query.
type StatsWarmupJob struct {
	Acquisitions *acquisitions.Service
	Orders       *orders.Service
	Materials    *materials.Service
	Production   *production.Service
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(acq *acquisitions.Service, ord *orders.Service, mat *materials.Service, prod *production.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmupJob {
	return &StatsWarmupJob{
		Acquisitions: acq,
		Orders:       ord,
		Materials:    mat,
		Production:   prod,
		Logger:       logger,
		Metrics:      metrics,
	}
}

// Handle processes statistics warmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track("stats_warmup")
	wanted := make(map[string]bool, len(payload.Entities))
	for _, e := range payload.Entities {
		wanted[e] = true
	}
	all := len(wanted) == 0

	var firstErr error
	warm := func(entity string, load func(context.Context) error) {
		if !all && !wanted[entity] {
			return
		}
		if err := load(ctx); err != nil {
			j.Logger.Warn("stats warmup", slog.String("entity", entity), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		j.Metrics.AddWarmed(entity, 1)
	}

	warm("acquisitions", func(ctx context.Context) error {
		_, err := j.Acquisitions.Statistics(ctx)
		return err
	})
	warm("orders", func(ctx context.Context) error {
		_, err := j.Orders.Statistics(ctx)
		return err
	})
	warm("materials", func(ctx context.Context) error {
		_, err := j.Materials.Statistics(ctx)
		return err
	})
	warm("production", func(ctx context.Context) error {
		_, err := j.Production.Statistics(ctx)
		return err
	})

	return tracker.End(firstErr)
}
