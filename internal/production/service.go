package production

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/urgency"
)

const statsCacheKey = "stats:production"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Run, int, error)
	Get(ctx context.Context, id int64) (Run, error)
	Create(ctx context.Context, run Run) (Run, error)
	UpdateDraft(ctx context.Context, run Run) (Run, error)
	// UpdateStatus moves id from "from" to "to" and fails with
	// shared.ErrStaleEntity when the stored status no longer matches.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (Run, error)
	CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error)
}

// AuditPort records applied transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the production run workflow.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	stats    *cache.JSONCache
	metrics  *observability.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the production service.
func NewService(repo RepositoryPort, audit AuditPort, stats *cache.JSONCache, metrics *observability.Metrics) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		stats:    stats,
		metrics:  metrics,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Item is one list row with its renderable actions and urgency tier.
type Item struct {
	Run
	AvailableActions []lifecycle.Action `json:"availableActions"`
	Urgency          urgency.Tier       `json:"urgency"`
}

// Overview bundles one page of runs with the header statistics.
type Overview struct {
	Page       collection.PagedResult[Item] `json:"page"`
	Statistics Statistics                   `json:"statistics"`
}

// Overview loads the page and the statistics as one atomic load.
func (s *Service) Overview(ctx context.Context, q collection.Query, gate *authz.Gate) (Overview, error) {
	var (
		page  collection.PagedResult[Run]
		stats Statistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, total, err := s.repo.List(gctx, q)
		if err != nil {
			return err
		}
		page = collection.NewPagedResult(rows, q.Page, q.PageSize, total)
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = s.Statistics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	now := s.now()
	return Overview{
		Page:       collection.MapPage(page, func(run Run) Item { return s.decorate(run, gate, now) }),
		Statistics: stats,
	}, nil
}

// Statistics returns the cached aggregate counters.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	err := s.stats.FetchJSON(ctx, statsCacheKey, &stats, func(ctx context.Context) (any, error) {
		return s.repo.CollectStatistics(ctx, s.now())
	})
	return stats, err
}

// Get fetches one run with its renderable actions.
func (s *Service) Get(ctx context.Context, id int64, gate *authz.Gate) (Item, error) {
	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return s.decorate(run, gate, s.now()), nil
}

// Create persists a new draft run.
func (s *Service) Create(ctx context.Context, input CreateRequest, actorID int64) (Run, error) {
	if err := s.validate.Struct(input); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = "PRD-" + strings.ToUpper(uuid.NewString()[:8])
	}
	run := Run{
		Number:      number,
		ProductName: input.ProductName,
		Quantity:    input.Quantity,
		Unit:        input.Unit,
		ScheduledAt: input.ScheduledAt,
		DueDate:     input.DueDate,
		Status:      Machine.Initial,
		Note:        input.Note,
		CreatedBy:   actorID,
	}
	created, err := s.repo.Create(ctx, run)
	if err != nil {
		return Run{}, err
	}
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "production.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// Update edits a draft run.
func (s *Service) Update(ctx context.Context, id int64, input UpdateRequest, actorID int64) (Run, error) {
	if err := s.validate.Struct(input); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return Run{}, err
	}
	if run.Status != StatusDraft {
		return Run{}, ErrNotEditable
	}
	if input.ProductName != nil {
		run.ProductName = *input.ProductName
	}
	if input.Quantity != nil {
		run.Quantity = *input.Quantity
	}
	if input.Unit != nil {
		run.Unit = *input.Unit
	}
	if input.ScheduledAt != nil {
		run.ScheduledAt = input.ScheduledAt
	}
	if input.DueDate != nil {
		run.DueDate = input.DueDate
	}
	if input.Note != nil {
		run.Note = *input.Note
	}
	updated, err := s.repo.UpdateDraft(ctx, run)
	if err != nil {
		return Run{}, err
	}
	s.recordAudit(ctx, actorID, "production.update", updated.ID, nil)
	return updated, nil
}

// Apply performs a named transition. The capability behind the action is
// re-checked here regardless of what the client rendered.
func (s *Service) Apply(ctx context.Context, id int64, action lifecycle.Action, gate *authz.Gate, actorID int64) (Item, error) {
	run, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	rule, ok := Machine.Resolve(run.Status, action)
	if !ok {
		return Item{}, fmt.Errorf("%w: production run %q in status %q", lifecycle.ErrUnknownAction, action, run.Status)
	}
	if !gate.Evaluate(authz.Constraints{Required: rule.Capability}) {
		return Item{}, fmt.Errorf("production: %s: %w", action, shared.ErrForbidden)
	}
	next, err := Machine.Next(run, run.Status, action)
	if err != nil {
		return Item{}, err
	}
	updated, err := s.repo.UpdateStatus(ctx, id, run.Status, next)
	if err != nil {
		if errors.Is(err, shared.ErrStaleEntity) {
			s.metrics.ObserveStaleRejection("production")
		}
		return Item{}, err
	}
	s.metrics.ObserveTransition("production", string(action))
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "production."+string(action), id, map[string]any{
		"from": string(run.Status),
		"to":   string(next),
	})
	return s.decorate(updated, gate, s.now()), nil
}

func (s *Service) decorate(run Run, gate *authz.Gate, now time.Time) Item {
	return Item{
		Run:              run,
		AvailableActions: Machine.AvailableActions(run, run.Status, gate),
		Urgency:          urgency.Classify(now, run.DueDate, Machine.Completed(run.Status)),
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	_ = s.stats.Invalidate(ctx, statsCacheKey)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "production",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
