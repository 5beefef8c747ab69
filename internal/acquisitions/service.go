package acquisitions

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

const statsCacheKey = "stats:acquisitions"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Acquisition, int, error)
	Get(ctx context.Context, id int64) (Acquisition, error)
	Create(ctx context.Context, a Acquisition) (Acquisition, error)
	UpdateDraft(ctx context.Context, a Acquisition) (Acquisition, error)
	// UpdateStatus moves id from "from" to "to" and fails with
	// shared.ErrStaleEntity when the stored status no longer matches.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (Acquisition, error)
	CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error)
}

// AuditPort records applied transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the acquisitions workflow.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	stats    *cache.JSONCache
	metrics  *observability.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the acquisitions service.
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

// Overview bundles one page of acquisitions with the header statistics; the
// console renders both behind a single loading state.
type Overview struct {
	Page       collection.PagedResult[Item] `json:"page"`
	Statistics Statistics                   `json:"statistics"`
}

// Item is one list row: the entity plus its renderable actions and urgency
// tier. Actions the actor may not perform are absent, never disabled.
type Item struct {
	Acquisition
	AvailableActions []lifecycle.Action `json:"availableActions"`
	Urgency          urgency.Tier       `json:"urgency"`
}

// Overview loads the page and the statistics as one atomic load; either
// failure fails the whole load.
func (s *Service) Overview(ctx context.Context, q collection.Query, gate *authz.Gate) (Overview, error) {
	var (
		page  collection.PagedResult[Acquisition]
		stats Statistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.List(gctx, q)
		return err
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
	items := collection.MapPage(page, func(a Acquisition) Item {
		return s.decorate(a, gate, now)
	})
	return Overview{Page: items, Statistics: stats}, nil
}

// List returns one page of acquisitions.
func (s *Service) List(ctx context.Context, q collection.Query) (collection.PagedResult[Acquisition], error) {
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return collection.PagedResult[Acquisition]{}, err
	}
	return collection.NewPagedResult(rows, q.Page, q.PageSize, total), nil
}

// Statistics returns the cached aggregate counters.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	err := s.stats.FetchJSON(ctx, statsCacheKey, &stats, func(ctx context.Context) (any, error) {
		return s.repo.CollectStatistics(ctx, s.now())
	})
	return stats, err
}

// Get fetches one acquisition with its renderable actions.
func (s *Service) Get(ctx context.Context, id int64, gate *authz.Gate) (Item, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return s.decorate(a, gate, s.now()), nil
}

// Create persists a new draft acquisition.
func (s *Service) Create(ctx context.Context, input CreateRequest, actorID int64) (Acquisition, error) {
	if err := s.validate.Struct(input); err != nil {
		return Acquisition{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = generateNumber("ACQ")
	}
	a := Acquisition{
		Number:       number,
		SupplierID:   input.SupplierID,
		MaterialType: MaterialType(input.MaterialType),
		Quantity:     input.Quantity,
		Unit:         input.Unit,
		UnitPrice:    input.UnitPrice,
		DueDate:      input.DueDate,
		Status:       Machine.Initial,
		Note:         input.Note,
		CreatedBy:    actorID,
	}
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return Acquisition{}, err
	}
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "acquisition.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// Update edits a draft acquisition.
func (s *Service) Update(ctx context.Context, id int64, input UpdateRequest, actorID int64) (Acquisition, error) {
	if err := s.validate.Struct(input); err != nil {
		return Acquisition{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Acquisition{}, err
	}
	if a.Status != StatusDraft {
		return Acquisition{}, ErrNotEditable
	}
	if input.SupplierID != nil {
		a.SupplierID = *input.SupplierID
	}
	if input.Quantity != nil {
		a.Quantity = *input.Quantity
	}
	if input.Unit != nil {
		a.Unit = *input.Unit
	}
	if input.UnitPrice != nil {
		a.UnitPrice = *input.UnitPrice
	}
	if input.DueDate != nil {
		a.DueDate = input.DueDate
	}
	if input.Note != nil {
		a.Note = *input.Note
	}
	updated, err := s.repo.UpdateDraft(ctx, a)
	if err != nil {
		return Acquisition{}, err
	}
	s.recordAudit(ctx, actorID, "acquisition.update", updated.ID, nil)
	return updated, nil
}

// Apply performs a named transition. The capability behind the action is
// re-checked here: per-row rendering is an affordance, the server stays the
// arbiter of legality.
func (s *Service) Apply(ctx context.Context, id int64, action lifecycle.Action, gate *authz.Gate, actorID int64) (Item, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	rule, ok := Machine.Resolve(a.Status, action)
	if !ok {
		return Item{}, fmt.Errorf("%w: acquisition %q in status %q", lifecycle.ErrUnknownAction, action, a.Status)
	}
	if !gate.Evaluate(authz.Constraints{Required: rule.Capability}) {
		return Item{}, fmt.Errorf("acquisitions: %s: %w", action, shared.ErrForbidden)
	}
	next, err := Machine.Next(a, a.Status, action)
	if err != nil {
		return Item{}, err
	}
	updated, err := s.repo.UpdateStatus(ctx, id, a.Status, next)
	if err != nil {
		if errors.Is(err, shared.ErrStaleEntity) {
			s.metrics.ObserveStaleRejection("acquisition")
		}
		return Item{}, err
	}
	s.metrics.ObserveTransition("acquisition", string(action))
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "acquisition."+string(action), id, map[string]any{
		"from": string(a.Status),
		"to":   string(next),
	})
	return s.decorate(updated, gate, s.now()), nil
}

func (s *Service) decorate(a Acquisition, gate *authz.Gate, now time.Time) Item {
	return Item{
		Acquisition:      a,
		AvailableActions: Machine.AvailableActions(a, a.Status, gate),
		Urgency:          urgency.Classify(now, a.DueDate, Machine.Completed(a.Status)),
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
		Entity:   "acquisition",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}

func generateNumber(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}
