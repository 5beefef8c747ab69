package materials

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

const statsCacheKey = "stats:materials"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Material, int, error)
	Get(ctx context.Context, id int64) (Material, error)
	Create(ctx context.Context, m Material) (Material, error)
	UpdateAvailable(ctx context.Context, m Material) (Material, error)
	// UpdateStatus moves id from "from" to "to" and fails with
	// shared.ErrStaleEntity when the stored status no longer matches.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (Material, error)
	CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error)
}

// AuditPort records applied transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the warehouse stock workflow.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	stats    *cache.JSONCache
	metrics  *observability.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the materials service.
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

// Item is one list row with its renderable actions and the expiry tier.
// Consumed and archived lots no longer carry urgency.
type Item struct {
	Material
	AvailableActions []lifecycle.Action `json:"availableActions"`
	Urgency          urgency.Tier       `json:"urgency"`
}

// Overview bundles one page of stock lots with the header statistics.
type Overview struct {
	Page       collection.PagedResult[Item] `json:"page"`
	Statistics Statistics                   `json:"statistics"`
}

// Overview loads the page and the statistics as one atomic load.
func (s *Service) Overview(ctx context.Context, q collection.Query, gate *authz.Gate) (Overview, error) {
	var (
		page  collection.PagedResult[Material]
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
		Page:       collection.MapPage(page, func(m Material) Item { return s.decorate(m, gate, now) }),
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

// Get fetches one stock lot with its renderable actions.
func (s *Service) Get(ctx context.Context, id int64, gate *authz.Gate) (Item, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return s.decorate(m, gate, s.now()), nil
}

// Create registers a new available stock lot.
func (s *Service) Create(ctx context.Context, input CreateRequest, actorID int64) (Material, error) {
	if err := s.validate.Struct(input); err != nil {
		return Material{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = "MAT-" + strings.ToUpper(uuid.NewString()[:8])
	}
	m := Material{
		Code:       code,
		Name:       input.Name,
		SupplierID: input.SupplierID,
		Quantity:   input.Quantity,
		Unit:       input.Unit,
		Location:   input.Location,
		ExpiryDate: input.ExpiryDate,
		Status:     Machine.Initial,
		Note:       input.Note,
		CreatedBy:  actorID,
	}
	created, err := s.repo.Create(ctx, m)
	if err != nil {
		return Material{}, err
	}
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "material.create", created.ID, map[string]any{"code": created.Code})
	return created, nil
}

// Update edits an available stock lot.
func (s *Service) Update(ctx context.Context, id int64, input UpdateRequest, actorID int64) (Material, error) {
	if err := s.validate.Struct(input); err != nil {
		return Material{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if m.Status != StatusAvailable {
		return Material{}, ErrNotEditable
	}
	if input.Name != nil {
		m.Name = *input.Name
	}
	if input.SupplierID != nil {
		m.SupplierID = input.SupplierID
	}
	if input.Quantity != nil {
		m.Quantity = *input.Quantity
	}
	if input.Unit != nil {
		m.Unit = *input.Unit
	}
	if input.Location != nil {
		m.Location = *input.Location
	}
	if input.ExpiryDate != nil {
		m.ExpiryDate = input.ExpiryDate
	}
	if input.Note != nil {
		m.Note = *input.Note
	}
	updated, err := s.repo.UpdateAvailable(ctx, m)
	if err != nil {
		return Material{}, err
	}
	s.recordAudit(ctx, actorID, "material.update", updated.ID, nil)
	return updated, nil
}

// Apply performs a named transition. The capability behind the action is
// re-checked here regardless of what the client rendered.
func (s *Service) Apply(ctx context.Context, id int64, action lifecycle.Action, gate *authz.Gate, actorID int64) (Item, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	rule, ok := Machine.Resolve(m.Status, action)
	if !ok {
		return Item{}, fmt.Errorf("%w: material %q in status %q", lifecycle.ErrUnknownAction, action, m.Status)
	}
	if !gate.Evaluate(authz.Constraints{Required: rule.Capability}) {
		return Item{}, fmt.Errorf("materials: %s: %w", action, shared.ErrForbidden)
	}
	next, err := Machine.Next(m, m.Status, action)
	if err != nil {
		return Item{}, err
	}
	updated, err := s.repo.UpdateStatus(ctx, id, m.Status, next)
	if err != nil {
		if errors.Is(err, shared.ErrStaleEntity) {
			s.metrics.ObserveStaleRejection("material")
		}
		return Item{}, err
	}
	s.metrics.ObserveTransition("material", string(action))
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "material."+string(action), id, map[string]any{
		"from": string(m.Status),
		"to":   string(next),
	})
	return s.decorate(updated, gate, s.now()), nil
}

func (s *Service) decorate(m Material, gate *authz.Gate, now time.Time) Item {
	return Item{
		Material:         m,
		AvailableActions: Machine.AvailableActions(m, m.Status, gate),
		Urgency:          urgency.Classify(now, m.ExpiryDate, Machine.Completed(m.Status)),
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
		Entity:   "material",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
