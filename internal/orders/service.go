package orders

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

const statsCacheKey = "stats:orders"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	List(ctx context.Context, q collection.Query) ([]Order, int, error)
	Get(ctx context.Context, id int64) (Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	UpdateDraft(ctx context.Context, o Order) (Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) (Order, error)
	CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error)
}

// AuditPort records applied transitions.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the order workflow.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	stats    *cache.JSONCache
	metrics  *observability.Metrics
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the orders service.
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
	Order
	AvailableActions []lifecycle.Action `json:"availableActions"`
	Urgency          urgency.Tier       `json:"urgency"`
}

// Overview bundles one page of orders with the header statistics.
type Overview struct {
	Page       collection.PagedResult[Item] `json:"page"`
	Statistics Statistics                   `json:"statistics"`
}

// Overview loads page and statistics as one atomic load.
func (s *Service) Overview(ctx context.Context, q collection.Query, gate *authz.Gate) (Overview, error) {
	var (
		page  collection.PagedResult[Order]
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
		Page:       collection.MapPage(page, func(o Order) Item { return s.decorate(o, gate, now) }),
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

// Get fetches one order with its renderable actions.
func (s *Service) Get(ctx context.Context, id int64, gate *authz.Gate) (Item, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return s.decorate(o, gate, s.now()), nil
}

// Create persists a new draft order.
func (s *Service) Create(ctx context.Context, input CreateRequest, actorID int64) (Order, error) {
	if err := s.validate.Struct(input); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	number := strings.TrimSpace(input.Number)
	if number == "" {
		number = "ORD-" + strings.ToUpper(uuid.NewString()[:8])
	}
	o := Order{
		Number:      number,
		ClientID:    input.ClientID,
		TransportID: input.TransportID,
		TotalAmount: input.TotalAmount,
		Currency:    strings.ToUpper(input.Currency),
		DueDate:     input.DueDate,
		Status:      Machine.Initial,
		Note:        input.Note,
		CreatedBy:   actorID,
	}
	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return Order{}, err
	}
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "order.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// Update edits a draft order.
func (s *Service) Update(ctx context.Context, id int64, input UpdateRequest, actorID int64) (Order, error) {
	if err := s.validate.Struct(input); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Status != StatusDraft {
		return Order{}, ErrNotEditable
	}
	if input.ClientID != nil {
		o.ClientID = *input.ClientID
	}
	if input.TransportID != nil {
		o.TransportID = input.TransportID
	}
	if input.TotalAmount != nil {
		o.TotalAmount = *input.TotalAmount
	}
	if input.DueDate != nil {
		o.DueDate = input.DueDate
	}
	if input.Note != nil {
		o.Note = *input.Note
	}
	updated, err := s.repo.UpdateDraft(ctx, o)
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, actorID, "order.update", updated.ID, nil)
	return updated, nil
}

// Apply performs a named transition, re-checking the capability behind it.
func (s *Service) Apply(ctx context.Context, id int64, action lifecycle.Action, gate *authz.Gate, actorID int64) (Item, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	rule, ok := Machine.Resolve(o.Status, action)
	if !ok {
		return Item{}, fmt.Errorf("%w: order %q in status %q", lifecycle.ErrUnknownAction, action, o.Status)
	}
	if !gate.Evaluate(authz.Constraints{Required: rule.Capability}) {
		return Item{}, fmt.Errorf("orders: %s: %w", action, shared.ErrForbidden)
	}
	next, err := Machine.Next(o, o.Status, action)
	if err != nil {
		return Item{}, err
	}
	updated, err := s.repo.UpdateStatus(ctx, id, o.Status, next)
	if err != nil {
		if errors.Is(err, shared.ErrStaleEntity) {
			s.metrics.ObserveStaleRejection("order")
		}
		return Item{}, err
	}
	s.metrics.ObserveTransition("order", string(action))
	s.invalidateStats(ctx)
	s.recordAudit(ctx, actorID, "order."+string(action), id, map[string]any{
		"from": string(o.Status),
		"to":   string(next),
	})
	return s.decorate(updated, gate, s.now()), nil
}

func (s *Service) decorate(o Order, gate *authz.Gate, now time.Time) Item {
	return Item{
		Order:            o,
		AvailableActions: Machine.AvailableActions(o, o.Status, gate),
		Urgency:          urgency.Classify(now, o.DueDate, Machine.Completed(o.Status)),
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
		Entity:   "order",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
