package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/urgency"
)

type memoryRepo struct {
	rows   map[int64]Order
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Order)}
}

func (r *memoryRepo) List(ctx context.Context, q collection.Query) ([]Order, int, error) {
	matched := []Order{}
	for _, o := range r.rows {
		if q.Search != "" && !strings.Contains(strings.ToLower(o.Number), q.Search) {
			continue
		}
		if status := q.Filters["status"]; status != "" && string(o.Status) != status {
			continue
		}
		matched = append(matched, o)
	}
	total := len(matched)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Order, error) {
	o, ok := r.rows[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *memoryRepo) Create(ctx context.Context, o Order) (Order, error) {
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	r.rows[o.ID] = o
	return o, nil
}

func (r *memoryRepo) UpdateDraft(ctx context.Context, o Order) (Order, error) {
	current, ok := r.rows[o.ID]
	if !ok {
		return Order{}, ErrNotFound
	}
	o.Status = current.Status
	r.rows[o.ID] = o
	return o, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) (Order, error) {
	o, ok := r.rows[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Status != from {
		return Order{}, fmt.Errorf("orders: status is %s: %w", o.Status, shared.ErrStaleEntity)
	}
	o.Status = to
	r.rows[id] = o
	return o, nil
}

func (r *memoryRepo) CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error) {
	stats := Statistics{ByStatus: make(map[Status]int)}
	for _, o := range r.rows {
		stats.ByStatus[o.Status]++
		stats.Total++
		if o.DueDate != nil && o.DueDate.Before(asOf) && o.Status != StatusDelivered && o.Status != StatusCancelled {
			stats.Overdue++
		}
	}
	return stats, nil
}

func adminGate() *authz.Gate {
	return authz.NewGate(authz.NewStore(authz.Actor{UserID: 1, Role: authz.RoleAdmin}))
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, nil, nil, nil), repo
}

func createDraft(t *testing.T, svc *Service, due *time.Time) Order {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateRequest{
		ClientID: 4,
		Currency: "eur",
		DueDate:  due,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, created.Status)
	require.Equal(t, "EUR", created.Currency)
	return created
}

func TestOrderFullLifecycle(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()
	created := createDraft(t, svc, nil)

	for _, step := range []struct {
		action lifecycle.Action
		want   Status
	}{
		{ActionSubmit, StatusPending},
		{ActionProcess, StatusProcessing},
		{ActionShip, StatusShipped},
		{ActionDeliver, StatusDelivered},
	} {
		item, err := svc.Apply(context.Background(), created.ID, step.action, gate, 1)
		require.NoError(t, err, "action %s", step.action)
		require.Equal(t, step.want, item.Status)
	}

	final, err := svc.Get(context.Background(), created.ID, gate)
	require.NoError(t, err)
	require.Empty(t, final.AvailableActions, "delivered is terminal")
	require.Equal(t, urgency.TierCompleted, final.Urgency)
}

func TestShippedOrdersCannotCancel(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()
	created := createDraft(t, svc, nil)

	for _, action := range []lifecycle.Action{ActionSubmit, ActionProcess, ActionShip} {
		_, err := svc.Apply(context.Background(), created.ID, action, gate, 1)
		require.NoError(t, err)
	}

	_, err := svc.Apply(context.Background(), created.ID, ActionCancel, gate, 1)
	require.ErrorIs(t, err, lifecycle.ErrUnknownAction)
}

func TestOverviewUrgencyFromDueDate(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()

	overdue := time.Now().UTC().AddDate(0, 0, -2)
	soon := time.Now().UTC().AddDate(0, 0, 3)
	far := time.Now().UTC().AddDate(0, 0, 30)
	createDraft(t, svc, &overdue)
	createDraft(t, svc, &soon)
	createDraft(t, svc, &far)

	overview, err := svc.Overview(context.Background(), collection.Query{Page: 1, PageSize: 10}, gate)
	require.NoError(t, err)
	require.Len(t, overview.Page.Items, 3)

	tiers := map[urgency.Tier]int{}
	for _, item := range overview.Page.Items {
		tiers[item.Urgency]++
	}
	require.Equal(t, 1, tiers[urgency.TierRed])
	require.Equal(t, 1, tiers[urgency.TierYellow])
	require.Equal(t, 1, tiers[urgency.TierGreen])
	require.Equal(t, 1, overview.Statistics.Overdue)
}

func TestApplyStaleStatus(t *testing.T) {
	svc, repo := newTestService()
	gate := adminGate()
	created := createDraft(t, svc, nil)

	// Another session submits the order between this client's fetch and
	// its transition request.
	o := repo.rows[created.ID]
	o.Status = StatusPending
	repo.rows[created.ID] = o

	_, err := svc.Apply(context.Background(), created.ID, ActionSubmit, gate, 1)
	require.ErrorIs(t, err, lifecycle.ErrUnknownAction)
}

// racingRepo reports a concurrent status change only at write time, after the
// service already read the entity.
type racingRepo struct {
	*memoryRepo
}

func (r *racingRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) (Order, error) {
	return Order{}, fmt.Errorf("orders: status is %s: %w", StatusPending, shared.ErrStaleEntity)
}

func TestApplyRecordsTransitionMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, metrics)
	gate := adminGate()
	created := createDraft(t, svc, nil)

	_, err := svc.Apply(context.Background(), created.ID, ActionSubmit, gate, 1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `meridian_lifecycle_transitions_total{action="submit",entity="order"} 1`)
	require.NotContains(t, body, `meridian_lifecycle_stale_rejections_total{entity="order"}`)
}

func TestApplyStaleWriteRecordsRejection(t *testing.T) {
	metrics := observability.NewMetrics()
	repo := newMemoryRepo()
	svc := NewService(&racingRepo{repo}, nil, nil, metrics)
	gate := adminGate()
	created := createDraft(t, svc, nil)

	_, err := svc.Apply(context.Background(), created.ID, ActionSubmit, gate, 1)
	require.ErrorIs(t, err, shared.ErrStaleEntity)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.Contains(t, body, `meridian_lifecycle_stale_rejections_total{entity="order"} 1`)
}
