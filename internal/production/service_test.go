package production

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/collection"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/urgency"
)

type memoryRepo struct {
	rows   map[int64]Run
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Run)}
}

func (r *memoryRepo) List(ctx context.Context, q collection.Query) ([]Run, int, error) {
	matched := []Run{}
	for _, run := range r.rows {
		if q.Search != "" && !strings.Contains(strings.ToLower(run.Number), q.Search) &&
			!strings.Contains(strings.ToLower(run.ProductName), q.Search) {
			continue
		}
		if status := q.Filters["status"]; status != "" && string(run.Status) != status {
			continue
		}
		matched = append(matched, run)
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

func (r *memoryRepo) Get(ctx context.Context, id int64) (Run, error) {
	run, ok := r.rows[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (r *memoryRepo) Create(ctx context.Context, run Run) (Run, error) {
	r.nextID++
	run.ID = r.nextID
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt
	r.rows[run.ID] = run
	return run, nil
}

func (r *memoryRepo) UpdateDraft(ctx context.Context, run Run) (Run, error) {
	current, ok := r.rows[run.ID]
	if !ok {
		return Run{}, ErrNotFound
	}
	run.Status = current.Status
	r.rows[run.ID] = run
	return run, nil
}

func (r *memoryRepo) UpdateStatus(ctx context.Context, id int64, from, to Status) (Run, error) {
	run, ok := r.rows[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	if run.Status != from {
		return Run{}, fmt.Errorf("production: status is %s: %w", run.Status, shared.ErrStaleEntity)
	}
	run.Status = to
	r.rows[id] = run
	return run, nil
}

func (r *memoryRepo) CollectStatistics(ctx context.Context, asOf time.Time) (Statistics, error) {
	stats := Statistics{ByStatus: make(map[Status]int)}
	for _, run := range r.rows {
		stats.ByStatus[run.Status]++
		stats.Total++
		if run.DueDate != nil && run.DueDate.Before(asOf) && run.Status != StatusCompleted && run.Status != StatusCancelled {
			stats.Overdue++
		}
	}
	return stats, nil
}

func adminGate() *authz.Gate {
	return authz.NewGate(authz.NewStore(authz.Actor{UserID: 1, Role: authz.RoleAdmin}))
}

func gateWith(caps ...authz.Capability) *authz.Gate {
	return authz.NewGate(authz.NewStore(authz.Actor{UserID: 2, Role: "Operator", Capabilities: caps}))
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, nil, nil, nil), repo
}

func createRun(t *testing.T, svc *Service, scheduled, due *time.Time) Run {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateRequest{
		ProductName: "Granulate pellets",
		Quantity:    500,
		Unit:        "kg",
		ScheduledAt: scheduled,
		DueDate:     due,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, created.Status)
	require.True(t, strings.HasPrefix(created.Number, "PRD-"))
	return created
}

func TestRunFullLifecycle(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()
	when := time.Now().UTC().Add(24 * time.Hour)
	created := createRun(t, svc, &when, nil)

	for _, step := range []struct {
		action lifecycle.Action
		want   Status
	}{
		{ActionSchedule, StatusScheduled},
		{ActionStart, StatusInProgress},
		{ActionComplete, StatusCompleted},
	} {
		item, err := svc.Apply(context.Background(), created.ID, step.action, gate, 1)
		require.NoError(t, err, "action %s", step.action)
		require.Equal(t, step.want, item.Status)
	}

	final, err := svc.Get(context.Background(), created.ID, gate)
	require.NoError(t, err)
	require.Empty(t, final.AvailableActions)
	require.Equal(t, urgency.TierCompleted, final.Urgency)
}

func TestScheduleRequiresPlannedDate(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()
	created := createRun(t, svc, nil, nil)

	_, err := svc.Apply(context.Background(), created.ID, ActionSchedule, gate, 1)
	require.ErrorIs(t, err, lifecycle.ErrGuardRejected)

	item, err := svc.Get(context.Background(), created.ID, gate)
	require.NoError(t, err)
	require.Equal(t, []lifecycle.Action{ActionCancel}, item.AvailableActions,
		"schedule stays hidden while the guard fails")
}

func TestStartedRunCannotCancel(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()
	when := time.Now().UTC().Add(24 * time.Hour)
	created := createRun(t, svc, &when, nil)

	for _, action := range []lifecycle.Action{ActionSchedule, ActionStart} {
		_, err := svc.Apply(context.Background(), created.ID, action, gate, 1)
		require.NoError(t, err)
	}

	_, err := svc.Apply(context.Background(), created.ID, ActionCancel, gate, 1)
	require.ErrorIs(t, err, lifecycle.ErrUnknownAction)
}

func TestApplyDeniedWithoutCapability(t *testing.T) {
	svc, _ := newTestService()
	when := time.Now().UTC().Add(24 * time.Hour)
	created := createRun(t, svc, &when, nil)

	viewer := gateWith(authz.CapProductionView, authz.CapProductionCancel)
	_, err := svc.Apply(context.Background(), created.ID, ActionSchedule, viewer, 2)
	require.ErrorIs(t, err, shared.ErrForbidden)

	item, err := svc.Get(context.Background(), created.ID, viewer)
	require.NoError(t, err)
	require.Equal(t, []lifecycle.Action{ActionCancel}, item.AvailableActions)
}

func TestOverviewUrgencyFromDueDate(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()

	overdue := time.Now().UTC().AddDate(0, 0, -3)
	soon := time.Now().UTC().AddDate(0, 0, 2)
	far := time.Now().UTC().AddDate(0, 0, 45)
	createRun(t, svc, nil, &overdue)
	createRun(t, svc, nil, &soon)
	createRun(t, svc, nil, &far)

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

func TestUpdateDraftsOnly(t *testing.T) {
	svc, _ := newTestService()
	gate := adminGate()
	when := time.Now().UTC().Add(24 * time.Hour)
	created := createRun(t, svc, &when, nil)

	name := "Granulate pellets fine"
	updated, err := svc.Update(context.Background(), created.ID, UpdateRequest{ProductName: &name}, 1)
	require.NoError(t, err)
	require.Equal(t, name, updated.ProductName)

	_, err = svc.Apply(context.Background(), created.ID, ActionSchedule, gate, 1)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, UpdateRequest{ProductName: &name}, 1)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}
