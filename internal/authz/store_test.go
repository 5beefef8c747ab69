package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreAdminOverride(t *testing.T) {
	store := NewStore(Actor{UserID: 1, Role: RoleAdmin})

	require.True(t, store.Has(CapAcquisitionsCancel))
	require.True(t, store.HasAny(CapOrdersShip, CapUsersDelete))
	require.True(t, store.HasAll(CapAcquisitionsView, CapOrdersView, CapUsersView))
	require.True(t, store.HasAny(), "admin grants even the empty query")
	require.True(t, store.HasAll())
}

func TestStoreMembership(t *testing.T) {
	store := NewStore(Actor{
		UserID:       7,
		Role:         "Operator",
		Capabilities: []Capability{CapAcquisitionsView, CapAcquisitionsReceive},
	})

	require.True(t, store.Has(CapAcquisitionsView))
	require.True(t, store.Has(CapAcquisitionsReceive))
	require.False(t, store.Has(CapAcquisitionsCancel))

	require.True(t, store.HasAny(CapAcquisitionsCancel, CapAcquisitionsReceive))
	require.False(t, store.HasAny(CapAcquisitionsCancel, CapOrdersShip))

	require.True(t, store.HasAll(CapAcquisitionsView, CapAcquisitionsReceive))
	require.False(t, store.HasAll(CapAcquisitionsView, CapAcquisitionsCancel))
}

func TestStoreFailsClosedWithoutActor(t *testing.T) {
	var store *Store
	require.False(t, store.Has(CapAcquisitionsView))
	require.False(t, store.HasAny(CapAcquisitionsView))
	require.False(t, store.HasAll())

	empty := &Store{}
	require.False(t, empty.Has(CapAcquisitionsView))
	require.False(t, empty.HasAny(CapAcquisitionsView, CapOrdersView))
}

func TestGatePrecedence(t *testing.T) {
	store := NewStore(Actor{
		UserID:       3,
		Role:         "Planner",
		Capabilities: []Capability{CapOrdersView},
	})
	gate := NewGate(store)

	// Required dominates: AnyOf/AllOf are ignored once Required is set.
	require.True(t, gate.Evaluate(Constraints{
		Required: CapOrdersView,
		AllOf:    []Capability{CapOrdersCancel, CapOrdersShip},
	}))
	require.False(t, gate.Evaluate(Constraints{
		Required: CapOrdersCancel,
		AnyOf:    []Capability{CapOrdersView},
	}))

	require.True(t, gate.Evaluate(Constraints{AnyOf: []Capability{CapOrdersCancel, CapOrdersView}}))
	require.False(t, gate.Evaluate(Constraints{AllOf: []Capability{CapOrdersView, CapOrdersCancel}}))

	// No constraint at all renders the action.
	require.True(t, gate.Evaluate(Constraints{}))

	var unWired *Gate
	require.False(t, unWired.Evaluate(Constraints{}))
}

func TestCapabilityEnumerationIsClosed(t *testing.T) {
	require.True(t, IsKnownCapability(CapAcquisitionsProcess))
	require.False(t, IsKnownCapability(Capability("Acquisitions.Invent")))
}
