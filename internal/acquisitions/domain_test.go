package acquisitions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/lifecycle"
)

func adminGate() *authz.Gate {
	return authz.NewGate(authz.NewStore(authz.Actor{UserID: 1, Role: authz.RoleAdmin}))
}

func gateWith(caps ...authz.Capability) *authz.Gate {
	return authz.NewGate(authz.NewStore(authz.Actor{UserID: 2, Role: "Operator", Capabilities: caps}))
}

func TestMachineDraftActions(t *testing.T) {
	raw := Acquisition{MaterialType: MaterialRaw, Status: StatusDraft}

	actions := Machine.AvailableActions(raw, raw.Status, adminGate())
	require.Contains(t, actions, ActionReceive)
	require.Contains(t, actions, ActionCancel)
	require.NotContains(t, actions, ActionProcess, "process is never offered from draft")
}

func TestMachineCancelledIsTerminal(t *testing.T) {
	a := Acquisition{MaterialType: MaterialRecyclable, Status: StatusCancelled}
	require.Empty(t, Machine.AvailableActions(a, a.Status, adminGate()))
	require.True(t, Machine.Terminal(StatusCancelled))
	require.True(t, Machine.Terminal(StatusReceived))
}

func TestMachineProcessIsTypeGated(t *testing.T) {
	raw := Acquisition{MaterialType: MaterialRaw, Status: StatusReadyForProcessing}
	recyclable := Acquisition{MaterialType: MaterialRecyclable, Status: StatusReadyForProcessing}

	require.NotContains(t, Machine.AvailableActions(raw, raw.Status, adminGate()), ActionProcess)
	require.Contains(t, Machine.AvailableActions(recyclable, recyclable.Status, adminGate()), ActionProcess)
}

func TestMachineSuppressesUngatedActions(t *testing.T) {
	a := Acquisition{MaterialType: MaterialRaw, Status: StatusDraft}
	gate := gateWith(authz.CapAcquisitionsReceive)

	actions := Machine.AvailableActions(a, a.Status, gate)
	require.Contains(t, actions, ActionReceive)
	require.NotContains(t, actions, ActionCancel, "actor without Acquisitions.Cancel sees no cancel control")
}

func TestMachineNextRejectsGuardViolation(t *testing.T) {
	raw := Acquisition{MaterialType: MaterialRaw, Status: StatusReadyForProcessing}
	_, err := Machine.Next(raw, raw.Status, ActionProcess)
	require.ErrorIs(t, err, lifecycle.ErrGuardRejected)

	recyclable := Acquisition{MaterialType: MaterialRecyclable, Status: StatusReadyForProcessing}
	next, err := Machine.Next(recyclable, recyclable.Status, ActionProcess)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, next)
}

func TestMachineNextRejectsUndeclaredAction(t *testing.T) {
	a := Acquisition{MaterialType: MaterialRaw, Status: StatusReceived}
	_, err := Machine.Next(a, a.Status, ActionCancel)
	require.ErrorIs(t, err, lifecycle.ErrUnknownAction)
}

func TestMachineCompleted(t *testing.T) {
	require.True(t, Machine.Completed(StatusReceived))
	require.False(t, Machine.Completed(StatusCancelled))
	require.False(t, Machine.Completed(StatusDraft))
}
