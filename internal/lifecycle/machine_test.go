package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

type ticket struct {
	Escalatable bool
}

type ticketStatus string

const (
	statusOpen     ticketStatus = "OPEN"
	statusTriaged  ticketStatus = "TRIAGED"
	statusResolved ticketStatus = "RESOLVED"
	statusClosed   ticketStatus = "CLOSED"
)

const (
	actionTriage  Action = "triage"
	actionResolve Action = "resolve"
	actionClose   Action = "close"
)

func ticketMachine() Machine[ticketStatus, ticket] {
	return Machine[ticketStatus, ticket]{
		Name:    "ticket",
		Initial: statusOpen,
		Transitions: map[ticketStatus]map[Action]Rule[ticketStatus, ticket]{
			statusOpen: {
				actionTriage: {To: statusTriaged, Capability: authz.CapOrdersSubmit, Guard: func(t ticket) bool { return t.Escalatable }},
				actionClose:  {To: statusClosed, Capability: authz.CapOrdersCancel},
			},
			statusTriaged: {
				actionResolve: {To: statusResolved, Capability: authz.CapOrdersProcess},
			},
		},
		Succeeded: map[ticketStatus]bool{statusResolved: true},
	}
}

func gateWith(caps ...authz.Capability) *authz.Gate {
	return authz.NewGate(authz.NewStore(authz.Actor{UserID: 7, Role: "Operator", Capabilities: caps}))
}

func TestNextFollowsTable(t *testing.T) {
	m := ticketMachine()

	next, err := m.Next(ticket{Escalatable: true}, statusOpen, actionTriage)
	require.NoError(t, err)
	require.Equal(t, statusTriaged, next)

	next, err = m.Next(ticket{}, statusTriaged, actionResolve)
	require.NoError(t, err)
	require.Equal(t, statusResolved, next)
}

func TestNextRejectsUndeclaredAction(t *testing.T) {
	m := ticketMachine()

	_, err := m.Next(ticket{}, statusTriaged, actionTriage)
	require.ErrorIs(t, err, ErrUnknownAction)

	_, err = m.Next(ticket{}, statusClosed, actionClose)
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestGuardBlocksTransitionButNotOthers(t *testing.T) {
	m := ticketMachine()

	_, err := m.Next(ticket{Escalatable: false}, statusOpen, actionTriage)
	require.ErrorIs(t, err, ErrGuardRejected)
	require.False(t, errors.Is(err, ErrUnknownAction))

	next, err := m.Next(ticket{Escalatable: false}, statusOpen, actionClose)
	require.NoError(t, err)
	require.Equal(t, statusClosed, next)
}

func TestAvailableActionsFilterAndSort(t *testing.T) {
	m := ticketMachine()

	admin := authz.NewGate(authz.NewStore(authz.Actor{UserID: 1, Role: authz.RoleAdmin}))
	require.Equal(t, []Action{actionClose, actionTriage}, m.AvailableActions(ticket{Escalatable: true}, statusOpen, admin))

	// Guard rejection removes the action entirely, it is never rendered
	// disabled.
	require.Equal(t, []Action{actionClose}, m.AvailableActions(ticket{Escalatable: false}, statusOpen, admin))

	// A missing capability removes the action the same way.
	require.Equal(t, []Action{actionTriage}, m.AvailableActions(ticket{Escalatable: true}, statusOpen, gateWith(authz.CapOrdersSubmit)))

	require.Empty(t, m.AvailableActions(ticket{}, statusClosed, admin))
}

func TestTerminalAndCompleted(t *testing.T) {
	m := ticketMachine()

	require.True(t, m.Terminal(statusResolved))
	require.True(t, m.Terminal(statusClosed))
	require.False(t, m.Terminal(statusOpen))

	require.True(t, m.Completed(statusResolved))
	require.False(t, m.Completed(statusClosed))
}
