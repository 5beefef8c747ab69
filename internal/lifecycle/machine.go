// Package lifecycle implements table-driven status workflows. Encoding
// transitions as a table gives "what can I do to this entity" exactly one
// source of truth, reused by list views, detail views and bulk actions.
package lifecycle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// Action names a capability-gated operation that moves an entity between
// statuses. Statuses are never assigned directly.
type Action string

var (
	// ErrUnknownAction indicates the action is not declared for the status.
	ErrUnknownAction = errors.New("lifecycle: action not available in current status")
	// ErrGuardRejected indicates the transition's guard refused the entity.
	ErrGuardRejected = errors.New("lifecycle: transition guard rejected entity")
)

// Rule declares one legal transition out of a status.
type Rule[S ~string, E any] struct {
	To         S
	Capability authz.Capability
	// Guard optionally restricts the transition to entities matching a
	// domain predicate (for example a material-type restriction). A nil
	// guard always passes.
	Guard func(E) bool
}

// Machine declares the full status workflow for one entity type.
type Machine[S ~string, E any] struct {
	Name        string
	Initial     S
	Transitions map[S]map[Action]Rule[S, E]
	// Succeeded marks statuses that count as a successful completion for
	// urgency classification (for example Received or Delivered).
	Succeeded map[S]bool
}

// AvailableActions returns the actions offered for the entity in its current
// status: declared for the status, permitted by the gate and accepted by the
// guard. The result is sorted for stable rendering. A denial contributes
// nothing; absent, never disabled.
func (m Machine[S, E]) AvailableActions(entity E, status S, gate *authz.Gate) []Action {
	rules, ok := m.Transitions[status]
	if !ok {
		return nil
	}
	actions := make([]Action, 0, len(rules))
	for action, rule := range rules {
		if !gate.Evaluate(authz.Constraints{Required: rule.Capability}) {
			continue
		}
		if rule.Guard != nil && !rule.Guard(entity) {
			continue
		}
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// Resolve looks up the rule for an action in the given status.
func (m Machine[S, E]) Resolve(status S, action Action) (Rule[S, E], bool) {
	rules, ok := m.Transitions[status]
	if !ok {
		return Rule[S, E]{}, false
	}
	rule, ok := rules[action]
	return rule, ok
}

// Next validates a transition request against the table and the guard and
// returns the resulting status. Capability gating happens at the HTTP layer;
// the server remains the sole arbiter of legality regardless of what the
// client last rendered.
func (m Machine[S, E]) Next(entity E, status S, action Action) (S, error) {
	rule, ok := m.Resolve(status, action)
	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: %s %q in status %q", ErrUnknownAction, m.Name, action, status)
	}
	if rule.Guard != nil && !rule.Guard(entity) {
		var zero S
		return zero, fmt.Errorf("%w: %s %q", ErrGuardRejected, m.Name, action)
	}
	return rule.To, nil
}

// Terminal reports whether the status has no outgoing transitions.
func (m Machine[S, E]) Terminal(status S) bool {
	return len(m.Transitions[status]) == 0
}

// Completed reports whether the status is a terminal success state.
func (m Machine[S, E]) Completed(status S) bool {
	return m.Succeeded[status]
}
