package authz

// Constraints declares what an interactive control requires before it is
// rendered. Only the first non-empty field in priority order
// Required > AnyOf > AllOf is evaluated; the kinds are never combined, so a
// call-site carries a single dominant rule.
type Constraints struct {
	Required Capability
	AnyOf    []Capability
	AllOf    []Capability
}

// Gate decides whether a control is rendered or suppressed. Denial means the
// control is absent, not disabled.
type Gate struct {
	store *Store
}

// NewGate wraps a capability store.
func NewGate(store *Store) *Gate {
	return &Gate{store: store}
}

// Evaluate applies the constraint precedence rule. Empty constraints permit.
func (g *Gate) Evaluate(c Constraints) bool {
	if g == nil {
		return false
	}
	switch {
	case c.Required != "":
		return g.store.Has(c.Required)
	case len(c.AnyOf) > 0:
		return g.store.HasAny(c.AnyOf...)
	case len(c.AllOf) > 0:
		return g.store.HasAll(c.AllOf...)
	default:
		return true
	}
}
