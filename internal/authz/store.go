package authz

// Actor describes the authenticated user context evaluated for authorization
// decisions. It is snapshotted once at session start and never mutated.
type Actor struct {
	UserID       int64
	Role         string
	Capabilities []Capability
}

// Store answers capability queries for a single actor. A zero-value Store has
// no actor loaded and denies every query (fail-closed, never fail-open).
type Store struct {
	loaded  bool
	admin   bool
	granted map[Capability]struct{}
}

// NewStore builds a Store for the given actor.
func NewStore(actor Actor) *Store {
	s := &Store{
		loaded:  true,
		admin:   actor.Role == RoleAdmin,
		granted: make(map[Capability]struct{}, len(actor.Capabilities)),
	}
	for _, c := range actor.Capabilities {
		s.granted[c] = struct{}{}
	}
	return s
}

// Has reports whether the actor holds the capability. Admins hold every
// capability regardless of the explicit grant set.
func (s *Store) Has(c Capability) bool {
	if s == nil || !s.loaded {
		return false
	}
	if s.admin {
		return true
	}
	_, ok := s.granted[c]
	return ok
}

// HasAny reports whether the actor holds at least one of the capabilities.
func (s *Store) HasAny(caps ...Capability) bool {
	if s == nil || !s.loaded {
		return false
	}
	if s.admin {
		return true
	}
	for _, c := range caps {
		if _, ok := s.granted[c]; ok {
			return true
		}
	}
	return false
}

// HasAll reports whether the actor holds every one of the capabilities.
func (s *Store) HasAll(caps ...Capability) bool {
	if s == nil || !s.loaded {
		return false
	}
	if s.admin {
		return true
	}
	for _, c := range caps {
		if _, ok := s.granted[c]; !ok {
			return false
		}
	}
	return true
}
