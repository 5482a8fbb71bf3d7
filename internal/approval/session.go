package approval

import (
	"sync"
	"time"
)

const defaultGrantTTL = 15 * time.Minute

// Scope controls how far an "approve for session" answer reaches.
type Scope string

const (
	// ScopePerClass grants skip-the-prompt only for the action class the
	// human approved, bounded by a TTL. The safer default.
	ScopePerClass Scope = "per_class"

	// ScopeGlobal grants blanket approval for every class until the session
	// ends. An explicit opt-in via configuration.
	ScopeGlobal Scope = "global"
)

// Isolation describes how confined command execution currently is. Ordering
// matters: a lower value is a downgrade.
type Isolation int

const (
	IsolationNone Isolation = iota
	IsolationWorkspace
)

// Session holds the per-session approval state. It is owned exclusively by
// the orchestrator and mutated only from its thread of control; the mutex
// exists for the UI's read-only projections.
type Session struct {
	mu        sync.Mutex
	scope     Scope
	grantTTL  time.Duration
	blanket   bool
	grants    map[ActionType]time.Time
	isolation Isolation
	observed  bool
	now       func() time.Time
}

// NewSession creates session approval state with nothing granted.
func NewSession(scope Scope, grantTTL time.Duration) *Session {
	if scope != ScopeGlobal {
		scope = ScopePerClass
	}
	if grantTTL <= 0 {
		grantTTL = defaultGrantTTL
	}
	return &Session{
		scope:    scope,
		grantTTL: grantTTL,
		grants:   make(map[ActionType]time.Time),
		now:      time.Now,
	}
}

// Escalate records an explicit human "approve for the session" answer. Under
// ScopePerClass the grant covers only the given class and expires after the
// TTL; under ScopeGlobal it covers everything until Reset.
func (s *Session) Escalate(class ActionType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scope == ScopeGlobal {
		s.blanket = true
		return
	}
	s.grants[class] = s.now().Add(s.grantTTL)
}

// Granted reports whether a prior session grant covers the given class.
func (s *Session) Granted(class ActionType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blanket {
		return true
	}
	expiry, ok := s.grants[class]
	if !ok {
		return false
	}
	if !s.now().Before(expiry) {
		delete(s.grants, class)
		return false
	}
	return true
}

// Reset clears every grant.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blanket = false
	s.grants = make(map[ActionType]time.Time)
}

// ObserveIsolation notes the current execution isolation level. A downgrade
// clears every grant: consent to skip prompts under confinement does not
// carry over to unconfined execution.
//
// Returns true when grants were revoked.
func (s *Session) ObserveIsolation(level Isolation) bool {
	s.mu.Lock()
	downgraded := s.observed && level < s.isolation && (s.blanket || len(s.grants) > 0)
	s.isolation = level
	s.observed = true
	s.mu.Unlock()

	if downgraded {
		s.Reset()
	}
	return downgraded
}

// Blanket reports whether global blanket approval is active.
func (s *Session) Blanket() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blanket
}

// Scope returns the configured escalation scope.
func (s *Session) Scope() Scope {
	return s.scope
}
