package approval

import (
	"testing"
	"time"
)

func newTestSession(scope Scope) (*Session, *time.Time) {
	s := NewSession(scope, 15*time.Minute)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }
	return s, &current
}

func TestSession_NothingGrantedInitially(t *testing.T) {
	s, _ := newTestSession(ScopePerClass)

	if s.Granted(ActionShellCommand) {
		t.Fatalf("fresh session must not have grants")
	}
	if s.Blanket() {
		t.Fatalf("fresh session must not have blanket approval")
	}
}

func TestSession_PerClassGrantCoversOnlyThatClass(t *testing.T) {
	s, _ := newTestSession(ScopePerClass)
	s.Escalate(ActionShellCommand)

	if !s.Granted(ActionShellCommand) {
		t.Fatalf("expected grant for shell commands")
	}
	if s.Granted(ActionSideEffect) {
		t.Fatalf("grant must not leak to other classes")
	}
	if s.Blanket() {
		t.Fatalf("per-class escalation must not set blanket approval")
	}
}

func TestSession_PerClassGrantExpires(t *testing.T) {
	s, clock := newTestSession(ScopePerClass)
	s.Escalate(ActionShellCommand)

	*clock = clock.Add(16 * time.Minute)

	if s.Granted(ActionShellCommand) {
		t.Fatalf("grant must expire after TTL")
	}
}

func TestSession_GlobalScopeSetsBlanket(t *testing.T) {
	s, _ := newTestSession(ScopeGlobal)
	s.Escalate(ActionShellCommand)

	if !s.Blanket() {
		t.Fatalf("expected blanket approval under global scope")
	}
	if !s.Granted(ActionSideEffect) {
		t.Fatalf("blanket approval must cover every class")
	}
}

func TestSession_ResetClearsEverything(t *testing.T) {
	s, _ := newTestSession(ScopeGlobal)
	s.Escalate(ActionShellCommand)
	s.Reset()

	if s.Blanket() || s.Granted(ActionShellCommand) {
		t.Fatalf("reset must clear all grants")
	}
}

func TestSession_IsolationDowngradeRevokesGrants(t *testing.T) {
	s, _ := newTestSession(ScopePerClass)
	s.ObserveIsolation(IsolationWorkspace)
	s.Escalate(ActionShellCommand)

	if !s.ObserveIsolation(IsolationNone) {
		t.Fatalf("expected downgrade to report revocation")
	}
	if s.Granted(ActionShellCommand) {
		t.Fatalf("grants must not survive an isolation downgrade")
	}
}

func TestSession_IsolationUpgradeKeepsGrants(t *testing.T) {
	s, _ := newTestSession(ScopePerClass)
	s.ObserveIsolation(IsolationNone)
	s.Escalate(ActionShellCommand)

	if s.ObserveIsolation(IsolationWorkspace) {
		t.Fatalf("an upgrade must not revoke anything")
	}
	if !s.Granted(ActionShellCommand) {
		t.Fatalf("grant must survive an isolation upgrade")
	}
}

func TestSession_FirstObservationIsNotADowngrade(t *testing.T) {
	s, _ := newTestSession(ScopePerClass)
	s.Escalate(ActionShellCommand)

	if s.ObserveIsolation(IsolationNone) {
		t.Fatalf("first observation establishes the baseline, not a downgrade")
	}
}

func TestNewSession_UnknownScopeFallsBackToPerClass(t *testing.T) {
	s := NewSession(Scope("whatever"), 0)

	if s.Scope() != ScopePerClass {
		t.Fatalf("expected %q, got %q", ScopePerClass, s.Scope())
	}
}

func TestVerdict_Approved(t *testing.T) {
	for _, v := range []Verdict{VerdictAutoApproved, VerdictUserApproved, VerdictUserApprovedForSession} {
		if !v.Approved() {
			t.Fatalf("verdict %q must permit execution", v)
		}
	}
	if VerdictUserDenied.Approved() {
		t.Fatalf("denied verdict must not permit execution")
	}
}
