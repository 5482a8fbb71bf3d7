package config

import (
	"strings"
	"testing"
)

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidate_NegativeIterationsRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.MaxToolIterations = -1

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ZeroIterationsClampedToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.MaxToolIterations = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Agent.MaxToolIterations != 20 {
		t.Fatalf("expected clamp to 20, got %d", cfg.Agent.MaxToolIterations)
	}
}

func TestValidate_UnknownApprovalScopeRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Approval.Scope = "everything"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "approval.scope") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ApprovalScopeNormalized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Approval.Scope = "  GLOBAL "

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Approval.Scope != "global" {
		t.Fatalf("expected normalized scope, got %q", cfg.Approval.Scope)
	}
}

func TestValidate_BlankSafePrefixRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Safety.SafePrefixes = append(cfg.Safety.SafePrefixes, "   ")

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_InvalidLogLevelRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ExecDefaultsClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exec.TimeoutSeconds = 0
	cfg.Exec.GraceMillis = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Exec.TimeoutSeconds != 60 || cfg.Exec.GraceMillis != 200 {
		t.Fatalf("expected clamped exec settings, got %+v", cfg.Exec)
	}
}

func TestWorkspacePathChecked_TildeExpansion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Agent.Workspace = "~/agent-ws"

	path, err := cfg.WorkspacePathChecked()
	if err != nil {
		t.Fatalf("workspace path: %v", err)
	}
	if strings.Contains(path, "~") {
		t.Fatalf("tilde not expanded: %q", path)
	}
	if !strings.HasSuffix(path, "agent-ws") {
		t.Fatalf("unexpected path: %q", path)
	}
}
