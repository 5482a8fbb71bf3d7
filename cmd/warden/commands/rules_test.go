package commands

import (
	"strings"
	"testing"

	"github.com/wardenhq/warden/internal/config"
)

func TestRenderRules_ListsSafePrefixesAndBlockedPatterns(t *testing.T) {
	out := renderRules(config.DefaultConfig())

	if !strings.Contains(out, "git status") {
		t.Fatalf("safe prefixes missing from output:\n%s", out)
	}
	if !strings.Contains(out, "rm") {
		t.Fatalf("blocked patterns missing from output:\n%s", out)
	}
	if !strings.Contains(out, "per action class") {
		t.Fatalf("approval scope missing from output:\n%s", out)
	}
	if !strings.Contains(out, "confined to workspace") {
		t.Fatalf("confinement missing from output:\n%s", out)
	}
}

func TestRenderRules_GlobalScopeAndUnconfined(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Approval.Scope = "global"
	cfg.Exec.RestrictToWorkspace = false

	out := renderRules(cfg)
	if !strings.Contains(out, "global") {
		t.Fatalf("global scope missing from output:\n%s", out)
	}
	if !strings.Contains(out, "NOT confined") {
		t.Fatalf("unconfined warning missing from output:\n%s", out)
	}
}

func TestRenderRules_NoPrefixesConfigured(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Safety.SafePrefixes = nil

	out := renderRules(cfg)
	if !strings.Contains(out, "every command asks for approval") {
		t.Fatalf("empty-prefix note missing:\n%s", out)
	}
}
