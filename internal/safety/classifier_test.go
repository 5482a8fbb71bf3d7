package safety

import "testing"

func TestClassify_SafePrefixAutoApproves(t *testing.T) {
	c := NewClassifier([]string{"ls"})
	r := c.Classify("ls -la")

	if r.Class != AutoApprove {
		t.Fatalf("expected %q, got %q (reason: %s)", AutoApprove, r.Class, r.Reason)
	}
	if r.Rule != "ls" {
		t.Fatalf("expected rule %q, got %q", "ls", r.Rule)
	}
}

func TestClassify_MetacharacterDisqualifiesDespitePrefix(t *testing.T) {
	c := NewClassifier([]string{"ls", "rm"})

	for _, cmd := range []string{
		"rm -rf /tmp/x; ls",
		"ls | wc -l",
		"ls > /tmp/out",
		"ls < /tmp/in",
		"ls `whoami`",
		"ls $(whoami)",
		"ls &",
		"ls\nwhoami",
	} {
		if c.IsSafe(cmd) {
			t.Fatalf("command %q must not be safe", cmd)
		}
	}
}

func TestClassify_FullTokenMatchOnly(t *testing.T) {
	c := NewClassifier([]string{"ls"})

	if c.IsSafe("lsof -i") {
		t.Fatalf("rule %q must not match %q", "ls", "lsof -i")
	}
}

func TestClassify_LongerPrefixDoesNotBroadenShorterOne(t *testing.T) {
	c := NewClassifier([]string{"git status"})

	if !c.IsSafe("git status --short") {
		t.Fatalf("expected %q to match rule %q", "git status --short", "git status")
	}
	if c.IsSafe("git push") {
		t.Fatalf("%q must not be safe under a %q rule", "git push", "git status")
	}
}

func TestClassify_LongestPrefixWinsOverBroaderRule(t *testing.T) {
	c := NewClassifier([]string{"git", "git status"})

	r := c.Classify("git status")
	if r.Class != AutoApprove {
		t.Fatalf("expected %q, got %q", AutoApprove, r.Class)
	}
	if r.Rule != "git status" {
		t.Fatalf("expected the two-token rule to win, matched %q", r.Rule)
	}
}

func TestClassify_DestructiveCommandIsHardDenied(t *testing.T) {
	c := NewClassifier([]string{"rm"})

	for _, cmd := range []string{
		"rm -rf /",
		"sudo rm -rf /",
		"rm -rf ~",
		"mkfs /dev/sda1",
		"dd if=/dev/zero of=/dev/sda",
	} {
		if r := c.Classify(cmd); r.Class != HardDeny {
			t.Fatalf("command %q: expected %q, got %q", cmd, HardDeny, r.Class)
		}
	}
}

func TestClassify_DenyPatternBeatsMetacharacterCheck(t *testing.T) {
	// "; ls" contains a metacharacter, but the destructive pattern must be
	// reported as a hard deny rather than a mere prompt.
	c := NewClassifier(nil)
	r := c.Classify("rm --no-preserve-root -rf /; ls")

	if r.Class != HardDeny {
		t.Fatalf("expected %q, got %q", HardDeny, r.Class)
	}
}

func TestClassify_EmptyCommandNeedsApproval(t *testing.T) {
	c := NewClassifier([]string{"ls"})

	if r := c.Classify("   "); r.Class != NeedsApproval {
		t.Fatalf("expected %q, got %q", NeedsApproval, r.Class)
	}
}

func TestClassify_NoRulesConfigured(t *testing.T) {
	c := NewClassifier(nil)

	if c.IsSafe("ls") {
		t.Fatalf("nothing is safe without configured rules")
	}
}

func TestNewClassifier_IgnoresBlankRules(t *testing.T) {
	c := NewClassifier([]string{"  ", "ls"})

	if got := len(c.SafePrefixes()); got != 1 {
		t.Fatalf("expected 1 prefix, got %d", got)
	}
}
