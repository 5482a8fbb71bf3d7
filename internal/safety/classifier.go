package safety

import (
	"regexp"
	"strings"
)

// Class is the classification outcome for a shell command.
type Class int

const (
	// NeedsApproval is the zero value so an uninitialized result defaults
	// to the safest decision.
	NeedsApproval Class = iota

	// AutoApprove means the command matched a configured safe prefix and
	// may run without a confirmation prompt.
	AutoApprove

	// HardDeny means the command matched a destructive pattern and must
	// never run, regardless of prompts or session grants.
	HardDeny
)

// String returns the string representation of a Class.
func (c Class) String() string {
	switch c {
	case NeedsApproval:
		return "needs_approval"
	case AutoApprove:
		return "auto_approve"
	case HardDeny:
		return "hard_deny"
	default:
		return "unknown"
	}
}

// Result is the deterministic classification result.
type Result struct {
	Class  Class
	Rule   string
	Reason string
}

// disqualifiers are shell metacharacters that let one command smuggle in
// another. A command containing any of them never auto-approves, no matter
// which prefix it matches.
var disqualifiers = []string{";", "|", "&", ">", "<", "`", "$(", "\n"}

// denyPatterns match commands that are destructive enough to refuse
// outright. Compiled once at init time.
var denyPatterns = []*regexp.Regexp{
	// rm with force/recursive targeting root or home
	regexp.MustCompile(`(?i)\brm\s+(-[a-z]*r[a-z]*\s+-[a-z]*f[a-z]*|-[a-z]*f[a-z]*\s+-[a-z]*r[a-z]*|-[a-z]*rf[a-z]*|-[a-z]*fr[a-z]*)\s+/\s*$`),
	regexp.MustCompile(`(?i)\brm\s+(-[a-z]*r[a-z]*\s+-[a-z]*f[a-z]*|-[a-z]*f[a-z]*\s+-[a-z]*r[a-z]*|-[a-z]*rf[a-z]*|-[a-z]*fr[a-z]*)\s+~`),
	// sudo variants of rm
	regexp.MustCompile(`(?i)\bsudo\s+rm\s+(-[a-z]*r[a-z]*\s+-[a-z]*f[a-z]*|-[a-z]*f[a-z]*\s+-[a-z]*r[a-z]*|-[a-z]*rf[a-z]*|-[a-z]*fr[a-z]*)\s+/\s*$`),
	// explicitly disabling root safeguards
	regexp.MustCompile(`(?i)--no-preserve-root`),
	// filesystem format commands
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	// fork bomb
	regexp.MustCompile(`:\(\)\s*\{.*\|.*&\s*\}\s*;`),
	// Windows dangerous commands
	regexp.MustCompile(`(?i)\bformat\s+[a-z]:`),
	regexp.MustCompile(`(?i)\bdel\s+/[a-z]\s+/[a-z]\s+/[a-z]`),
}

// Classifier performs pure, deterministic command classification against a
// configured set of safe command prefixes. The rule set is read-only for the
// lifetime of a session.
type Classifier struct {
	prefixes [][]string
}

// NewClassifier builds a classifier from safe command prefixes. Longer
// prefixes take priority over shorter ones, so "git status" is tested before
// a bare "git" rule would be.
func NewClassifier(prefixes []string) Classifier {
	tokenized := make([][]string, 0, len(prefixes))
	for _, p := range prefixes {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		tokenized = append(tokenized, fields)
	}
	// Stable insertion sort by descending token count keeps config order
	// among rules of equal length.
	for i := 1; i < len(tokenized); i++ {
		for j := i; j > 0 && len(tokenized[j]) > len(tokenized[j-1]); j-- {
			tokenized[j], tokenized[j-1] = tokenized[j-1], tokenized[j]
		}
	}
	return Classifier{prefixes: tokenized}
}

// Classify returns the classification for a command string. Deny patterns
// are checked first: a destructive command is refused even if a safe prefix
// happens to match.
func (c Classifier) Classify(command string) Result {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return Result{Class: NeedsApproval, Reason: "empty command"}
	}

	for _, pat := range denyPatterns {
		if pat.MatchString(trimmed) {
			return Result{
				Class:  HardDeny,
				Rule:   pat.String(),
				Reason: "matched destructive command pattern",
			}
		}
	}

	for _, meta := range disqualifiers {
		if strings.Contains(command, meta) {
			return Result{
				Class:  NeedsApproval,
				Rule:   meta,
				Reason: "contains shell metacharacter",
			}
		}
	}

	fields := strings.Fields(trimmed)
	for _, prefix := range c.prefixes {
		if matchesPrefix(fields, prefix) {
			return Result{Class: AutoApprove, Rule: strings.Join(prefix, " ")}
		}
	}

	return Result{Class: NeedsApproval, Reason: "no safe prefix matched"}
}

// IsSafe reports whether a command may skip the confirmation prompt.
func (c Classifier) IsSafe(command string) bool {
	return c.Classify(command).Class == AutoApprove
}

// SafePrefixes returns the configured prefixes in evaluation order.
func (c Classifier) SafePrefixes() []string {
	out := make([]string, 0, len(c.prefixes))
	for _, p := range c.prefixes {
		out = append(out, strings.Join(p, " "))
	}
	return out
}

// DenyPatterns returns the destructive-command patterns for display.
func DenyPatterns() []string {
	out := make([]string, 0, len(denyPatterns))
	for _, pat := range denyPatterns {
		out = append(out, pat.String())
	}
	return out
}

// matchesPrefix reports a full-token prefix match: every rule token must
// equal the corresponding command token, so a rule "ls" does not match
// "lsof".
func matchesPrefix(commandFields, ruleFields []string) bool {
	if len(ruleFields) > len(commandFields) {
		return false
	}
	for i, tok := range ruleFields {
		if commandFields[i] != tok {
			return false
		}
	}
	return true
}
