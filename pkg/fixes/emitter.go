package fixes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/supporttools/service-doctor/pkg/types"
)

// Emitter writes the remediation artifacts: a runnable fail-soft fix script
// and a priority-grouped guide. Output is byte-deterministic for the same
// plans: no timestamps, no randomness.
type Emitter struct {
	scriptName string
	guideName  string
}

// NewEmitter creates an emitter using the configured artifact names.
func NewEmitter(cfg *types.Config) *Emitter {
	return &Emitter{
		scriptName: cfg.Output.ScriptName,
		guideName:  cfg.Output.GuideName,
	}
}

// Emit writes both artifacts into dir and returns their paths. A write error
// names the attempted path; the plans themselves are never lost to a write
// failure, so the caller can still render them.
func (e *Emitter) Emit(plans []types.RemediationPlan, dir string) (scriptPath, guidePath string, err error) {
	scriptPath = filepath.Join(dir, e.scriptName)
	guidePath = filepath.Join(dir, e.guideName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scriptPath, guidePath, fmt.Errorf("failed to create output dir %q: %w", dir, err)
	}

	if err := os.WriteFile(scriptPath, []byte(RenderScript(plans)), 0o755); err != nil {
		return scriptPath, guidePath, fmt.Errorf("failed to write %q: %w", scriptPath, err)
	}
	if err := os.WriteFile(guidePath, []byte(RenderGuide(plans)), 0o644); err != nil {
		return scriptPath, guidePath, fmt.Errorf("failed to write %q: %w", guidePath, err)
	}

	return scriptPath, guidePath, nil
}

// RenderScript renders the fail-soft fix script. Every command reports its
// own success or failure and the script never aborts early: one broken fix
// must not block the rest.
func RenderScript(plans []types.RemediationPlan) string {
	var b strings.Builder

	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("# Generated fix script. Each step reports its own outcome; the script\n")
	b.WriteString("# never aborts early, so later fixes still run after an earlier failure.\n")
	b.WriteString("\n")
	b.WriteString("set -u\n")
	b.WriteString("\n")
	b.WriteString("run_step() {\n")
	b.WriteString("  local desc=\"$1\"; shift\n")
	b.WriteString("  echo \"==> ${desc}\"\n")
	b.WriteString("  if \"$@\"; then\n")
	b.WriteString("    echo \"    ok\"\n")
	b.WriteString("  else\n")
	b.WriteString("    echo \"    FAILED (continuing)\"\n")
	b.WriteString("  fi\n")
	b.WriteString("}\n")

	if len(plans) == 0 {
		b.WriteString("\necho \"No failing checks; nothing to fix.\"\n")
		return b.String()
	}

	for i, plan := range plans {
		fmt.Fprintf(&b, "\n# %d. %s (%s priority)\n", i+1, plan.Title, plan.Priority)
		if len(plan.Commands) == 0 {
			fmt.Fprintf(&b, "echo \"==> %s: manual fix, see the remediation guide\"\n", shellQuoteText(plan.Title))
			continue
		}
		for _, command := range plan.Commands {
			fmt.Fprintf(&b, "run_step %q bash -c %q\n", plan.Title, command)
		}
		if plan.Verification != "" {
			fmt.Fprintf(&b, "run_step %q bash -c %q\n", "verify: "+plan.Title, plan.Verification)
		}
	}

	return b.String()
}

// RenderGuide renders the remediation guide grouped by priority, high first.
// Groups preserve the plans' original order, and empty groups are omitted.
func RenderGuide(plans []types.RemediationPlan) string {
	var b strings.Builder

	b.WriteString("# Remediation Guide\n")

	if len(plans) == 0 {
		b.WriteString("\nAll checks passed. No remediation required.\n")
		return b.String()
	}

	number := 1
	for _, priority := range []types.Priority{types.PriorityHigh, types.PriorityMedium, types.PriorityLow} {
		group := byPriority(plans, priority)
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s priority\n", titleCase(string(priority)))
		for _, plan := range group {
			fmt.Fprintf(&b, "\n### %d. %s\n\n", number, plan.Title)
			number++

			fmt.Fprintf(&b, "%s\n", plan.Description)

			if len(plan.Steps) > 0 {
				b.WriteString("\n")
				for i, step := range plan.Steps {
					fmt.Fprintf(&b, "%d. %s\n", i+1, step)
				}
			}
			if len(plan.Commands) > 0 {
				b.WriteString("\n```sh\n")
				for _, command := range plan.Commands {
					fmt.Fprintf(&b, "%s\n", command)
				}
				b.WriteString("```\n")
			}
			if plan.Verification != "" {
				fmt.Fprintf(&b, "\nVerify:\n\n```sh\n%s\n```\n", plan.Verification)
			}
		}
	}

	return b.String()
}

func byPriority(plans []types.RemediationPlan, priority types.Priority) []types.RemediationPlan {
	var group []types.RemediationPlan
	for _, plan := range plans {
		if plan.Priority == priority {
			group = append(group, plan)
		}
	}
	return group
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// shellQuoteText strips characters that would break a double-quoted echo.
func shellQuoteText(s string) string {
	return strings.NewReplacer(`"`, ``, "`", ``, `$`, ``, `\`, ``).Replace(s)
}
