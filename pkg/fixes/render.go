package fixes

import (
	"fmt"
	"strings"

	"github.com/supporttools/service-doctor/pkg/types"
)

// statusMark maps a result status to its report symbol.
func statusMark(status types.Status) string {
	switch status {
	case types.StatusPass:
		return "PASS"
	case types.StatusFail:
		return "FAIL"
	default:
		return "...."
	}
}

// RenderRun renders a run as plain text. It is a pure function of the run:
// no terminal control codes, no global state, so callers decide where and
// how the report is displayed.
func RenderRun(run *types.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Diagnostic run (%s tier)\n", run.Tier)
	b.WriteString(strings.Repeat("=", 40) + "\n")

	for _, result := range run.Results {
		fmt.Fprintf(&b, "\n[%s] %s (%s)\n", statusMark(result.Status), result.TestName, result.Category)
		if result.Message != "" {
			fmt.Fprintf(&b, "  %s\n", result.Message)
		}
		for _, detail := range result.Details {
			fmt.Fprintf(&b, "  - %s\n", detail)
		}
		for _, info := range result.Info {
			fmt.Fprintf(&b, "  i %s\n", info)
		}
		if result.Failed() {
			for _, fix := range result.Fixes {
				fmt.Fprintf(&b, "  fix: %s\n", fix)
			}
		}
	}

	b.WriteString("\n" + strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "Total: %d  Passed: %d  Failed: %d\n",
		run.Summary.Total, run.Summary.Passed, run.Summary.Failed)
	if len(run.Summary.Critical) > 0 {
		fmt.Fprintf(&b, "Critical: %s\n", strings.Join(run.Summary.Critical, ", "))
	}

	return b.String()
}
