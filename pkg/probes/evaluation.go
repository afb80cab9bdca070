package probes

import (
	"fmt"

	"github.com/supporttools/service-doctor/pkg/types"
)

// Policy is the aggregation rule a probe applies to its sub-checks.
type Policy int

const (
	// PolicyConjunctive fails the probe if any sub-check fails. This is the
	// default policy.
	PolicyConjunctive Policy = iota

	// PolicyDisjunctive passes the probe if at least one sub-check
	// succeeds. Used only where reaching any one of several equivalent
	// endpoints is sufficient.
	PolicyDisjunctive
)

// Evaluation accumulates sub-check outcomes for one probe and resolves them
// into a DiagnosticResult under an aggregation policy.
//
// A probe that evaluates zero sub-checks resolves to pass: untestable
// conditions are reported optimistically rather than failed.
type Evaluation struct {
	result    *types.DiagnosticResult
	evaluated int
	passed    int
	failed    int
}

// NewEvaluation starts an evaluation for the given probe identity.
func NewEvaluation(kind types.ProbeKind, testName string, category types.Category) *Evaluation {
	return &Evaluation{
		result: types.NewResult(kind, testName, category),
	}
}

// Pass records a successful sub-check with its evidence line.
func (e *Evaluation) Pass(detail string) {
	e.evaluated++
	e.passed++
	e.result.AddDetail(detail)
}

// Passf records a successful sub-check with formatted evidence.
func (e *Evaluation) Passf(format string, args ...interface{}) {
	e.Pass(fmt.Sprintf(format, args...))
}

// Fail records a failing sub-check with its evidence line.
func (e *Evaluation) Fail(detail string) {
	e.evaluated++
	e.failed++
	e.result.AddDetail(detail)
}

// Failf records a failing sub-check with formatted evidence.
func (e *Evaluation) Failf(format string, args ...interface{}) {
	e.Fail(fmt.Sprintf(format, args...))
}

// Info records a supplementary note that does not affect the status.
func (e *Evaluation) Info(note string) {
	e.result.AddInfo(note)
}

// Infof records a formatted supplementary note.
func (e *Evaluation) Infof(format string, args ...interface{}) {
	e.Info(fmt.Sprintf(format, args...))
}

// Fix records a fallback remediation hint carried on the result.
func (e *Evaluation) Fix(hint string) {
	e.result.AddFix(hint)
}

// Failed reports whether any sub-check has failed so far.
func (e *Evaluation) Failed() bool {
	return e.failed > 0
}

// Evaluated returns the number of sub-checks recorded so far.
func (e *Evaluation) Evaluated() int {
	return e.evaluated
}

// Resolve finalizes the evaluation under the given policy. passMsg and
// failMsg become the result message for the respective outcome.
func (e *Evaluation) Resolve(policy Policy, passMsg, failMsg string) *types.DiagnosticResult {
	pass := true
	switch policy {
	case PolicyDisjunctive:
		if e.evaluated > 0 {
			pass = e.passed > 0
		}
	default:
		pass = e.failed == 0
	}

	if pass {
		e.result.Status = types.StatusPass
		e.result.Message = passMsg
	} else {
		e.result.Status = types.StatusFail
		e.result.Message = failMsg
	}
	return e.result
}
