package basic

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/probes"
	"github.com/supporttools/service-doctor/pkg/types"
)

func init() {
	probes.MustRegister(probes.ProbeInfo{
		Kind:        types.KindEnvironment,
		Group:       probes.GroupBasic,
		Order:       3,
		Factory:     NewEnvironmentProbe,
		Description: "Checks that the required secret is present and not a placeholder",
	})
}

// EnvironmentProbe checks the service's dotenv file for the required secret.
type EnvironmentProbe struct {
	cfg  *types.Config
	caps *capability.Set
}

// NewEnvironmentProbe creates an environment-configuration probe.
func NewEnvironmentProbe(cfg *types.Config, caps *capability.Set) probes.Probe {
	return &EnvironmentProbe{cfg: cfg, caps: caps}
}

// Kind implements probes.Probe.
func (p *EnvironmentProbe) Kind() types.ProbeKind { return types.KindEnvironment }

// Check reads the dotenv file and verifies the required key is present with
// a value that is not one of the configured placeholders.
func (p *EnvironmentProbe) Check(ctx context.Context) *types.DiagnosticResult {
	eval := probes.NewEvaluation(p.Kind(), "Environment Configuration", types.CategoryConfiguration)

	key := p.cfg.Env.RequiredKey
	file := p.cfg.Env.File

	env, err := godotenv.Read(file)
	if err != nil {
		eval.Failf("could not read %s: %v", file, err)
		eval.Fix(fmt.Sprintf("create %s with %s=<your key>", file, key))
		return eval.Resolve(probes.PolicyConjunctive,
			"",
			fmt.Sprintf("environment file %s is missing or unreadable", file))
	}
	eval.Passf("%s parsed (%d entries)", file, len(env))

	value, ok := env[key]
	if !ok {
		eval.Failf("%s does not define %s", file, key)
		eval.Fix(fmt.Sprintf("add %s=<your key> to %s", key, file))
		return eval.Resolve(probes.PolicyConjunctive,
			"",
			fmt.Sprintf("required key %s is missing from %s", key, file))
	}

	if p.isPlaceholder(value) {
		eval.Failf("%s is set to a placeholder value", key)
		eval.Fix(fmt.Sprintf("replace the placeholder value of %s in %s with a real key", key, file))
		return eval.Resolve(probes.PolicyConjunctive,
			"",
			fmt.Sprintf("required key %s holds a placeholder value", key))
	}

	eval.Passf("%s is set (%d characters)", key, len(value))
	return eval.Resolve(probes.PolicyConjunctive,
		fmt.Sprintf("%s is configured", key),
		"")
}

func (p *EnvironmentProbe) isPlaceholder(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, placeholder := range p.cfg.Env.Placeholders {
		if trimmed == placeholder {
			return true
		}
	}
	return false
}
