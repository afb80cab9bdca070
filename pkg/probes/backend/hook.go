// Package backend implements the extended backend probe group. The engine
// never imports the diagnosed service's internals: every backend
// introspection goes through the self-check hook the service ships, invoked
// as a subcommand of the configured hook command.
package backend

import (
	"context"
	"time"

	"github.com/supporttools/service-doctor/pkg/capability"
	"github.com/supporttools/service-doctor/pkg/types"
)

// runHook executes the service's self-check hook with the given subcommand,
// in the backend directory, under the given timeout.
func runHook(ctx context.Context, cfg *types.Config, caps *capability.Set, timeout time.Duration, sub ...string) capability.ExecResult {
	command := cfg.SelfCheck.Command
	args := append(append([]string{}, command[1:]...), sub...)
	return caps.Exec.Execute(ctx, cfg.Service.BackendDir, timeout, command[0], args...)
}

// hookConfigured reports whether the self-check hook is usable.
func hookConfigured(cfg *types.Config) bool {
	return len(cfg.SelfCheck.Command) > 0
}
