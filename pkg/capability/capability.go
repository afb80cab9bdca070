// Package capability provides the shared execution capabilities probes use:
// command execution, HTTP requests, raw socket connects, DNS lookups, and
// process enumeration. Each capability is an interface with a default
// implementation so probes can be tested against mocks.
package capability

// Set bundles the capabilities a probe receives. The runner owns one Set per
// invocation; probes treat it as read-only.
type Set struct {
	Exec      Executor
	HTTP      HTTPClient
	Dialer    Dialer
	Resolver  Resolver
	Processes ProcessLister
}

// DefaultSet returns a Set backed by the real system.
func DefaultSet() *Set {
	return &Set{
		Exec:      NewExecutor(),
		HTTP:      NewHTTPClient(),
		Dialer:    NewDialer(),
		Resolver:  NewResolver(),
		Processes: NewProcessLister(),
	}
}
