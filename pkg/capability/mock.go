package capability

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Mock implementations of the capability interfaces. Probe tests wire these
// into a Set instead of touching the real system.

// MockExecutor returns canned results keyed by the space-joined command line.
type MockExecutor struct {
	// Results maps "name arg1 arg2" to its result. Commands without an
	// entry get Default.
	Results map[string]ExecResult

	// Default is returned for unmatched commands.
	Default ExecResult

	// Calls records every command line executed, in order.
	Calls []string
}

// Execute implements Executor.
func (m *MockExecutor) Execute(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) ExecResult {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	m.Calls = append(m.Calls, line)
	if result, ok := m.Results[line]; ok {
		return result
	}
	return m.Default
}

// MockHTTP returns canned status codes keyed by URL. URLs without an entry
// fail with Err, or a generic refusal when Err is nil.
type MockHTTP struct {
	Status map[string]int
	Err    error

	// DirectStatus overrides Status for GetDirect calls when non-nil.
	DirectStatus map[string]int

	Calls []string
}

// Get implements HTTPClient.
func (m *MockHTTP) Get(ctx context.Context, url string, timeout time.Duration) (int, error) {
	m.Calls = append(m.Calls, url)
	return m.lookup(m.Status, url)
}

// GetDirect implements HTTPClient.
func (m *MockHTTP) GetDirect(ctx context.Context, url string, timeout time.Duration) (int, error) {
	m.Calls = append(m.Calls, "direct:"+url)
	if m.DirectStatus != nil {
		return m.lookup(m.DirectStatus, url)
	}
	return m.lookup(m.Status, url)
}

func (m *MockHTTP) lookup(table map[string]int, url string) (int, error) {
	if status, ok := table[url]; ok {
		return status, nil
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return 0, fmt.Errorf("connection refused: %s", url)
}

// MockDialer reports canned connect outcomes keyed by "host:port".
type MockDialer struct {
	Open map[string]bool
}

// Dial implements Dialer.
func (m *MockDialer) Dial(ctx context.Context, host string, port int, timeout time.Duration) bool {
	return m.Open[fmt.Sprintf("%s:%d", host, port)]
}

// MockResolver returns canned addresses keyed by hostname.
type MockResolver struct {
	Addrs map[string][]string
}

// LookupHost implements Resolver.
func (m *MockResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	if addrs, ok := m.Addrs[host]; ok {
		return addrs, nil
	}
	return nil, fmt.Errorf("lookup %s: no such host", host)
}

// MockProcessLister returns a canned process snapshot.
type MockProcessLister struct {
	Procs   []Process
	ListErr error

	// FDs maps pid to its open-descriptor count.
	FDs map[int]int
}

// List implements ProcessLister.
func (m *MockProcessLister) List(ctx context.Context) ([]Process, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Procs, nil
}

// OpenFiles implements ProcessLister.
func (m *MockProcessLister) OpenFiles(pid int) (int, error) {
	if count, ok := m.FDs[pid]; ok {
		return count, nil
	}
	return 0, fmt.Errorf("no fd info for pid %d", pid)
}

// MockSet builds a Set from the given mocks, substituting inert defaults for
// nil fields.
func MockSet(exec Executor, http HTTPClient, dialer Dialer, resolver Resolver, procs ProcessLister) *Set {
	if exec == nil {
		exec = &MockExecutor{}
	}
	if http == nil {
		http = &MockHTTP{}
	}
	if dialer == nil {
		dialer = &MockDialer{}
	}
	if resolver == nil {
		resolver = &MockResolver{}
	}
	if procs == nil {
		procs = &MockProcessLister{}
	}
	return &Set{Exec: exec, HTTP: http, Dialer: dialer, Resolver: resolver, Processes: procs}
}
