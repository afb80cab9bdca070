package capability

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Process describes one running process.
type Process struct {
	PID int

	// Command is the full command line (space-joined argv).
	Command string

	// State is the single-letter scheduler state where available
	// (R, S, D, Z, T); empty when the platform does not expose it.
	State string
}

// Zombie reports whether the process is terminated but unreaped.
func (p Process) Zombie() bool {
	return p.State == "Z"
}

// ProcessLister enumerates running processes and inspects their resources.
type ProcessLister interface {
	// List returns a snapshot of running processes.
	List(ctx context.Context) ([]Process, error)

	// OpenFiles returns the number of open file descriptors held by pid.
	OpenFiles(pid int) (int, error)
}

// NewProcessLister returns the default ProcessLister. It reads /proc directly
// and falls back to ps where /proc is unavailable.
func NewProcessLister() ProcessLister {
	return &procLister{exec: NewExecutor()}
}

type procLister struct {
	exec Executor
}

func (p *procLister) List(ctx context.Context) ([]Process, error) {
	if procs, err := listProc(); err == nil {
		return procs, nil
	}
	return p.listPS(ctx)
}

// listProc scans /proc for numeric directories and reads each process's
// cmdline and stat entry.
func listProc() ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	var procs []Process
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		proc := Process{PID: pid}

		// cmdline is null-separated; empty for kernel threads.
		if data, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline")); err == nil {
			proc.Command = strings.TrimSpace(strings.ReplaceAll(string(data), "\x00", " "))
		}
		if proc.Command == "" {
			if data, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm")); err == nil {
				proc.Command = strings.TrimSpace(string(data))
			}
		}

		// Field 3 of /proc/[pid]/stat is the state letter. The comm field
		// before it may contain spaces, so split after the closing paren.
		if data, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "stat")); err == nil {
			if idx := strings.LastIndexByte(string(data), ')'); idx >= 0 {
				fields := strings.Fields(string(data)[idx+1:])
				if len(fields) > 0 {
					proc.State = fields[0]
				}
			}
		}

		procs = append(procs, proc)
	}
	return procs, nil
}

// listPS shells out to ps for platforms without /proc.
func (p *procLister) listPS(ctx context.Context) ([]Process, error) {
	result := p.exec.Execute(ctx, "", 5*time.Second, "ps", "-axo", "pid=,state=,command=")
	if !result.Succeeded {
		return nil, &psError{stderr: result.Stderr}
	}

	var procs []Process
	for _, line := range strings.Split(result.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		procs = append(procs, Process{
			PID: pid,
			// ps may decorate the state with +/s/<; keep the first letter.
			State:   fields[1][:1],
			Command: strings.Join(fields[2:], " "),
		})
	}
	return procs, nil
}

func (p *procLister) OpenFiles(pid int) (int, error) {
	entries, err := os.ReadDir(filepath.Join("/proc", strconv.Itoa(pid), "fd"))
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

type psError struct {
	stderr string
}

func (e *psError) Error() string {
	return "ps failed: " + e.stderr
}
