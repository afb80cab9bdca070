package capability

import (
	"context"
	"net"
	"strconv"
	"time"
)

// Dialer performs raw TCP connect attempts.
type Dialer interface {
	// Dial reports whether a TCP connection to host:port succeeds within
	// timeout. The connection is closed before returning.
	Dial(ctx context.Context, host string, port int, timeout time.Duration) bool
}

// Resolver performs DNS lookups. Matches the net.Resolver surface so the
// default implementation is a thin wrapper.
type Resolver interface {
	// LookupHost resolves host to its addresses.
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// NewDialer returns the default Dialer.
func NewDialer() Dialer {
	return &tcpDialer{}
}

type tcpDialer struct{}

func (d *tcpDialer) Dial(ctx context.Context, host string, port int, timeout time.Duration) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// NewResolver returns the default Resolver backed by the system resolver.
func NewResolver() Resolver {
	return &systemResolver{resolver: &net.Resolver{}}
}

type systemResolver struct {
	resolver *net.Resolver
}

func (r *systemResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return r.resolver.LookupHost(ctx, host)
}
