package capability

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient performs bounded GET requests for reachability checks.
type HTTPClient interface {
	// Get fetches url within timeout and returns the status code. A
	// connection-level failure returns a non-nil error.
	Get(ctx context.Context, url string, timeout time.Duration) (int, error)

	// GetDirect behaves like Get but bypasses any configured HTTP proxy,
	// so proxy interference can be distinguished from real unreachability.
	GetDirect(ctx context.Context, url string, timeout time.Duration) (int, error)
}

// NewHTTPClient returns the default HTTPClient.
func NewHTTPClient() HTTPClient {
	return &reachabilityClient{
		proxied: newClient(http.ProxyFromEnvironment),
		direct:  newClient(nil),
	}
}

type reachabilityClient struct {
	proxied *http.Client
	direct  *http.Client
}

func newClient(proxy func(*http.Request) (*url.URL, error)) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: proxy,
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			// Reachability checks care about the network path, not
			// certificate validity.
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

func (c *reachabilityClient) Get(ctx context.Context, url string, timeout time.Duration) (int, error) {
	return doGet(ctx, c.proxied, url, timeout)
}

func (c *reachabilityClient) GetDirect(ctx context.Context, url string, timeout time.Duration) (int, error) {
	return doGet(ctx, c.direct, url, timeout)
}

func doGet(ctx context.Context, client *http.Client, url string, timeout time.Duration) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "service-doctor/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
