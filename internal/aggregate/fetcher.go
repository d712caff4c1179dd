package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "LaunchPadBot/1.0 (+https://github.com/launchpadhq/launchpad)"

// Client is the shared HTTP client for all JSON sources. It keeps one rate
// limiter per host so parallel fetchers stay polite toward shared upstreams.
type Client struct {
	httpClient *http.Client
	userAgent  string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewClient builds a Client with the given overall request timeout and a
// default per-host rate. rps <= 0 means one request per second.
func NewClient(timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if rps <= 0 {
		rps = 1.0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
		limiters:   make(map[string]*rate.Limiter),
		rps:        rps,
	}
}

// SetHostRate overrides the limiter for the host of rawURL. Registry
// entries with an explicit rate_limit_rps land here.
func (c *Client) SetHostRate(rawURL string, rps float64) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || rps <= 0 {
		return
	}
	c.mu.Lock()
	c.limiters[u.Host] = rate.NewLimiter(rate.Limit(rps), 1)
	c.mu.Unlock()
}

func (c *Client) limiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.rps), 1)
		c.limiters[host] = lim
	}
	return lim
}

// GetJSON performs a GET against rawURL and decodes the response body into
// out. Non-2xx statuses are errors; the body is not read past the decoder.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if err := c.limiter(u.Host).Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetching %s: unexpected status %d", u.Host, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", u.Host, err)
	}
	return nil
}
