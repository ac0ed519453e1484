package ted

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"cathapult/codec"
)

const (
	// pageLimit is the per-request domain cap. No UniProt entry comes
	// close; pagination is not implemented.
	pageLimit = 100

	// maxResponseBytes bounds a single API response.
	maxResponseBytes = 32 << 20

	// DefaultTimeout bounds each API request.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond is the shared politeness limit.
	DefaultRequestsPerSecond = 10

	// DefaultConcurrency is the FetchBatch in-flight request cap.
	DefaultConcurrency = 4
)

// Options contains configuration options for the TED API client.
type Options struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient issues requests. When nil, a client with Timeout is used.
	HTTPClient *http.Client

	// Timeout bounds each request of the default HTTP client.
	Timeout time.Duration

	// RequestsPerSecond throttles API calls across all goroutines sharing
	// the client. Zero or negative disables throttling.
	RequestsPerSecond float64

	// Burst is the limiter burst size.
	Burst int

	// Codec decodes API payloads. Defaults to codec.Default.
	Codec codec.Codec
}

// Client fetches domain summaries from the TED API.
// It is safe for concurrent use.
type Client struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
	cdc     codec.Codec
}

// NewClient creates a TED API client.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{
		BaseURL:           DefaultBaseURL,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             1,
		Codec:             codec.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Limit(opts.RequestsPerSecond)
	burst := opts.Burst
	if opts.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	cdc := opts.Codec
	if cdc == nil {
		cdc = codec.Default
	}

	return &Client{
		baseURL: opts.BaseURL,
		hc:      hc,
		limiter: rate.NewLimiter(limit, burst),
		cdc:     cdc,
	}
}

// APIError reports a non-2xx API response.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ted: unexpected status %d for %s", e.StatusCode, e.URL)
}

// Summary fetches all domain summaries for one UniProt accession. An
// accession unknown to TED yields an empty slice, not an error.
func (c *Client) Summary(ctx context.Context, uniprotID string) ([]Summary, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/uniprot/summary/%s?skip=0&limit=%d", c.baseURL, url.PathEscape(uniprotID), pageLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("ted: read response for %s: %w", uniprotID, err)
	}

	var payload struct {
		Data []Summary `json:"data"`
	}
	if err := c.cdc.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("ted: decode response for %s: %w", uniprotID, err)
	}
	return payload.Data, nil
}

// FetchResult pairs an input accession with its summaries or its failure.
type FetchResult struct {
	ID        string
	Summaries []Summary
	Err       error
}

// FetchBatch fetches summaries for every accession with at most concurrency
// requests in flight. Per-ID failures are recorded in the results instead
// of aborting the batch; results follow the order of ids. The returned
// error is non-nil only when ctx ends the batch early.
func (c *Client) FetchBatch(ctx context.Context, ids []string, concurrency int) ([]FetchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]FetchResult, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			summaries, err := c.Summary(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				results[i] = FetchResult{ID: id, Err: err}
				return nil
			}
			results[i] = FetchResult{ID: id, Summaries: summaries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
