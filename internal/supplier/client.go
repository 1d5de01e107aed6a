// Package supplier talks to the Mercadona online store: warehouse
// resolution by postcode, Algolia-backed search, product detail and the new
// arrivals listing. Results come back as untyped SourceRecords.
package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"mercabridge/internal/observability"
)

var (
	// ErrNoWarehouse is returned when the store does not assign a warehouse
	// to a postcode.
	ErrNoWarehouse = errors.New("no warehouse for postcode")
	// ErrStatus wraps unexpected HTTP status codes.
	ErrStatus = errors.New("unexpected status")
)

const (
	defaultBaseURL   = "https://tienda.mercadona.es/"
	defaultLanguage  = "es"
	warehouseHeader  = "X-Customer-Wh"
	maxErrorBodySize = 512
)

type Options struct {
	BaseURL            string
	Language           string
	AlgoliaAppID       string
	AlgoliaAPIKey      string
	AlgoliaURL         string // overrides https://<app>-dsn.algolia.net
	Timeout            time.Duration
	MinRequestInterval time.Duration
	HTTPClient         *http.Client
}

type Client struct {
	base       *url.URL
	algolia    *url.URL
	appID      string
	apiKey     string
	lang       string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

func New(opts Options, log zerolog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	algoliaRaw := opts.AlgoliaURL
	if algoliaRaw == "" {
		algoliaRaw = fmt.Sprintf("https://%s-dsn.algolia.net", strings.ToLower(opts.AlgoliaAppID))
	}
	algolia, err := url.Parse(algoliaRaw)
	if err != nil {
		return nil, fmt.Errorf("parse algolia url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.MinRequestInterval > 0 {
		limit = rate.Every(opts.MinRequestInterval)
	}

	return &Client{
		base:       base,
		algolia:    algolia,
		appID:      opts.AlgoliaAppID,
		apiKey:     opts.AlgoliaAPIKey,
		lang:       opts.Language,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}, nil
}

// do sends req after waiting for the rate limiter and records its latency.
// The caller owns the response body.
func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: wait for rate limiter: %w", op, err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	observability.SupplierDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.log.Debug().Str("op", op).Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("supplier call")
	return resp, nil
}

// storeURL resolves an already escaped relative path against the store base.
func (c *Client) storeURL(escapedPath string, query url.Values) (string, error) {
	ref, err := url.Parse(escapedPath)
	if err != nil {
		return "", err
	}
	u := c.base.ResolveReference(ref)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

func (c *Client) storeQuery(warehouse string) url.Values {
	return url.Values{"lang": {c.lang}, "wh": {warehouse}}
}

func newJSONRequest(method, target string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("%s: %w %d: %s", op, ErrStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// decode keeps numbers as json.Number so that no precision is lost before
// normalization.
func decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}
