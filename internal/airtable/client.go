// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package airtable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/salondesk/internal/breaker"
	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/metrics"
)

const (
	// pageSize is the Airtable maximum.
	pageSize = 100

	// maxErrorBodySize caps how much of an error response is read.
	maxErrorBodySize = 64 * 1024

	defaultMaxRetries     = 5
	defaultRetryBaseDelay = time.Second
)

// readBodyForError reads at most 64KB of an error response.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// Client talks to one Airtable base.
//
// Requests are paced by a token bucket (Airtable allows 5 req/s per base),
// HTTP 429 answers are retried with exponential backoff honoring Retry-After,
// and every logical call runs through a circuit breaker so a dead upstream
// fails fast instead of tying up handler goroutines.
type Client struct {
	baseURL        string // {BaseURL}/{BaseID}
	apiKey         string
	http           *http.Client
	limiter        *rate.Limiter
	breaker        *breaker.Breaker[[]byte]
	maxRetries     int
	retryBaseDelay time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the 429 retry budget and base backoff.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryBaseDelay = baseDelay
	}
}

// WithBreaker replaces the default breaker settings.
func WithBreaker(s breaker.Settings) Option {
	return func(c *Client) {
		s.IsFailure = isTransient
		c.breaker = breaker.New[[]byte](s)
	}
}

// NewClient builds a client for cfg. Credentials are not checked; use New
// to get an Unconfigured store when they are missing.
func NewClient(cfg config.AirtableConfig, opts ...Option) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	c := &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/") + "/" + url.PathEscape(cfg.BaseID),
		apiKey:         cfg.APIKey,
		http:           &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = breaker.New[[]byte](breaker.Settings{Name: "airtable-api", IsFailure: isTransient})
	}
	return c
}

// New returns a Client when cfg carries credentials and Unconfigured otherwise.
func New(cfg config.AirtableConfig, opts ...Option) Store {
	if !cfg.Configured() {
		return Unconfigured{}
	}
	return NewClient(cfg, opts...)
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// List implements Store.
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	query := listQuery(opts)
	var all []Record
	for {
		body, err := c.do(ctx, http.MethodGet, table, "", query, nil)
		if err != nil {
			return nil, err
		}
		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("airtable %s: decode list page: %w", table, err)
		}
		all = append(all, page.Records...)
		if page.Offset == "" || (opts.MaxRecords > 0 && len(all) >= opts.MaxRecords) {
			break
		}
		query.Set("offset", page.Offset)
	}
	if opts.MaxRecords > 0 && len(all) > opts.MaxRecords {
		all = all[:opts.MaxRecords]
	}
	return all, nil
}

func listQuery(opts ListOptions) url.Values {
	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if opts.Formula != "" {
		q.Set("filterByFormula", opts.Formula)
	}
	if opts.View != "" {
		q.Set("view", opts.View)
	}
	if opts.MaxRecords > 0 {
		q.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	for i, s := range opts.Sort {
		q.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		dir := strings.ToLower(s.Direction)
		if dir != "desc" {
			dir = "asc"
		}
		q.Set(fmt.Sprintf("sort[%d][direction]", i), dir)
	}
	for _, f := range opts.Fields {
		q.Add("fields[]", f)
	}
	return q
}

// Get implements Store.
func (c *Client) Get(ctx context.Context, table, id string) (Record, error) {
	body, err := c.do(ctx, http.MethodGet, table, id, nil, nil)
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(table, body)
}

type writeRequest struct {
	Fields   map[string]any `json:"fields"`
	Typecast bool           `json:"typecast"`
}

// Create implements Store. Typecast is on so select options and linked
// record IDs sent as strings are accepted.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (Record, error) {
	body, err := c.do(ctx, http.MethodPost, table, "", nil, writeRequest{Fields: fields, Typecast: true})
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(table, body)
}

// Update implements Store.
func (c *Client) Update(ctx context.Context, table, id string, fields map[string]any) (Record, error) {
	body, err := c.do(ctx, http.MethodPatch, table, id, nil, writeRequest{Fields: fields, Typecast: true})
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(table, body)
}

// Delete implements Store.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	_, err := c.do(ctx, http.MethodDelete, table, id, nil, nil)
	return err
}

func decodeRecord(table string, body []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("airtable %s: decode record: %w", table, err)
	}
	if rec.Fields == nil {
		rec.Fields = map[string]any{}
	}
	return rec, nil
}

// do performs one logical call through the breaker and returns the 2xx body.
func (c *Client) do(ctx context.Context, method, table, id string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(table)
	if id != "" {
		endpoint += "/" + url.PathEscape(id)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody []byte
	if payload != nil {
		var err error
		if reqBody, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("airtable %s: encode request: %w", table, err)
		}
	}

	return c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.doRequestWithRateLimit(ctx, method, table, endpoint, reqBody)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("airtable %s: read response: %w", table, err)
			}
			return body, nil
		}
		return nil, decodeError(table, resp.StatusCode, readBodyForError(resp.Body))
	})
}

// doRequestWithRateLimit waits for the limiter, sends the request and
// retries HTTP 429 with backoff (1s, 2s, 4s, ... or Retry-After).
func (c *Client) doRequestWithRateLimit(ctx context.Context, method, table, endpoint string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader = http.NoBody
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			metrics.RecordAirtableRequest(table, method, 0, time.Since(start))
			return nil, fmt.Errorf("airtable %s: HTTP request failed: %w", table, err)
		}
		metrics.RecordAirtableRequest(table, method, resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}
		_ = resp.Body.Close()

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}
		metrics.AirtableRetries.WithLabelValues(table).Inc()
		logging.Ctx(ctx).Warn().Str("table", table).Int("attempt", attempt+1).Dur("delay", delay).
			Msg("Airtable rate limited, backing off")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// errorBody covers both Airtable error shapes:
// {"error":"NOT_FOUND"} and {"error":{"type":"...","message":"..."}}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func decodeError(table string, status int, body []byte) error {
	if status == http.StatusNotFound {
		return fmt.Errorf("airtable %s: %w", table, ErrNotFound)
	}

	ue := &UpstreamError{Table: table, Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Error) > 0 {
		var detail errorDetail
		var code string
		switch {
		case json.Unmarshal(eb.Error, &code) == nil:
			ue.Type = code
		case json.Unmarshal(eb.Error, &detail) == nil:
			ue.Type = detail.Type
			ue.Message = detail.Message
		}
	}
	if ue.Message == "" && ue.Type == "" {
		ue.Message = strings.TrimSpace(string(body))
	}
	return ue
}

// isTransient reports whether err should count against the breaker. Client
// errors other than 429 mean the upstream is healthy.
func isTransient(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status >= 500 || ue.Status == http.StatusTooManyRequests
	}
	return true
}
