// Package ingestclient talks to the ingestion service over HTTP.
package ingestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/cseguard/internal/core"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ingestion service returned status %d: %s", e.StatusCode, e.Detail)
}

// Client is an ingestion service client. It implements core.BulkSubmitter.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ core.BulkSubmitter = (*Client)(nil)

// New creates a client for the service at baseURL. apiKey may be empty.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// SubmitBulk sends every record in one request to /api/cse-domains/bulk.
func (c *Client) SubmitBulk(ctx context.Context, records []core.DomainRecord) (core.BulkResult, error) {
	var result core.BulkResult
	body := core.BulkRequest{Domains: records}
	if body.Domains == nil {
		body.Domains = []core.DomainRecord{}
	}
	if err := c.do(ctx, http.MethodPost, "/api/cse-domains/bulk", body, &result); err != nil {
		return core.BulkResult{}, wrapDecode("decode bulk result", err)
	}
	return result, nil
}

// AddDomain adds a single domain through the screened single-add path.
func (c *Client) AddDomain(ctx context.Context, rec core.DomainRecord) (core.CSEDomain, error) {
	var d core.CSEDomain
	if err := c.do(ctx, http.MethodPost, "/api/cse-domains", rec, &d); err != nil {
		return core.CSEDomain{}, wrapDecode("decode domain", err)
	}
	return d, nil
}

// ListOptions selects a page of monitored domains.
type ListOptions struct {
	Skip            int
	Limit           int
	IncludeInactive bool
}

// ListDomains returns a page of monitored domains, newest first.
func (c *Client) ListDomains(ctx context.Context, opts ListOptions) ([]core.CSEDomain, error) {
	q := url.Values{}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.IncludeInactive {
		q.Set("active_only", "false")
	}

	path := "/api/cse-domains"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var domains []core.CSEDomain
	if err := c.do(ctx, http.MethodGet, path, nil, &domains); err != nil {
		return nil, wrapDecode("decode domain list", err)
	}
	return domains, nil
}

// DeleteDomain deactivates the domain with the given ID.
func (c *Client) DeleteDomain(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/cse-domains/"+strconv.FormatInt(id, 10), nil, nil)
}

// Health checks that the service is up and its store reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// decodeError marks a failure to read a 2xx response body.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func wrapDecode(what string, err error) error {
	if de, ok := err.(*decodeError); ok {
		return fmt.Errorf("%s: %w", what, de.err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body, resp.StatusCode)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

// readDetail extracts the service's error message. The service reports
// {"detail": "..."}; anything else is returned as trimmed text.
func readDetail(r io.Reader, status int) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))

	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch d := payload.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(status)
}
