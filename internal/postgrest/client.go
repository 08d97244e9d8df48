// Package postgrest is a minimal client for the hosted REST interface of
// the banking backend. It covers the surface this application needs:
// filtered selects with optional single-row semantics, insert-returning,
// update and delete by filter, and remote procedure invocation.
package postgrest

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
)

// noRowsCode is the backend error code for a single-row request that
// matched zero or more than one row.
const noRowsCode = "PGRST116"

// ErrNoRows distinguishes the "no matching row" condition from a generic
// backend fault. Classify with errors.Is.
var ErrNoRows = errors.New("no rows found")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend error: status %d", e.Status)
}

// Client issues authenticated requests against a backend endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client for the given endpoint URL and access key.
func New(baseURL, apiKey string) *Client {
	return NewWithHTTPClient(baseURL, apiKey, &http.Client{})
}

// NewWithHTTPClient creates a Client using the provided http.Client.
// No timeout policy is imposed beyond what httpClient carries.
func NewWithHTTPClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// From starts a query against a named table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// Rpc invokes a named remote procedure with the given arguments. The
// procedure is assumed atomic server-side; the response body is discarded.
func (c *Client) Rpc(ctx context.Context, fn string, args any) error {
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode rpc arguments: %w", err)
	}
	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+fn, bytes.NewReader(body), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Query is a request against one table, built up fluently and executed by
// one of Get, Insert, Update or Delete.
type Query struct {
	client *Client
	table  string
	params url.Values
	single bool
}

// Select names the columns (or embedded resources) to return.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

// Eq adds an equality filter on a column.
func (q *Query) Eq(column string, value any) *Query {
	q.params.Add(column, fmt.Sprintf("eq.%v", value))
	return q
}

// Order sorts the result by a column.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.params.Set("order", column+"."+dir)
	return q
}

// Single requests exactly one row. Zero or ambiguous matches surface as
// ErrNoRows.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Get executes the select and decodes the response into dest.
func (q *Query) Get(ctx context.Context, dest any) error {
	return q.do(ctx, http.MethodGet, nil, nil, dest)
}

// Insert creates a record. When dest is non-nil the created representation
// is requested back and decoded into it; combine with Single for one row.
func (q *Query) Insert(ctx context.Context, record, dest any) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	if dest != nil {
		headers["Prefer"] = "return=representation"
	}
	return q.do(ctx, http.MethodPost, record, headers, dest)
}

// Update patches the rows matching the current filters. It reports
// ErrNoRows when no row matched, so callers can distinguish a missing
// record from a successful update.
func (q *Query) Update(ctx context.Context, record any) error {
	headers := map[string]string{"Prefer": "return=representation"}
	var updated []json.RawMessage
	if err := q.do(ctx, http.MethodPatch, record, headers, &updated); err != nil {
		return err
	}
	if len(updated) == 0 {
		return fmt.Errorf("update matched nothing in %s: %w", q.table, ErrNoRows)
	}
	return nil
}

// Delete removes the rows matching the current filters.
func (q *Query) Delete(ctx context.Context) error {
	return q.do(ctx, http.MethodDelete, nil, nil, nil)
}

func (q *Query) do(ctx context.Context, method string, record any, headers map[string]string, dest any) error {
	var body io.Reader
	if record != nil {
		encoded, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", q.table, err)
		}
		body = bytes.NewReader(encoded)
	}

	target := q.client.baseURL + "/rest/v1/" + q.table
	if encoded := q.params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	resp, err := q.client.send(ctx, method, target, body, func(req *http.Request) {
		if q.single {
			req.Header.Set("Accept", "application/vnd.pgrst.object+json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", q.table, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, target string, body io.Reader, configure func(*http.Request)) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if configure != nil {
		configure(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to backend failed: %w", err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to an error, classifying the
// backend's single-row miss code as ErrNoRows.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, apiErr)
	if apiErr.Code == noRowsCode {
		return fmt.Errorf("%s: %w", apiErr.Message, ErrNoRows)
	}
	return apiErr
}
