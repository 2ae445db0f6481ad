// Package rest provides a datastore adapter for PostgREST-style HTTP APIs,
// such as the Supabase REST interface.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-sheets/pkg/adapters/datastore"
	"github.com/ekaya-inc/ekaya-sheets/pkg/logging"
)

// DefaultTimeout is the maximum time to wait for a response.
const DefaultTimeout = 60 * time.Second

// StatementFunction is the remote procedure used for raw statements. It must
// accept a single "query" argument and is only present on privileged setups.
const StatementFunction = "exec_sql"

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 512

// Adapter talks to a PostgREST endpoint with a service key.
type Adapter struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewAdapter creates an adapter for the API at cfg.Address.
func NewAdapter(cfg datastore.Config, httpClient *http.Client) (*Adapter, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.Address))
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid rest address")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("rest datastore requires an API key")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	base := strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/")
	if !strings.HasSuffix(base, "/rest/v1") {
		base += "/rest/v1"
	}
	return &Adapter{baseURL: base, key: cfg.Secret, httpClient: httpClient}, nil
}

func (a *Adapter) Dialect() datastore.Dialect {
	return datastore.PostgresDialect{}
}

// TestConnection checks that the API root answers for this key.
func (a *Adapter) TestConnection(ctx context.Context) error {
	resp, body, err := a.do(ctx, http.MethodGet, a.baseURL+"/", nil, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return statusError("connection test", resp.StatusCode, body)
	}
	return nil
}

func (a *Adapter) TableExists(ctx context.Context, table string) (bool, error) {
	q := url.Values{"select": {"*"}, "limit": {"0"}}
	resp, body, err := a.do(ctx, http.MethodGet, a.tableURL(table, q), nil, nil)
	if err != nil {
		return false, err
	}
	switch {
	case resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, statusError("table check", resp.StatusCode, body)
	}
}

// InsertRows posts all rows as one JSON array, which PostgREST inserts in a
// single statement.
func (a *Adapter) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	objects := make([]map[string]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
		}
		obj := make(map[string]any, len(columns))
		for c, col := range columns {
			obj[col] = row[c]
		}
		objects[i] = obj
	}

	payload, err := json.Marshal(objects)
	if err != nil {
		return 0, fmt.Errorf("failed to encode rows: %w", err)
	}

	headers := map[string]string{"Prefer": "return=minimal"}
	resp, body, err := a.do(ctx, http.MethodPost, a.tableURL(table, nil), payload, headers)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 300 {
		return 0, statusError("insert", resp.StatusCode, body)
	}
	return int64(len(rows)), nil
}

// DeleteRows deletes with eq filters. PostgREST refuses unfiltered deletes,
// so an empty match is sent with a filter every row satisfies.
func (a *Adapter) DeleteRows(ctx context.Context, table string, match map[string]any) (int64, error) {
	q := url.Values{}
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, "eq."+fmt.Sprint(match[k]))
	}
	if len(keys) == 0 {
		q.Set("imported_at", "not.is.null")
	}

	headers := map[string]string{"Prefer": "return=minimal,count=exact"}
	resp, body, err := a.do(ctx, http.MethodDelete, a.tableURL(table, q), nil, headers)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 300 {
		return 0, statusError("delete", resp.StatusCode, body)
	}
	return contentRangeCount(resp.Header.Get("Content-Range")), nil
}

// SupportsStatements tests the statement function with a no-op query.
func (a *Adapter) SupportsStatements(ctx context.Context) bool {
	_, err := a.Execute(ctx, "SELECT 1")
	return err == nil
}

// Execute runs a statement through the statement function.
func (a *Adapter) Execute(ctx context.Context, statement string) (*datastore.ExecuteResult, error) {
	payload, err := json.Marshal(map[string]string{"query": statement})
	if err != nil {
		return nil, fmt.Errorf("failed to encode statement: %w", err)
	}

	resp, body, err := a.do(ctx, http.MethodPost, a.baseURL+"/rpc/"+StatementFunction, payload, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, statusError("statement", resp.StatusCode, body)
	}

	result := &datastore.ExecuteResult{}
	var affected int64
	if err := json.Unmarshal(body, &affected); err == nil {
		result.RowsAffected = affected
	}
	return result, nil
}

// Close releases idle connections.
func (a *Adapter) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

func (a *Adapter) tableURL(table string, q url.Values) string {
	u := a.baseURL + "/" + url.PathEscape(table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (a *Adapter) do(ctx context.Context, method, endpoint string, payload []byte, headers map[string]string) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", a.key)
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to call datastore api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, body, nil
}

func statusError(op string, status int, body []byte) error {
	msg := logging.TruncateString(strings.TrimSpace(string(body)), maxErrorBody)
	return fmt.Errorf("%s returned status %d: %s", op, status, msg)
}

// contentRangeCount parses the total from "0-9/10" or "*/10".
func contentRangeCount(header string) int64 {
	i := strings.LastIndex(header, "/")
	if i < 0 {
		return 0
	}
	var n int64
	if _, err := fmt.Sscan(header[i+1:], &n); err != nil {
		return 0
	}
	return n
}

var (
	_ datastore.Store             = (*Adapter)(nil)
	_ datastore.StatementExecutor = (*Adapter)(nil)
)
