// Package client implements the remote invocation API consumed by the
// reconciliation engine: one named admin operation in, one structured
// response out. The engine never interprets operation names itself;
// they come from the type registry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds one invocation round trip.
const DefaultTimeout = 30 * time.Second

// invokePath is the admin endpoint every operation is posted to; the
// operation name travels in the request envelope, not the URL.
const invokePath = "/zato/admin/invoke"

// minServerVersion is the oldest server release whose admin services
// expose the request/response shapes this tool depends on.
var minServerVersion = semver.MustParse("2.0.0")

type invokeEnvelope struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Response is the structured result of one remote invocation.
type Response struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

// List returns the response data as a list of records, or nil when the
// data is absent or not a list.
func (r *Response) List() []map[string]any {
	items, ok := r.Data.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Map returns the response data as a single record, or nil.
func (r *Response) Map() map[string]any {
	m, _ := r.Data.(map[string]any)
	return m
}

// Config carries the connection settings for one cluster.
type Config struct {
	ServerURL string
	Username  string
	Password  string
	ClusterID int
	Timeout   time.Duration
}

// Client invokes admin operations on one cluster over HTTP JSON.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// New builds a client for the given connection settings.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// ClusterID returns the cluster identifier every mutating request is
// stamped with.
func (c *Client) ClusterID() int {
	return c.cfg.ClusterID
}

// Invoke posts one operation with its request fields and decodes the
// response envelope. A transport or decoding failure is returned as an
// error; an application-level failure comes back as OK=false.
func (c *Client) Invoke(ctx context.Context, operation string, request map[string]any) (*Response, error) {
	body, err := json.Marshal(invokeEnvelope{Name: operation, Payload: request})
	if err != nil {
		return nil, fmt.Errorf("encoding request for %s: %w", operation, err)
	}

	url := strings.TrimRight(c.cfg.ServerURL, "/") + invokePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	c.log.Debug().Str("operation", operation).Msg("invoking")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response of %s: %w", operation, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invoking %s: HTTP %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding response of %s: %w", operation, err)
	}
	return &out, nil
}

// Ping issues the server's liveness operation as an early sanity check.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.Invoke(ctx, "zato.ping", nil)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("ping failed: %s", resp.Details)
	}
	return nil
}

// CheckServerVersion fetches the server's component version and
// rejects servers older than the minimum this tool supports. Servers
// not reporting a parsable version are let through with a warning:
// refusing to talk to them would break pre-release builds.
func (c *Client) CheckServerVersion(ctx context.Context) error {
	resp, err := c.Invoke(ctx, "zato.info.get-server-info", nil)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("could not fetch server info: %s", resp.Details)
	}

	raw, _ := resp.Map()["version"].(string)
	version, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		c.log.Warn().Str("version", raw).Msg("server version not parsable, skipping compatibility check")
		return nil
	}
	if version.LessThan(minServerVersion) {
		return fmt.Errorf("server version %s is older than the minimum supported %s", version, minServerVersion)
	}
	return nil
}
