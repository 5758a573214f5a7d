// Package panel wraps the game-panel platform's bearer-token REST API. The
// integration is optional: without an API key every read returns the
// placeholder fixtures and power actions are simulated.
package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/pkg/clients"
	"gameforge.gg/platform/pkg/logger"
	"gameforge.gg/platform/pkg/metrics"
)

const (
	systemName       = "panel"
	maxResponseBytes = 8 << 20
	DefaultLogLines  = 100
	MaxLogLines      = 1000
)

type Config struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	ActionTimeout time.Duration
	Retry         clients.ReadRetryConfig
}

type Client struct {
	baseURL       string
	apiKey        string
	actionTimeout time.Duration
	httpClient    *http.Client
	reads         failsafe.Executor[[]byte]
	logger        *logger.Logger
	metrics       *metrics.Collector
}

func NewClient(cfg Config, log *logger.Logger, m *metrics.Collector) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 5 * time.Second
	}
	if cfg.Retry == (clients.ReadRetryConfig{}) {
		cfg.Retry = clients.DefaultReadRetryConfig()
	}
	if log == nil {
		log = logger.New()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &Client{
		baseURL:       base,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		actionTimeout: cfg.ActionTimeout,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		reads:         clients.NewReadExecutor[[]byte](cfg.Retry),
		logger:        log.With("component", systemName),
		metrics:       m,
	}
}

// Configured reports whether real API calls will be made.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

// TestConnection is false without credentials and never touches the network in that case.
func (c *Client) TestConnection(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.actionTimeout)
	defer cancel()
	_, err := c.do(ctx, "account", http.MethodGet, "/api/client/account", nil, false)
	return err == nil
}

// ListServers returns the account's servers. When email is set, only servers
// whose owner email is present and matches are kept; a server the panel does
// not attribute belongs to nobody.
func (c *Client) ListServers(ctx context.Context, email string) ([]models.PanelServer, error) {
	if !c.Configured() {
		return fallback.PlaceholderServers(), nil
	}
	path := "/api/client/servers"
	email = strings.TrimSpace(email)
	if email != "" {
		path += "?" + url.Values{"filter[email]": {email}}.Encode()
	}
	body, err := c.do(ctx, "list_servers", http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var list rawList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, apperr.Transport("list_servers", fmt.Errorf("decode servers: %w", err))
	}
	out := make([]models.PanelServer, 0, len(list.Data))
	for _, obj := range list.Data {
		raw := obj.Attributes
		if email != "" && !ownedBy(raw.Owner, email) {
			continue
		}
		out = append(out, toServer(raw))
	}
	return out, nil
}

func ownedBy(owner *rawOwner, email string) bool {
	if owner == nil {
		return false
	}
	got := strings.TrimSpace(owner.Email)
	return got != "" && strings.EqualFold(got, email)
}

// GetServer returns (nil, nil) when the panel has no such server.
func (c *Client) GetServer(ctx context.Context, id string) (*models.PanelServer, error) {
	if !c.Configured() {
		for _, s := range fallback.PlaceholderServers() {
			if s.ID == id {
				return &s, nil
			}
		}
		return nil, nil
	}
	body, err := c.do(ctx, "get_server", http.MethodGet, "/api/client/servers/"+url.PathEscape(id), nil, true)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	var env rawServerEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperr.Transport("get_server", fmt.Errorf("decode server: %w", err))
	}
	server := toServer(env.Attributes)
	if server.ID == "" {
		server.ID = id
	}

	// Live usage is best-effort; the static record is still useful without it.
	if stats, err := c.resources(ctx, id); err == nil {
		applyStats(&server, stats)
	} else {
		c.logger.Debug("server resources unavailable", "server", id, "error", err)
	}
	return &server, nil
}

// PerformAction sends a power signal. Without credentials the action is
// simulated, logged as such, and reported as successful.
func (c *Client) PerformAction(ctx context.Context, id string, action models.PowerAction) (bool, error) {
	if !action.Valid() {
		return false, apperr.Validation("power", fmt.Sprintf("unsupported power action %q", action))
	}
	if !c.Configured() {
		c.logger.Warn("panel not configured, simulating power action", "server", id, "action", string(action), "simulated", true)
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.actionTimeout)
	defer cancel()
	payload, _ := json.Marshal(map[string]string{"signal": string(action)})
	_, err := c.do(ctx, "power", http.MethodPost, "/api/client/servers/"+url.PathEscape(id)+"/power", payload, false)
	if err != nil {
		return false, err
	}
	c.logger.Info("power action sent", "server", id, "action", string(action))
	return true, nil
}

// GetLogs returns at most lines console lines, newest last.
func (c *Client) GetLogs(ctx context.Context, id string, lines int) ([]string, error) {
	lines = ClampLines(lines)
	if !c.Configured() {
		return fallback.PlaceholderLogs(), nil
	}
	path := fmt.Sprintf("/api/client/servers/%s/logs?lines=%d", url.PathEscape(id), lines)
	body, err := c.do(ctx, "logs", http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var raw rawLogs
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperr.Transport("logs", fmt.Errorf("decode logs: %w", err))
	}
	out := raw.lines()
	if len(out) > lines {
		out = out[len(out)-lines:]
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func ClampLines(n int) int {
	switch {
	case n <= 0:
		return DefaultLogLines
	case n > MaxLogLines:
		return MaxLogLines
	default:
		return n
	}
}

func (c *Client) resources(ctx context.Context, id string) (rawStats, error) {
	body, err := c.do(ctx, "resources", http.MethodGet, "/api/client/servers/"+url.PathEscape(id)+"/resources", nil, true)
	if err != nil {
		return rawStats{}, err
	}
	var env rawStatsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return rawStats{}, apperr.Transport("resources", fmt.Errorf("decode resources: %w", err))
	}
	return env.Attributes, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload []byte, read bool) ([]byte, error) {
	start := time.Now()
	attempt := func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, apperr.Transport(op, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apperr.Transport(op, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, apperr.Transport(op, fmt.Errorf("read response: %w", err))
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, apperr.Authentication(op, "panel rejected API key")
		case resp.StatusCode == http.StatusNotFound:
			return nil, apperr.NotFound(op, "panel resource not found")
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, apperr.Transport(op, fmt.Errorf("status %d", resp.StatusCode))
		}
		return data, nil
	}

	var data []byte
	var err error
	if read {
		data, err = c.reads.WithContext(ctx).Get(attempt)
	} else {
		data, err = attempt()
	}

	outcome := "success"
	if err != nil {
		outcome = apperr.KindOf(err).String()
		c.logger.Warn("panel request failed", "op", op, "key", logger.MaskSecret(c.apiKey), "error", err)
	}
	c.metrics.ObserveUpstream(systemName, op, outcome, time.Since(start))
	return data, err
}
