// Package billing wraps the billing/support platform's remote API: a single
// form-encoded POST endpoint that takes an action name plus a flat parameter
// bag and answers with a JSON envelope {"result": "success"|..., "message"}.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/pkg/clients"
	"gameforge.gg/platform/pkg/logger"
	"gameforge.gg/platform/pkg/metrics"
)

const (
	apiPath           = "/includes/api.php"
	maxResponseBytes  = 8 << 20
	connectionTimeout = 5 * time.Second
	defaultTimeout    = 15 * time.Second
	defaultPageSize   = 250
	defaultCurrency   = "USD"
	systemName        = "billing"
)

type Config struct {
	URL            string
	Identifier     string
	Secret         string
	Timeout        time.Duration
	ClientPageSize int
	Currency       string
	Retry          clients.ReadRetryConfig
}

type Client struct {
	endpoint   string
	identifier string
	secret     string
	pageSize   int
	currency   string
	httpClient *http.Client
	reads      failsafe.Executor[[]byte]
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// APIError is a business-level failure reported inside a well-formed
// envelope (result != "success").
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// NewClient validates configuration and builds the adapter. Missing
// credentials yield a Misconfigured error; callers leave billing disabled.
func NewClient(cfg Config, log *logger.Logger, m *metrics.Collector) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" || cfg.Identifier == "" || cfg.Secret == "" {
		return nil, apperr.Misconfigured("billing.NewClient", systemName)
	}
	endpoint, err := Endpoint(cfg.URL)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindMisconfigured, "billing.NewClient", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ClientPageSize <= 0 {
		cfg.ClientPageSize = defaultPageSize
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if cfg.Retry == (clients.ReadRetryConfig{}) {
		cfg.Retry = clients.DefaultReadRetryConfig()
	}
	if log == nil {
		log = logger.New()
	}
	return &Client{
		endpoint:   endpoint,
		identifier: cfg.Identifier,
		secret:     cfg.Secret,
		pageSize:   cfg.ClientPageSize,
		currency:   cfg.Currency,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		reads:      clients.NewReadExecutor[[]byte](cfg.Retry),
		logger:     log.With("component", systemName),
		metrics:    m,
	}, nil
}

// Endpoint turns a configured base URL into the API endpoint, defaulting the
// scheme to https.
func Endpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty billing url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse billing url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("billing url %q has no host", raw)
	}
	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, apiPath) {
		path += apiPath
	}
	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// call posts one action. Reads go through the retry executor; writes are
// attempted exactly once.
func (c *Client) call(ctx context.Context, action string, params url.Values, read bool) ([]byte, error) {
	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("identifier", c.identifier)
	form.Set("secret", c.secret)
	form.Set("action", action)
	form.Set("responsetype", "json")

	start := time.Now()
	attempt := func() ([]byte, error) { return c.post(ctx, action, form) }

	var body []byte
	var err error
	if read {
		body, err = c.reads.WithContext(ctx).Get(attempt)
	} else {
		body, err = attempt()
	}
	if err == nil {
		err = checkEnvelope(action, body)
	}

	c.metrics.ObserveUpstream(systemName, action, outcome(err), time.Since(start))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Debug("billing action rejected", "action", action, "message", apiErr.Message)
		} else {
			c.logger.Warn("billing action failed", "action", action, "error", err)
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, action string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperr.Transport(action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Transport(action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Transport(action, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The platform answers rejected API credentials with 403 and a JSON envelope.
		if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
			var env envelope
			if json.Unmarshal(body, &env) == nil && env.Message != "" {
				return nil, &apperr.Error{Kind: apperr.KindAuthentication, Op: action, Message: env.Message}
			}
		}
		return nil, apperr.Transport(action, fmt.Errorf("status %d", resp.StatusCode))
	}
	return body, nil
}

func checkEnvelope(action string, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apperr.Transport(action, fmt.Errorf("decode response: %w", err))
	}
	if strings.EqualFold(env.Result, "success") {
		return nil
	}
	msg := strings.TrimSpace(env.Message)
	if msg == "" {
		msg = "unknown error"
	}
	if credentialsRejected(msg) {
		return &apperr.Error{Kind: apperr.KindAuthentication, Op: action, Message: msg}
	}
	return &APIError{Action: action, Message: msg}
}

// credentialsRejected detects the API-level auth failures (bad identifier,
// secret or source IP) as opposed to a rejected end-user login.
func credentialsRejected(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "authentication failed") || strings.Contains(m, "invalid ip")
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &apiErr):
		return "rejected"
	default:
		return apperr.KindOf(err).String()
	}
}

func decode(action string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Transport(action, fmt.Errorf("decode %s payload: %w", action, err))
	}
	return nil
}

// isAbsent reports a business rejection, which lookups treat as "no result".
func isAbsent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
