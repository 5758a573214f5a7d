package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Billing struct {
	URL            string
	Identifier     string
	Secret         string
	SSOSecret      string
	Timeout        time.Duration
	ClientPageSize int
	Currency       string
	CurrencyPrefix string
}

// Configured reports whether all credentials needed to build the adapter are present.
func (b Billing) Configured() bool {
	return b.URL != "" && b.Identifier != "" && b.Secret != ""
}

type Panel struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	ActionTimeout time.Duration
}

type Config struct {
	Port             string
	SiteURL          string
	JWTSecret        string
	ClientJWTSecret  string
	ClientSessionTTL time.Duration
	CORSOrigins      []string
	RateLimit        int
	RateLimitWindow  time.Duration

	Billing Billing
	Panel   Panel

	SweepSchedule       string
	ProbeTimeout        time.Duration
	FallbackSnapshotTTL time.Duration
}

func Load() *Config {
	jwtSecret := getEnv("JWT_SECRET", "change-me-in-production")
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		SiteURL:          getEnv("SITE_URL", "http://localhost:3000/sso"),
		JWTSecret:        jwtSecret,
		ClientJWTSecret:  getEnv("CLIENT_JWT_SECRET", jwtSecret),
		ClientSessionTTL: getDuration("CLIENT_SESSION_TTL", 24*time.Hour),
		CORSOrigins:      splitList(getEnv("CORS_ORIGINS", "*")),
		RateLimit:        getInt("RATE_LIMIT", 60),
		RateLimitWindow:  getDuration("RATE_LIMIT_WINDOW", time.Minute),
		Billing: Billing{
			URL:            strings.TrimSpace(os.Getenv("BILLING_URL")),
			Identifier:     strings.TrimSpace(os.Getenv("BILLING_IDENTIFIER")),
			Secret:         strings.TrimSpace(os.Getenv("BILLING_SECRET")),
			SSOSecret:      strings.TrimSpace(os.Getenv("BILLING_SSO_SECRET")),
			Timeout:        getDuration("BILLING_TIMEOUT", 15*time.Second),
			ClientPageSize: getInt("BILLING_CLIENT_PAGE_SIZE", 250),
			Currency:       strings.ToUpper(strings.TrimSpace(getEnv("BILLING_CURRENCY", "USD"))),
			CurrencyPrefix: getEnv("BILLING_CURRENCY_PREFIX", "$"),
		},
		Panel: Panel{
			URL:           strings.TrimSpace(os.Getenv("PANEL_URL")),
			APIKey:        strings.TrimSpace(os.Getenv("PANEL_API_KEY")),
			Timeout:       getDuration("PANEL_TIMEOUT", 15*time.Second),
			ActionTimeout: getDuration("PANEL_ACTION_TIMEOUT", 5*time.Second),
		},
		SweepSchedule:       getEnv("SWEEP_SCHEDULE", "@every 5m"),
		ProbeTimeout:        getDuration("PROBE_TIMEOUT", 3*time.Second),
		FallbackSnapshotTTL: getDuration("FALLBACK_SNAPSHOT_TTL", 24*time.Hour),
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
