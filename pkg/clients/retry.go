package clients

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"gameforge.gg/platform/internal/apperr"
)

// ReadRetryConfig bounds the retries applied to idempotent upstream reads.
type ReadRetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultReadRetryConfig() ReadRetryConfig {
	return ReadRetryConfig{
		MaxRetries: 1,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
	}
}

// NewReadExecutor retries transport failures only. Business answers,
// authentication rejections and caller cancellation are returned as-is.
func NewReadExecutor[R any](cfg ReadRetryConfig) failsafe.Executor[R] {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	policy := retrypolicy.NewBuilder[R]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ R, err error) bool {
			return Retryable(err)
		}).
		ReturnLastFailure().
		Build()
	return failsafe.With[R](policy)
}

func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return apperr.KindOf(err) == apperr.KindTransport
}
