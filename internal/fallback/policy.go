// Package fallback owns degraded-mode behaviour: the placeholder and static
// datasets, and the rules for when they replace live upstream data.
//
// Reads that fail with a transport error are answered from the last good
// snapshot, then from a static fixture, and never return an error. Every
// other error kind passes through unchanged. Writes never fall back; a
// transport failure becomes "temporarily unavailable".
package fallback

import (
	"context"
	"fmt"
	"time"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/pkg/logger"
	"gameforge.gg/platform/pkg/metrics"
)

type Source string

const (
	SourceLive        Source = "live"
	SourceSnapshot    Source = "snapshot"
	SourceStatic      Source = "static"
	SourcePlaceholder Source = "placeholder"
)

// SnapshotStore persists the last successful value of a read view.
type SnapshotStore interface {
	Load(ctx context.Context, key string, dest interface{}) (bool, error)
	Save(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Policy struct {
	snapshots SnapshotStore
	ttl       time.Duration
	logger    *logger.Logger
	metrics   *metrics.Collector
}

// NewPolicy builds a policy. snapshots may be nil, in which case transport
// failures go straight to the static fixtures.
func NewPolicy(snapshots SnapshotStore, ttl time.Duration, log *logger.Logger, m *metrics.Collector) *Policy {
	if log == nil {
		log = logger.New()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Policy{snapshots: snapshots, ttl: ttl, logger: log.With("component", "fallback"), metrics: m}
}

// WithoutSnapshots returns a policy that neither saves nor loads snapshots,
// for views that must not be persisted.
func (p *Policy) WithoutSnapshots() *Policy {
	cp := *p
	cp.snapshots = nil
	return &cp
}

func SnapshotKey(view, scope string) string {
	if scope == "" {
		scope = "global"
	}
	return fmt.Sprintf("fallback:%s:%s", view, scope)
}

// Read runs fetch and applies the read fallback chain. static must be a pure
// literal; it is the last resort and cannot fail.
func Read[T any](ctx context.Context, p *Policy, view, scope string, fetch func(context.Context) (T, error), static func() T) (T, Source, error) {
	value, err := fetch(ctx)
	if err == nil {
		p.save(ctx, view, scope, value)
		return value, SourceLive, nil
	}
	if apperr.KindOf(err) != apperr.KindTransport {
		var zero T
		return zero, SourceLive, err
	}

	p.logger.Warn("upstream read failed, serving fallback", "view", view, "error", err)
	if snap, ok := load[T](ctx, p, view, scope); ok {
		p.metrics.Fallback(view, string(SourceSnapshot))
		return snap, SourceSnapshot, nil
	}
	p.metrics.Fallback(view, string(SourceStatic))
	return static(), SourceStatic, nil
}

// Write classifies a write failure. Transport errors become Unavailable so
// callers can tell "try again later" from validation or not-found.
func Write(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) == apperr.KindTransport {
		return apperr.Unavailable(op, err)
	}
	return err
}

func (p *Policy) save(ctx context.Context, view, scope string, value interface{}) {
	if p == nil || p.snapshots == nil {
		return
	}
	if err := p.snapshots.Save(ctx, SnapshotKey(view, scope), value, p.ttl); err != nil {
		p.logger.Warn("failed to save fallback snapshot", "view", view, "error", err)
	}
}

func load[T any](ctx context.Context, p *Policy, view, scope string) (value T, ok bool) {
	if p == nil || p.snapshots == nil {
		return value, false
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("snapshot load panicked", "view", view, "panic", fmt.Sprint(r))
			var zero T
			value, ok = zero, false
		}
	}()
	// The request context may already be dead when the upstream timed out.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	found, err := p.snapshots.Load(loadCtx, SnapshotKey(view, scope), &value)
	if err != nil {
		p.logger.Warn("failed to load fallback snapshot", "view", view, "error", err)
		return value, false
	}
	return value, found
}
