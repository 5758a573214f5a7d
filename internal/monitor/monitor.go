// Package monitor runs the periodic latency sweep over the hosting
// locations shown on the public site.
package monitor

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/pkg/logger"
	"gameforge.gg/platform/pkg/metrics"
)

const (
	// DegradedThreshold is the latency at which a reachable location stops
	// being reported as online.
	DegradedThreshold = 150 * time.Millisecond
	defaultTimeout    = 3 * time.Second
	probeConcurrency  = 4
)

// Prober measures round-trip latency to a host:port endpoint.
type Prober interface {
	Probe(ctx context.Context, endpoint string) (time.Duration, error)
}

// DialProber measures the time to complete a TCP handshake.
type DialProber struct {
	Timeout time.Duration
}

func (p DialProber) Probe(ctx context.Context, endpoint string) (time.Duration, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return 0, err
	}
	took := time.Since(start)
	conn.Close()
	return took, nil
}

// Store is the part of the datastore the sweep reads and writes.
type Store interface {
	ListLocations(ctx context.Context, activeOnly bool) ([]models.Location, error)
	UpdateLocationProbe(ctx context.Context, id, latencyMs int, status models.LocationStatus, checkedAt time.Time) error
}

func StatusFor(latency time.Duration, err error) models.LocationStatus {
	switch {
	case err != nil:
		return models.LocationOffline
	case latency >= DegradedThreshold:
		return models.LocationDegraded
	default:
		return models.LocationOnline
	}
}

type Result struct {
	Probed   int `json:"probed"`
	Online   int `json:"online"`
	Degraded int `json:"degraded"`
	Offline  int `json:"offline"`
	Failed   int `json:"failed"`
}

type Sweeper struct {
	store   Store
	prober  Prober
	logger  *logger.Logger
	metrics *metrics.Collector
	now     func() time.Time
	running atomic.Bool
}

func NewSweeper(store Store, prober Prober, log *logger.Logger, m *metrics.Collector) *Sweeper {
	if log == nil {
		log = logger.New()
	}
	return &Sweeper{
		store:   store,
		prober:  prober,
		logger:  log.With("component", "monitor"),
		metrics: m,
		now:     time.Now,
	}
}

// Sweep probes every active location once. A failing probe or a failing
// write for one location does not stop the others; only listing the
// locations can fail the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	locations, err := s.store.ListLocations(ctx, true)
	if err != nil {
		return Result{}, err
	}

	statuses := make([]models.LocationStatus, len(locations))
	written := make([]bool, len(locations))

	var g errgroup.Group
	g.SetLimit(probeConcurrency)
	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			latency, perr := s.prober.Probe(ctx, loc.Endpoint)
			status := StatusFor(latency, perr)
			ms := int(latency.Milliseconds())
			if perr != nil {
				ms = 0
				s.logger.Debug("location probe failed", "location", loc.Name, "error", perr)
				s.metrics.ProbeLatency(loc.Name, -1)
			} else {
				s.metrics.ProbeLatency(loc.Name, float64(latency)/float64(time.Millisecond))
			}
			statuses[i] = status

			if err := s.store.UpdateLocationProbe(ctx, loc.ID, ms, status, s.now().UTC()); err != nil {
				s.logger.Warn("failed to record location probe", "location", loc.Name, "error", err)
				return nil
			}
			written[i] = true
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Probed: len(locations)}
	for i, st := range statuses {
		if !written[i] {
			res.Failed++
		}
		switch st {
		case models.LocationOnline:
			res.Online++
		case models.LocationDegraded:
			res.Degraded++
		case models.LocationOffline:
			res.Offline++
		}
	}
	return res, nil
}

// Run is the cron entry point. Overlapping runs are skipped.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous location sweep still running, skipping")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	res, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("location sweep failed", "error", err)
		return
	}
	s.logger.Info("location sweep complete",
		"probed", res.Probed, "online", res.Online, "degraded", res.Degraded,
		"offline", res.Offline, "failed", res.Failed, "took_ms", time.Since(start).Milliseconds())
}

// Schedule registers the sweep on a new cron scheduler. The caller starts
// and stops it.
func (s *Sweeper) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Run(ctx) }); err != nil {
		return nil, err
	}
	return c, nil
}
