package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Composer builds an alert from a series.
type Composer interface {
	Compose(ctx context.Context, s domain.Series) (domain.Alert, error)
}

// Publisher delivers a composed alert downstream.
type Publisher interface {
	Publish(ctx context.Context, a domain.Alert) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// AlertPipeline composes an alert from the latest series every interval.
// The most recent alert is kept for the HTTP surface.
type AlertPipeline struct {
	source    domain.SeriesSource
	composer  Composer
	publisher Publisher
	clock     clockwork.Clock
	interval  time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics

	ready  atomic.Bool
	latest atomic.Pointer[domain.Alert]
}

// New creates an AlertPipeline. publisher may be nil when alerts are only
// served over HTTP.
func New(source domain.SeriesSource, composer Composer, publisher Publisher, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *AlertPipeline {
	return &AlertPipeline{
		source:    source,
		composer:  composer,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the pipeline has composed an alert.
func (p *AlertPipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no alert composed yet")
	}
	return nil
}

// LatestAlert returns the most recently composed alert.
func (p *AlertPipeline) LatestAlert() (domain.Alert, bool) {
	a := p.latest.Load()
	if a == nil {
		return domain.Alert{}, false
	}
	return *a, true
}

// Run composes an alert immediately and then every interval until ctx is
// cancelled. A failed cycle is retried with exponential backoff capped at
// the interval.
func (p *AlertPipeline) Run(ctx context.Context) error {
	p.logger.Info("alert pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := p.interval
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("alert pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("alert cycle failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, min(maxBackoff, p.interval))
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("alert pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce reads the series, composes an alert, stores it as the latest, and
// publishes it.
func (p *AlertPipeline) RunOnce(ctx context.Context) (domain.Alert, error) {
	start := p.clock.Now()

	s, err := p.source.ReadSeries(ctx)
	if err != nil {
		p.metrics.AlertErrors.Inc()
		return domain.Alert{}, fmt.Errorf("read series: %w", err)
	}

	a, err := p.composer.Compose(ctx, s)
	if err != nil {
		p.metrics.AlertErrors.Inc()
		return domain.Alert{}, err
	}
	p.latest.Store(&a)
	p.ready.Store(true)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, a); err != nil {
			p.metrics.AlertErrors.Inc()
			return a, fmt.Errorf("publish alert: %w", err)
		}
		p.metrics.AlertsPublished.Inc()
	}

	p.metrics.AlertCycleDuration.Observe(p.clock.Since(start).Seconds())
	return a, nil
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
