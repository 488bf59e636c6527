package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
	"github.com/couchcryptid/aqi-forecast-service/internal/observability"
	"github.com/couchcryptid/aqi-forecast-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	mu    sync.Mutex
	errs  []error // consumed one per call; nil entries succeed
	calls atomic.Int32
}

func (m *mockSource) ReadSeries(_ context.Context) (domain.Series, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return domain.Series{{Timestamp: time.Date(2024, 4, 27, 12, 0, 0, 0, time.UTC), PM25: 95}}, nil
}

type mockComposer struct {
	err   error
	calls atomic.Int32
}

func (m *mockComposer) Compose(_ context.Context, s domain.Series) (domain.Alert, error) {
	n := m.calls.Add(1)
	if m.err != nil {
		return domain.Alert{}, m.err
	}
	latest, _ := s.Latest()
	return domain.Alert{
		ID:       string(rune('a' + n - 1)),
		PM25:     latest.PM25,
		Severity: domain.ClassifySeverity(latest.PM25),
	}, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.Alert
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, a domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, a)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestRunOnce_StoresAndPublishes(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	pub := &mockPublisher{}
	p := pipeline.New(&mockSource{}, &mockComposer{}, pub, clockwork.NewFakeClock(), time.Hour, discardLogger(), metrics)

	require.Error(t, p.CheckReadiness(context.Background()))
	_, ok := p.LatestAlert()
	require.False(t, ok)

	a, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityModerate, a.Severity)

	latest, ok := p.LatestAlert()
	require.True(t, ok)
	assert.Equal(t, a, latest)
	require.NoError(t, p.CheckReadiness(context.Background()))

	require.Len(t, pub.published, 1)
	assert.Equal(t, a, pub.published[0])
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.AlertsPublished), 0)
}

func TestRunOnce_WithoutPublisher(t *testing.T) {
	p := pipeline.New(&mockSource{}, &mockComposer{}, nil, clockwork.NewFakeClock(), time.Hour, discardLogger(), observability.NewMetricsForTesting())

	_, err := p.RunOnce(context.Background())
	require.NoError(t, err)
	_, ok := p.LatestAlert()
	assert.True(t, ok)
}

func TestRunOnce_SourceError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	composer := &mockComposer{}
	p := pipeline.New(&mockSource{errs: []error{errors.New("disk gone")}}, composer, nil, clockwork.NewFakeClock(), time.Hour, discardLogger(), metrics)

	_, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read series")
	assert.Zero(t, composer.calls.Load())
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.AlertErrors), 0)
}

func TestRunOnce_ComposeErrorKeepsPrevious(t *testing.T) {
	composer := &mockComposer{}
	p := pipeline.New(&mockSource{}, composer, nil, clockwork.NewFakeClock(), time.Hour, discardLogger(), observability.NewMetricsForTesting())

	first, err := p.RunOnce(context.Background())
	require.NoError(t, err)

	composer.err = domain.ErrEmptySeries
	_, err = p.RunOnce(context.Background())
	require.ErrorIs(t, err, domain.ErrEmptySeries)

	latest, ok := p.LatestAlert()
	require.True(t, ok)
	assert.Equal(t, first.ID, latest.ID)
}

func TestRunOnce_PublishError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockSource{}, &mockComposer{}, &mockPublisher{err: errors.New("broker down")}, clockwork.NewFakeClock(), time.Hour, discardLogger(), metrics)

	_, err := p.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish alert")

	_, ok := p.LatestAlert()
	assert.True(t, ok, "a composed alert is served even when publishing fails")
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.AlertsPublished), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.AlertErrors), 0)
}

func TestRun_ComposesEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	composer := &mockComposer{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockSource{}, composer, nil, clock, time.Hour, discardLogger(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, int32(1), composer.calls.Load())

	clock.Advance(time.Hour)
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, int32(2), composer.calls.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestRun_RetriesFailedCycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	source := &mockSource{errs: []error{errors.New("locked"), errors.New("locked")}}
	composer := &mockComposer{}
	p := pipeline.New(source, composer, nil, clock, time.Hour, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, int32(1), source.calls.Load())

	clock.Advance(200 * time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, int32(2), source.calls.Load())

	// The second retry waits twice as long.
	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, int32(2), source.calls.Load())
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Equal(t, int32(3), source.calls.Load())
	assert.Equal(t, int32(1), composer.calls.Load())
	require.NoError(t, p.CheckReadiness(context.Background()))

	cancel()
	<-done
}
