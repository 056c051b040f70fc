// Package monitor probes the stock price API on a cron schedule and keeps
// the latest result for the health endpoints.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stockpulse/internal/config"
	"stockpulse/internal/infrastructure"
)

const defaultProbeTimeout = 10 * time.Second

// Pinger checks that the upstream API answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the result of the most recent probe
type Status struct {
	Checked             bool      `json:"checked"`
	Healthy             bool      `json:"healthy"`
	LastChecked         time.Time `json:"last_checked,omitempty"`
	LastSuccess         time.Time `json:"last_success,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	Latency             string    `json:"latency,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// Monitor runs the scheduled upstream probe
type Monitor struct {
	cron     *cron.Cron
	pinger   Pinger
	schedule string
	timeout  time.Duration
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	now      func() time.Time

	// wg tracks the initial probe, which runs outside the scheduler
	wg sync.WaitGroup

	mu     sync.RWMutex
	status Status
}

// Option configures a Monitor
type Option func(*Monitor)

// WithMetrics records probe results
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(mon *Monitor) { mon.metrics = m }
}

// WithLogger sets the monitor logger
func WithLogger(l *slog.Logger) Option {
	return func(mon *Monitor) { mon.logger = l }
}

// WithTimeout bounds a single probe
func WithTimeout(d time.Duration) Option {
	return func(mon *Monitor) { mon.timeout = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(mon *Monitor) { mon.now = now }
}

// New creates a monitor for the given pinger
func New(cfg config.MonitorConfig, pinger Pinger, opts ...Option) *Monitor {
	m := &Monitor{
		cron:     cron.New(),
		pinger:   pinger,
		schedule: cfg.Schedule,
		timeout:  defaultProbeTimeout,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = infrastructure.WithComponent(m.logger, "upstream_monitor")
	return m
}

// Start registers the probe and starts the scheduler. The first probe runs
// immediately so health has a result before the first tick.
func (m *Monitor) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.schedule, func() { m.Probe(ctx) }); err != nil {
		return fmt.Errorf("register upstream probe %q: %w", m.schedule, err)
	}
	m.cron.Start()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Probe(ctx)
	}()

	m.logger.Info("upstream monitor started", slog.String("schedule", m.schedule))
	return nil
}

// Stop stops the scheduler and waits for running probes to finish
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
	m.wg.Wait()
	m.logger.Info("upstream monitor stopped")
}

// Probe pings the upstream once and records the result
func (m *Monitor) Probe(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(infrastructure.EnsureTraceID(ctx), m.timeout)
	defer cancel()

	start := m.now()
	err := m.pinger.Ping(ctx)
	latency := m.now().Sub(start)

	infrastructure.RecordUpstreamProbe(ctx, m.metrics, err == nil)

	m.mu.Lock()
	m.status.Checked = true
	m.status.LastChecked = start
	m.status.Latency = latency.String()
	if err != nil {
		m.status.Healthy = false
		m.status.LastError = err.Error()
		m.status.ConsecutiveFailures++
	} else {
		m.status.Healthy = true
		m.status.LastError = ""
		m.status.LastSuccess = start
		m.status.ConsecutiveFailures = 0
	}
	status := m.status
	m.mu.Unlock()

	if err != nil {
		infrastructure.WithError(m.logger, err).WarnContext(ctx, "upstream probe failed",
			slog.Int("consecutive_failures", status.ConsecutiveFailures))
	} else {
		m.logger.DebugContext(ctx, "upstream probe succeeded", slog.Duration("latency", latency))
	}
	return status
}

// Status returns the latest probe result
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
