package link

import (
	"context"
	"sync"
	"time"

	"flowstate.dev/cortex/internal/core"
	"flowstate.dev/cortex/internal/log"
)

// RSSIReader reads the current RSSI from an active radio connection. The
// read is bounded by ctx; it may fail if the link has dropped, which the
// monitor treats as a skipped tick rather than a fatal condition.
type RSSIReader interface {
	ReadRSSI(ctx context.Context) (int, error)
}

// Listener receives link quality notifications. Updates fire on every
// successful poll; level changes fire additionally when the four-level
// classification crosses a tier boundary, so subscribers can distinguish
// "new number" from "new tier".
type Listener interface {
	OnQualityUpdate(q core.ConnectionQuality)
	OnQualityLevelChange(prev, next core.QualityLevel, q core.ConnectionQuality)
}

// Config holds the monitor's tunables.
type Config struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	WindowSize      int           `mapstructure:"window_size"`
	StabilityStdDev float64       `mapstructure:"stability_stddev"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Second,
		WindowSize:      10,
		StabilityStdDev: 5.0,
	}
}

// Monitor polls RSSI on a timer and maintains a bounded FIFO window of
// readings. Idle until Start; Stop returns it to idle and is idempotent.
type Monitor struct {
	cfg    Config
	logger log.Logger

	mu        sync.Mutex
	reader    RSSIReader
	window    []core.LinkQualitySample
	listeners []Listener
	cancel    context.CancelFunc
	done      chan struct{}

	last      core.ConnectionQuality
	hasResult bool
}

// NewMonitor creates an idle monitor. Zero or negative config fields fall
// back to defaults.
func NewMonitor(cfg Config, logger log.Logger) *Monitor {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.StabilityStdDev <= 0 {
		cfg.StabilityStdDev = def.StabilityStdDev
	}
	return &Monitor{cfg: cfg, logger: logger}
}

// Subscribe registers a listener. Registration is idempotent: subscribing
// the same listener twice keeps a single entry. Dispatch order follows
// registration order.
func (m *Monitor) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.listeners {
		if existing == l {
			return
		}
	}
	m.listeners = append(m.listeners, l)
}

// Unsubscribe removes a listener; removing an unknown listener is a no-op.
func (m *Monitor) Unsubscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.listeners {
		if existing == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// Start resets the window and begins periodic polling of reader, with one
// immediate poll. Starting while already monitoring stops the previous
// polling loop first, so duplicate timers never run.
func (m *Monitor) Start(reader RSSIReader) {
	m.stop()

	m.mu.Lock()
	m.reader = reader
	m.window = m.window[:0]
	m.hasResult = false

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	m.logger.WithField("interval", m.cfg.PollInterval).Info("link monitor started")

	go m.pollLoop(ctx, reader, done)
}

// Stop cancels polling and discards the window and connection handle.
// Cancellation is synchronous: when Stop returns, no further polls fire.
// Idempotent.
func (m *Monitor) Stop() {
	if m.stop() {
		m.logger.Info("link monitor stopped")
	}
}

// stop tears down a running poll loop, returning whether one was running.
func (m *Monitor) stop() bool {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done

	m.mu.Lock()
	m.reader = nil
	m.window = nil
	m.hasResult = false
	m.mu.Unlock()
	return true
}

// Quality returns the most recent snapshot, if any poll has succeeded since
// the last Start.
func (m *Monitor) Quality() (core.ConnectionQuality, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasResult
}

func (m *Monitor) pollLoop(ctx context.Context, reader RSSIReader, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	m.poll(ctx, reader)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll(ctx, reader)
		}
	}
}

// poll performs one bounded RSSI read. Failures are logged and skip the
// tick, preserving the existing window; disconnect detection is the
// caller's concern.
func (m *Monitor) poll(ctx context.Context, reader RSSIReader) {
	readCtx, cancel := context.WithTimeout(ctx, m.cfg.PollInterval)
	rssi, err := reader.ReadRSSI(readCtx)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			m.logger.WithError(err).Warn("rssi read failed, skipping tick")
		}
		return
	}

	now := time.Now()

	m.mu.Lock()
	if ctx.Err() != nil {
		// Stopped while reading; the window is already being torn down.
		m.mu.Unlock()
		return
	}
	m.window = append(m.window, core.LinkQualitySample{RSSI: rssi, Timestamp: now})
	if len(m.window) > m.cfg.WindowSize {
		m.window = m.window[1:]
	}

	quality := deriveQuality(m.window, m.cfg.StabilityStdDev, now)
	levelChanged := m.hasResult && quality.Level != m.last.Level
	prevLevel := m.last.Level
	m.last = quality
	m.hasResult = true

	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	// Synchronous, ordered dispatch outside the lock.
	for _, l := range listeners {
		l.OnQualityUpdate(quality)
	}
	if levelChanged {
		m.logger.WithFields(map[string]interface{}{
			"prev": prevLevel.String(),
			"next": quality.Level.String(),
			"rssi": quality.CurrentRSSI,
		}).Info("link quality level changed")
		for _, l := range listeners {
			l.OnQualityLevelChange(prevLevel, quality.Level, quality)
		}
	}
}
