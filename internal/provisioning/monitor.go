package provisioning

import (
	"context"
	"net"
	"time"

	"github.com/pwallis/outletd/internal/infrastructure/config"
)

// Status is the device's network provisioning state.
type Status int

const (
	// Unconfigured means no network credentials are stored.
	Unconfigured Status = iota

	// Connecting means credentials exist but connectivity is not confirmed.
	Connecting

	// Connected means the network probe succeeded.
	Connected
)

// String returns the status name for logging.
func (s Status) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Logger defines the logging interface used by the Monitor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Monitor polls network state and emits a Status whenever it changes.
//
// The first poll always emits, so the consumer learns the initial state
// without a separate query path. Emissions happen on the monitor goroutine;
// the emit callback must not block for long.
type Monitor struct {
	store  *Store
	cfg    config.ProvisioningConfig
	emit   func(Status)
	logger Logger

	// probe reports whether the network is reachable. Overridable in tests.
	probe func(ctx context.Context) bool
}

// NewMonitor creates a provisioning monitor. emit is called with every
// status change, starting with the initial status on the first poll.
func NewMonitor(store *Store, cfg config.ProvisioningConfig, emit func(Status)) *Monitor {
	m := &Monitor{
		store:  store,
		cfg:    cfg,
		emit:   emit,
		logger: noopLogger{},
	}
	m.probe = m.dialProbe
	return m
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// Start launches the polling goroutine. It stops when ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	// last starts at an impossible value so the first poll always emits.
	last := Status(-1)

	poll := func() {
		status := m.check(ctx)
		if status == last {
			return
		}
		m.logger.Info("network status changed", "from", last.String(), "to", status.String())
		last = status
		m.emit(status)
	}

	poll()

	ticker := time.NewTicker(m.cfg.GetProbeInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

// check computes the current status from stored credentials and the probe.
func (m *Monitor) check(ctx context.Context) Status {
	if !m.store.HasStoredConfig() {
		return Unconfigured
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.GetProbeTimeout())
	defer cancel()

	if m.probe(probeCtx) {
		return Connected
	}
	return Connecting
}

// dialProbe confirms connectivity with a TCP dial to the probe address.
func (m *Monitor) dialProbe(ctx context.Context) bool {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.cfg.ProbeAddress)
	if err != nil {
		m.logger.Debug("network probe failed", "address", m.cfg.ProbeAddress, "error", err)
		return false
	}
	conn.Close() //nolint:errcheck // probe connection, nothing to flush
	return true
}
