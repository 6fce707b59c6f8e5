package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pwallis/outletd/internal/gpio"
	"github.com/pwallis/outletd/internal/indicator"
	"github.com/pwallis/outletd/internal/provisioning"
)

// DeviceState is the device's top-level lifecycle state, derived from
// network status and the pairing set.
type DeviceState int

const (
	// AwaitingProvisioning means no network credentials are stored.
	AwaitingProvisioning DeviceState = iota

	// ConnectingToNetwork means credentials exist but connectivity is
	// not yet confirmed.
	ConnectingToNetwork

	// AwaitingPairing means the network is up but no controller is paired.
	AwaitingPairing

	// Paired means the network is up and at least one controller is paired.
	Paired
)

// String returns the state name for logging and status reporting.
func (s DeviceState) String() string {
	switch s {
	case AwaitingProvisioning:
		return "awaiting_provisioning"
	case ConnectingToNetwork:
		return "connecting_to_network"
	case AwaitingPairing:
		return "awaiting_pairing"
	case Paired:
		return "paired"
	default:
		return "unknown"
	}
}

// Relay drives the mains relay.
type Relay interface {
	Write(on bool) error
}

// Attributes is the persisted on/off attribute.
type Attributes interface {
	On() bool
	Set(ctx context.Context, on bool) error
	SetSilent(ctx context.Context, on bool) error
}

// Indicator plays LED patterns.
type Indicator interface {
	SetPersistent(pattern indicator.Pattern)
	SignalOnce(pattern indicator.Pattern)
}

// NetworkStore erases stored network credentials during factory reset.
type NetworkStore interface {
	Erase() error
}

// PairingStore erases the pairing set during factory reset.
type PairingStore interface {
	EraseAll(ctx context.Context) error
}

// Restarter restarts the device as the final factory reset step.
type Restarter interface {
	Restart() error
}

// InitFunc runs the one-time network-dependent initialization (pairing
// server, update listener, initial retained state). It is invoked at most
// once, on the first transition to a connected network.
type InitFunc func(ctx context.Context) error

// Telemetry records state history. Optional; a noop is used when unset.
type Telemetry interface {
	RecordState(state string, on bool)
	RecordEvent(kind string)
}

type noopTelemetry struct{}

func (noopTelemetry) RecordState(string, bool) {}
func (noopTelemetry) RecordEvent(string)       {}

// Logger defines the logging interface used by the Coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// eventBuffer bounds the event channel. Sources emit at human and network
// pace, so a small buffer absorbs any burst; overflow drops with a warning
// rather than blocking a source goroutine.
const eventBuffer = 32

// Options are the coordinator's startup inputs and reset timing.
type Options struct {
	// Provisioned is whether network credentials existed at startup.
	// It determines the initial state before the first monitor poll.
	Provisioned bool

	// Paired is whether any controller was paired at startup.
	Paired bool

	// SettleDelay is the pause between signalling a reset on the LED and
	// the first erase, so a person can see the acknowledgement.
	SettleDelay time.Duration

	// EraseDelay is the pause after each erase step.
	EraseDelay time.Duration
}

// Coordinator owns device state.
//
// Every input (button gestures, network changes, pairing changes, remote
// writes) arrives as an Event on a single channel and is handled by the
// single dispatch goroutine in Run. That goroutine is the only writer of
// state, which is what makes the one-time initialization and the
// state/attribute bookkeeping race free.
type Coordinator struct {
	relay     Relay
	attrs     Attributes
	indicator Indicator
	network   NetworkStore
	pairings  PairingStore
	restarter Restarter
	init      InitFunc
	telemetry Telemetry
	logger    Logger
	opts      Options

	events chan Event

	// Dispatch-goroutine state. Never touched elsewhere.
	netStatus   provisioning.Status
	paired      bool
	initialized bool

	// resetting latches once the factory reset sequence starts. The
	// sequence ends in a restart, so it is never cleared.
	resetting atomic.Bool

	// mu guards the state snapshot read by external queries.
	mu    sync.RWMutex
	state DeviceState
}

// New creates a coordinator. Call Run to start dispatching.
func New(relay Relay, attrs Attributes, ind Indicator, network NetworkStore, pairings PairingStore, restarter Restarter, init InitFunc, opts Options) *Coordinator {
	netStatus := provisioning.Unconfigured
	if opts.Provisioned {
		netStatus = provisioning.Connecting
	}

	c := &Coordinator{
		relay:     relay,
		attrs:     attrs,
		indicator: ind,
		network:   network,
		pairings:  pairings,
		restarter: restarter,
		init:      init,
		telemetry: noopTelemetry{},
		logger:    noopLogger{},
		opts:      opts,
		events:    make(chan Event, eventBuffer),
		netStatus: netStatus,
		paired:    opts.Paired,
	}
	c.state = c.computeState()
	return c
}

// SetLogger sets the logger for the coordinator.
func (c *Coordinator) SetLogger(logger Logger) {
	c.logger = logger
}

// SetTelemetry sets the state-history recorder.
func (c *Coordinator) SetTelemetry(t Telemetry) {
	c.telemetry = t
}

// State returns the current device state.
func (c *Coordinator) State() DeviceState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Submit queues an event for dispatch. It never blocks; if the buffer is
// full the event is dropped with a warning.
func (c *Coordinator) Submit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event dropped, dispatch backlog full", "event", ev)
	}
}

// Run is the dispatch loop. It applies the initial LED pattern, then
// handles events one at a time until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	c.applyState(c.computeState(), true)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

// dispatch handles a single event. Runs only on the dispatch goroutine.
func (c *Coordinator) dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case ButtonEvent:
		c.handleButton(ctx, e.Gesture)
	case ProvisioningEvent:
		c.handleProvisioning(ctx, e.Status)
	case PairingEvent:
		c.handlePairing(e.Change)
	case AttributeWriteEvent:
		c.handleAttributeWrite(ctx, e.On)
	case IdentifyEvent:
		c.handleIdentify()
	default:
		c.logger.Warn("unknown event type", "event", ev)
	}
}

func (c *Coordinator) handleButton(ctx context.Context, g gpio.Gesture) {
	c.telemetry.RecordEvent(g.String())

	switch {
	case g.Long:
		c.startReset()
	case g.Presses == 1:
		c.toggle(ctx)
	case g.Presses == 2:
		// Immediate unconditional restart; nothing to erase, no sequencing.
		c.logger.Info("restart requested by button")
		go func() {
			if err := c.restarter.Restart(); err != nil {
				c.logger.Error("restart failed", "error", err)
			}
		}()
	default:
		c.logger.Warn("unrecognized button gesture ignored", "gesture", g.String())
	}
}

// toggle flips the relay and persists the new state, notifying controllers.
func (c *Coordinator) toggle(ctx context.Context) {
	on := !c.attrs.On()
	c.logger.Info("toggling outlet", "on", on)

	if err := c.relay.Write(on); err != nil {
		c.logger.Error("relay write failed", "error", err)
		return
	}
	if err := c.attrs.Set(ctx, on); err != nil {
		c.logger.Error("persisting attribute failed", "error", err)
	}
}

func (c *Coordinator) handleProvisioning(ctx context.Context, status provisioning.Status) {
	c.netStatus = status

	if status == provisioning.Connected && !c.initialized {
		// At most once, even if the network flaps afterwards.
		c.initialized = true
		if err := c.init(ctx); err != nil {
			c.logger.Error("network initialization failed", "error", err)
		}
	}

	c.applyState(c.computeState(), false)
}

func (c *Coordinator) handlePairing(change PairingChange) {
	switch change {
	case PairingAdded:
		c.paired = true
	case LastPairingRemoved:
		c.paired = false
	}
	c.applyState(c.computeState(), false)
}

// handleAttributeWrite applies a remote write: relay and persistence only.
// The origin already knows the value, so no change notification goes out.
func (c *Coordinator) handleAttributeWrite(ctx context.Context, on bool) {
	c.logger.Info("remote write", "on", on)

	if err := c.relay.Write(on); err != nil {
		c.logger.Error("relay write failed", "error", err)
		return
	}
	if err := c.attrs.SetSilent(ctx, on); err != nil {
		c.logger.Error("persisting attribute failed", "error", err)
	}
}

func (c *Coordinator) handleIdentify() {
	c.telemetry.RecordEvent("identify")
	c.indicator.SignalOnce(indicator.Identify)
}

// computeState derives device state from network status and the pairing set.
func (c *Coordinator) computeState() DeviceState {
	switch c.netStatus {
	case provisioning.Unconfigured:
		return AwaitingProvisioning
	case provisioning.Connecting:
		return ConnectingToNetwork
	default:
		if c.paired {
			return Paired
		}
		return AwaitingPairing
	}
}

// applyState publishes a state change: snapshot, LED pattern, telemetry.
// Unchanged state is a no-op so redundant events never disturb the LED.
func (c *Coordinator) applyState(state DeviceState, force bool) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.mu.Unlock()

	if !changed && !force {
		return
	}

	c.logger.Info("device state", "state", state.String())
	c.indicator.SetPersistent(statePattern(state))
	c.telemetry.RecordState(state.String(), c.attrs.On())
}

// statePattern maps a device state to its persistent LED pattern.
func statePattern(state DeviceState) indicator.Pattern {
	switch state {
	case AwaitingProvisioning:
		return indicator.NoWifiConfig
	case ConnectingToNetwork:
		return indicator.ConnectingToWifi
	case AwaitingPairing:
		return indicator.Unpaired
	default:
		return indicator.Normal
	}
}
