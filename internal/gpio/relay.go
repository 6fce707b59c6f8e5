package gpio

import "fmt"

// Relay actuates the physical relay output.
//
// It is a thin mapping from the logical on/off value to the electrical level
// of the line, honouring the configured active level. There is no retry
// policy: a GPIO fault has no software-level remediation, so failures are
// surfaced to the caller for logging only.
type Relay struct {
	line      Line
	activeLow bool
	logger    Logger
}

// NewRelay creates a relay actuator on the given line.
func NewRelay(line Line, activeLow bool) *Relay {
	return &Relay{
		line:      line,
		activeLow: activeLow,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the relay.
func (r *Relay) SetLogger(logger Logger) {
	r.logger = logger
}

// Write sets the relay output.
//
// Parameters:
//   - on: true closes the relay (outlet powered)
func (r *Relay) Write(on bool) error {
	level := 0
	if on != r.activeLow {
		level = 1
	}
	if err := r.line.SetValue(level); err != nil {
		return fmt.Errorf("relay write: %w", err)
	}
	r.logger.Debug("relay written", "on", on, "level", level)
	return nil
}

// Close releases the relay line.
func (r *Relay) Close() error {
	return r.line.Close()
}
