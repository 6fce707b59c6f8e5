package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// consumerName identifies outletd's line requests in /sys and gpioinfo output.
const consumerName = "outletd"

// Line is a single output line. The real implementation drives the Linux
// GPIO character device; tests substitute a fake.
type Line interface {
	// SetValue sets the electrical level of the line (0 or 1).
	SetValue(value int) error

	// Close releases the line.
	Close() error
}

// Logger defines the logging interface used by this package.
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

// RequestOutput requests a GPIO line as an output with the given initial level.
//
// Parameters:
//   - chip: GPIO character device name (e.g., "gpiochip0")
//   - pin: Line offset on the chip
//   - initial: Initial electrical level (0 or 1)
//
// Returns:
//   - Line: The requested output line
//   - error: If the line cannot be requested
func RequestOutput(chip string, pin, initial int) (Line, error) {
	line, err := gpiocdev.RequestLine(chip, pin,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer(consumerName),
	)
	if err != nil {
		return nil, fmt.Errorf("requesting output line %s:%d: %w", chip, pin, err)
	}
	return line, nil
}
