package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/pwallis/outletd/internal/infrastructure/config"
)

// Gesture is a classified button gesture.
//
// Presses carries the click count for press gestures (1 = single press,
// 2 = double press, higher counts are possible if max_repeat_presses is
// raised); Long is set instead when the button was held past the
// long-press threshold.
type Gesture struct {
	Presses int
	Long    bool
}

// String returns a human-readable gesture name for logging.
func (g Gesture) String() string {
	if g.Long {
		return "long_press"
	}
	switch g.Presses {
	case 1:
		return "single_press"
	case 2:
		return "double_press"
	default:
		return fmt.Sprintf("press_x%d", g.Presses)
	}
}

// Button watches a push-button input line and classifies raw edges into
// gestures: debounce, click counting within a grouping window, and
// long-press detection.
//
// Gestures are delivered through the emit callback from timer goroutines;
// the callback must not block.
type Button struct {
	line interface{ Close() error }
	c    *classifier
}

// NewButton requests the button input line and starts gesture classification.
//
// Parameters:
//   - chip: GPIO character device name
//   - cfg: Button pin and gesture timing configuration
//   - emit: Callback invoked once per classified gesture
//
// Returns:
//   - *Button: Running button watcher
//   - error: If the line cannot be requested
func NewButton(chip string, cfg config.ButtonConfig, emit func(Gesture)) (*Button, error) {
	c := newClassifier(cfg, emit)

	handler := func(evt gpiocdev.LineEvent) {
		// Falling edge means pressed on an active-low button.
		pressed := evt.Type == gpiocdev.LineEventFallingEdge
		if !cfg.ActiveLow {
			pressed = evt.Type == gpiocdev.LineEventRisingEdge
		}
		c.handleEdge(pressed)
	}

	line, err := gpiocdev.RequestLine(chip, cfg.Pin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(handler),
		gpiocdev.WithConsumer(consumerName),
	)
	if err != nil {
		return nil, fmt.Errorf("requesting button line %s:%d: %w", chip, cfg.Pin, err)
	}

	return &Button{line: line, c: c}, nil
}

// Close releases the button line and stops pending gesture timers.
func (b *Button) Close() error {
	b.c.stop()
	return b.line.Close()
}

// classifier turns a stream of press/release edges into gestures.
//
// State is guarded by mu; the emit callback is always invoked outside the
// lock so a slow consumer cannot stall edge handling.
type classifier struct {
	emit func(Gesture)

	debounce    time.Duration
	pressWindow time.Duration
	longPress   time.Duration
	maxPresses  int

	now func() time.Time // injectable for tests

	mu          sync.Mutex
	pressed     bool
	lastEdge    time.Time
	presses     int
	longFired   bool
	windowTimer *time.Timer
	longTimer   *time.Timer
	stopped     bool
}

// newClassifier creates a gesture classifier with the given timing.
func newClassifier(cfg config.ButtonConfig, emit func(Gesture)) *classifier {
	maxPresses := cfg.MaxRepeatPresses
	if maxPresses < 1 {
		maxPresses = 1
	}
	return &classifier{
		emit:        emit,
		debounce:    cfg.GetDebounce(),
		pressWindow: cfg.GetPressWindow(),
		longPress:   cfg.GetLongPress(),
		maxPresses:  maxPresses,
		now:         time.Now,
	}
}

// handleEdge processes one debounced press/release transition.
func (c *classifier) handleEdge(pressed bool) {
	var gesture *Gesture

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	t := c.now()
	if !c.lastEdge.IsZero() && t.Sub(c.lastEdge) < c.debounce {
		c.mu.Unlock()
		return
	}
	c.lastEdge = t

	if pressed == c.pressed {
		// Duplicate edge (missed transition); nothing to classify.
		c.mu.Unlock()
		return
	}
	c.pressed = pressed

	if pressed {
		// A new press cancels any pending click-count emission and arms
		// the long-press timer.
		if c.windowTimer != nil {
			c.windowTimer.Stop()
			c.windowTimer = nil
		}
		c.longTimer = time.AfterFunc(c.longPress, c.fireLongPress)
		c.mu.Unlock()
		return
	}

	// Release.
	if c.longTimer != nil {
		c.longTimer.Stop()
		c.longTimer = nil
	}
	if c.longFired {
		// The long press was already emitted while held.
		c.longFired = false
		c.presses = 0
		c.mu.Unlock()
		return
	}

	c.presses++
	if c.presses >= c.maxPresses {
		g := Gesture{Presses: c.presses}
		c.presses = 0
		gesture = &g
	} else {
		c.windowTimer = time.AfterFunc(c.pressWindow, c.firePressWindow)
	}
	c.mu.Unlock()

	if gesture != nil {
		c.emit(*gesture)
	}
}

// fireLongPress emits a long-press gesture if the button is still held.
func (c *classifier) fireLongPress() {
	c.mu.Lock()
	if c.stopped || !c.pressed {
		c.mu.Unlock()
		return
	}
	c.longFired = true
	c.presses = 0
	c.mu.Unlock()

	c.emit(Gesture{Long: true})
}

// firePressWindow emits the accumulated click count after the grouping
// window expires with no follow-up press.
func (c *classifier) firePressWindow() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	n := c.presses
	c.presses = 0
	c.windowTimer = nil
	c.mu.Unlock()

	if n > 0 {
		c.emit(Gesture{Presses: n})
	}
}

// stop cancels pending timers and suppresses further gestures.
func (c *classifier) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.windowTimer != nil {
		c.windowTimer.Stop()
	}
	if c.longTimer != nil {
		c.longTimer.Stop()
	}
}
