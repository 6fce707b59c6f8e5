package gpio

import (
	"testing"
	"time"

	"github.com/pwallis/outletd/internal/infrastructure/config"
)

// testButtonConfig returns gesture timing scaled down for tests.
func testButtonConfig() config.ButtonConfig {
	return config.ButtonConfig{
		Pin:              0,
		ActiveLow:        true,
		DebounceMS:       1,
		PressWindowMS:    40,
		LongPressMS:      120,
		MaxRepeatPresses: 2,
	}
}

// gestureCollector gathers emitted gestures on a channel.
func gestureCollector() (func(Gesture), chan Gesture) {
	ch := make(chan Gesture, 8)
	return func(g Gesture) { ch <- g }, ch
}

// waitGesture waits for one gesture or fails the test.
func waitGesture(t *testing.T, ch chan Gesture, within time.Duration) Gesture {
	t.Helper()
	select {
	case g := <-ch:
		return g
	case <-time.After(within):
		t.Fatal("timed out waiting for gesture")
		return Gesture{}
	}
}

// expectNoGesture asserts nothing is emitted within the window.
func expectNoGesture(t *testing.T, ch chan Gesture, within time.Duration) {
	t.Helper()
	select {
	case g := <-ch:
		t.Fatalf("unexpected gesture %v", g)
	case <-time.After(within):
	}
}

// press simulates a press/release of the given hold duration.
func press(c *classifier, hold time.Duration) {
	c.handleEdge(true)
	time.Sleep(hold)
	c.handleEdge(false)
}

func TestClassifierSinglePress(t *testing.T) {
	emit, ch := gestureCollector()
	c := newClassifier(testButtonConfig(), emit)
	defer c.stop()

	press(c, 10*time.Millisecond)

	g := waitGesture(t, ch, time.Second)
	if g.Long || g.Presses != 1 {
		t.Errorf("gesture = %v, want single press", g)
	}
}

func TestClassifierDoublePress(t *testing.T) {
	emit, ch := gestureCollector()
	c := newClassifier(testButtonConfig(), emit)
	defer c.stop()

	press(c, 10*time.Millisecond)
	time.Sleep(10 * time.Millisecond) // within press window
	press(c, 10*time.Millisecond)

	g := waitGesture(t, ch, time.Second)
	if g.Long || g.Presses != 2 {
		t.Errorf("gesture = %v, want double press", g)
	}
	// Double press is emitted immediately at max count; the window timer
	// must not fire a second gesture afterwards.
	expectNoGesture(t, ch, 100*time.Millisecond)
}

func TestClassifierLongPress(t *testing.T) {
	emit, ch := gestureCollector()
	c := newClassifier(testButtonConfig(), emit)
	defer c.stop()

	c.handleEdge(true)
	g := waitGesture(t, ch, time.Second)
	if !g.Long {
		t.Errorf("gesture = %v, want long press", g)
	}

	// Release after the long press fired must not emit a click.
	c.handleEdge(false)
	expectNoGesture(t, ch, 100*time.Millisecond)
}

func TestClassifierDebounce(t *testing.T) {
	cfg := testButtonConfig()
	cfg.DebounceMS = 500 // everything after the first edge is bounce
	cfg.LongPressMS = 5000
	emit, ch := gestureCollector()
	c := newClassifier(cfg, emit)
	defer c.stop()

	c.handleEdge(true)
	c.handleEdge(false) // bounce, ignored
	c.handleEdge(true)  // bounce, ignored

	expectNoGesture(t, ch, 100*time.Millisecond)
}

func TestClassifierDuplicateEdgeIgnored(t *testing.T) {
	emit, ch := gestureCollector()
	c := newClassifier(testButtonConfig(), emit)
	defer c.stop()

	c.handleEdge(false) // already released
	expectNoGesture(t, ch, 60*time.Millisecond)

	press(c, 10*time.Millisecond)
	g := waitGesture(t, ch, time.Second)
	if g.Presses != 1 {
		t.Errorf("gesture = %v, want single press after spurious edge", g)
	}
}

func TestClassifierStop(t *testing.T) {
	emit, ch := gestureCollector()
	c := newClassifier(testButtonConfig(), emit)

	press(c, 10*time.Millisecond)
	c.stop()

	// The pending window timer is cancelled; no gesture arrives.
	expectNoGesture(t, ch, 100*time.Millisecond)
}

func TestGestureString(t *testing.T) {
	tests := []struct {
		gesture Gesture
		want    string
	}{
		{Gesture{Presses: 1}, "single_press"},
		{Gesture{Presses: 2}, "double_press"},
		{Gesture{Presses: 3}, "press_x3"},
		{Gesture{Long: true}, "long_press"},
	}
	for _, tt := range tests {
		if got := tt.gesture.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
