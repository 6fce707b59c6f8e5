package indicator

import (
	"context"
	"sync"
	"time"
)

// Line is the LED output line the player drives.
// It matches gpio.Line so the real hardware line plugs straight in.
type Line interface {
	SetValue(value int) error
	Close() error
}

// Logger defines the logging interface used by the Player.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Player plays blink patterns on the status LED.
//
// Exactly one persistent pattern loops at any time; a transient signal
// interrupts it for a single cycle and then the persistent pattern resumes
// from its first interval. All timing runs on the player's own goroutine,
// so SetPersistent and SignalOnce never block the caller.
type Player struct {
	line      Line
	activeLow bool
	cmds      chan command
	logger    Logger

	// mu guards the name snapshots read by external queries.
	mu             sync.RWMutex
	persistentName string
	currentName    string
}

// command is an internal request to the player goroutine.
type command struct {
	pattern   Pattern
	transient bool
}

// commandBuffer bounds pending pattern changes. The coordinator emits at
// most a handful per event, so overflow indicates a stuck player; commands
// are then dropped rather than blocking event dispatch.
const commandBuffer = 8

// NewPlayer creates a pattern player on the given LED line.
func NewPlayer(line Line, activeLow bool) *Player {
	return &Player{
		line:      line,
		activeLow: activeLow,
		cmds:      make(chan command, commandBuffer),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the player.
func (p *Player) SetLogger(logger Logger) {
	p.logger = logger
}

// Start launches the player goroutine. The LED is switched off and the
// goroutine exits when ctx is cancelled.
func (p *Player) Start(ctx context.Context) {
	go p.run(ctx)
}

// SetPersistent replaces the persistent pattern.
//
// If a transient signal is mid-cycle it finishes first; the new persistent
// pattern takes over afterwards. Otherwise the change is immediate.
func (p *Player) SetPersistent(pattern Pattern) {
	p.mu.Lock()
	p.persistentName = pattern.Name
	p.mu.Unlock()
	p.send(command{pattern: pattern})
}

// SignalOnce interrupts the persistent pattern with one cycle of the given
// pattern, after which the persistent pattern resumes.
func (p *Player) SignalOnce(pattern Pattern) {
	p.send(command{pattern: pattern, transient: true})
}

// PersistentPattern returns the name of the current persistent pattern.
func (p *Player) PersistentPattern() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.persistentName
}

// CurrentPattern returns the name of the pattern actually playing right now
// (the transient signal name while one is in flight).
func (p *Player) CurrentPattern() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentName
}

// send queues a command without blocking; drops with a warning on overflow.
func (p *Player) send(cmd command) {
	select {
	case p.cmds <- cmd:
	default:
		p.logger.Warn("indicator command dropped", "pattern", cmd.pattern.Name, "transient", cmd.transient)
	}
}

// run is the player goroutine: a little step machine over the active
// pattern's intervals, interruptible between steps by commands.
func (p *Player) run(ctx context.Context) {
	var persistent, active Pattern
	idx := 0
	transient := false

	timer := time.NewTimer(time.Hour)
	stopTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
	stopTimer()

	// step emits the LED level for the current interval and arms the timer.
	step := func() {
		if len(active.Intervals) == 0 {
			p.setLevel(false)
			p.setCurrent("")
			return
		}
		iv := active.Intervals[idx]
		p.setLevel(iv > 0)
		p.setCurrent(active.Name)
		d := iv
		if d < 0 {
			d = -d
		}
		timer.Reset(time.Duration(d) * time.Millisecond)
	}

	// begin restarts playback from the first interval of pat.
	begin := func(pat Pattern, isTransient bool) {
		stopTimer()
		active = pat
		idx = 0
		transient = isTransient
		step()
	}

	for {
		select {
		case <-ctx.Done():
			p.setLevel(false)
			return

		case cmd := <-p.cmds:
			if cmd.transient {
				begin(cmd.pattern, true)
				continue
			}
			persistent = cmd.pattern
			if !transient {
				begin(persistent, false)
			}
			// A transient in flight finishes its cycle and then resumes
			// the new persistent pattern.

		case <-timer.C:
			idx++
			if idx >= len(active.Intervals) {
				idx = 0
				if transient {
					transient = false
					active = persistent
				}
			}
			step()
		}
	}
}

// setLevel drives the LED line, honouring the active level.
func (p *Player) setLevel(on bool) {
	level := 0
	if on != p.activeLow {
		level = 1
	}
	if err := p.line.SetValue(level); err != nil {
		p.logger.Warn("indicator write failed", "error", err)
	}
}

// setCurrent records the currently playing pattern name for queries.
func (p *Player) setCurrent(name string) {
	p.mu.Lock()
	p.currentName = name
	p.mu.Unlock()
}
