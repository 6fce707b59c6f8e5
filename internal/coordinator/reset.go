package coordinator

import (
	"context"
	"time"

	"github.com/pwallis/outletd/internal/indicator"
)

// startReset begins the factory reset sequence. A second long press while a
// reset is already in flight is ignored; the latch is only released by the
// restart at the end of the sequence.
func (c *Coordinator) startReset() {
	if !c.resetting.CompareAndSwap(false, true) {
		c.logger.Debug("reset already in progress, ignoring")
		return
	}

	c.logger.Info("factory reset started")
	c.telemetry.RecordEvent("factory_reset")
	c.indicator.SignalOnce(indicator.Reset)

	go c.runReset()
}

// runReset executes the reset steps in strict order, pausing between them.
// The sequence is deliberately not cancellable: once a person has held the
// button long enough to start it, a half-erased device is worse than an
// erased one. Erase failures are logged and the sequence continues, so the
// device always reaches the restart.
func (c *Coordinator) runReset() {
	time.Sleep(c.opts.SettleDelay)

	if err := c.network.Erase(); err != nil {
		c.logger.Error("erasing network credentials failed", "error", err)
	}
	time.Sleep(c.opts.EraseDelay)

	if err := c.pairings.EraseAll(context.Background()); err != nil {
		c.logger.Error("erasing pairings failed", "error", err)
	}
	time.Sleep(c.opts.EraseDelay)

	c.logger.Info("factory reset complete, restarting")
	if err := c.restarter.Restart(); err != nil {
		c.logger.Error("restart failed", "error", err)
	}
}
