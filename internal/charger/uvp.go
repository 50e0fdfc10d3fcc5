package charger

// runUVPRecovery is a bounded, boot-time precharge loop that wakes a
// deeply discharged pack with a fixed, low trickle current until its
// voltage clears the per-cell recovery floor. The very first attempt
// holds the wakeup pulse for longer than every attempt after it, then
// spins down into high-impedance and a settle period before the main
// control step observes the refreshed state.
//
// When cfg.ContinuousUVPRecovery is set the attempt counter never
// exhausts — recovery re-arms indefinitely instead of giving up after the
// configured attempt budget.
func (c *Controller) runUVPRecovery() {
	if !c.cfg.AttemptUVPRecovery {
		return
	}

	// c.uvpAttempts persists across Steps, so the budget is spent once
	// over the controller's lifetime rather than once per iteration.
	for c.belowUVPRecoverThreshold() && (c.uvpAttempts < c.cfg.NUVPAttempts || c.cfg.ContinuousUVPRecovery) {
		c.state.Precharging = true

		ticks := uvpFirstAttemptTicks
		if c.uvpAttempts > 0 {
			ticks = uvpSubsequentAttemptTicks
		}
		c.uvpAttempts++

		for i := 0; i < ticks; i++ {
			_ = c.device.SetChargeVoltage(c.cells())
			_ = c.device.SetChargeCurrent(c.cfg.UVPRecoveryCurrentMA)
			c.device.HiZ(false)
			c.refreshStatusAndSamples()
			c.sched.DelayTicks(uvpInnerDelayTicks)
		}
	}

	c.state.Precharging = false
	c.device.HiZ(true)
	for i := 0; i < uvpSettleTicks; i++ {
		c.refreshStatusAndSamples()
		c.sched.DelayTicks(1)
	}
}

// belowUVPRecoverThreshold reports whether the measured pack voltage is
// below what a pack of this cell count needs to be considered recovered
// from an under-voltage lockout.
func (c *Controller) belowUVPRecoverThreshold() bool {
	cells := c.cells()
	if cells <= 0 {
		return false
	}
	return c.state.VBATmV < int32(cells)*c.cfg.VCellUVPRecoverMV
}
