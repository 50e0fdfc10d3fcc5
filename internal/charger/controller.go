// Package charger implements the regulator controller: charge envelope
// computation, under-voltage-protection recovery precharge, charge
// termination, thermal derating, and output-enable gating.
package charger

import (
	"bq25703a-charger/collab"
	"bq25703a-charger/config"
	"bq25703a-charger/drivers/bq25703a"
	"bq25703a-charger/errcode"
	"bq25703a-charger/internal/battery"
	"bq25703a-charger/internal/faults"
)

const (
	// uvpFirstAttemptTicks is the wakeup pulse width on the very first
	// UVP-recovery attempt, held longer than subsequent attempts to give
	// a deeply discharged pack more time to respond.
	uvpFirstAttemptTicks = 20
	// uvpSubsequentAttemptTicks is the wakeup pulse width on every
	// attempt after the first.
	uvpSubsequentAttemptTicks = 12
	// uvpInnerDelayTicks is the per-iteration yield inside the UVP inner
	// loop.
	uvpInnerDelayTicks = 500
	// uvpSettleTicks is the idle spin after UVP recovery exits, refreshing
	// status and samples before the main control step observes them.
	uvpSettleTicks = 4
	// spuriousDisconnectOnTicks holds output disabled briefly during the
	// spurious-disconnect probe before re-enabling it.
	spuriousDisconnectOnTicks = 2
	// terminationCycles is the count of consecutive below-term-current
	// cycles that must be exceeded before a high-impedance termination is
	// forced (the forcing cycle is the one after the third).
	terminationCycles = 3
)

// State is the regulator controller's published record, copied by value
// to cross-task readers.
type State struct {
	Connected          bool
	ChargingActive     bool
	Precharging        bool
	VBUSmV             int32
	VBATmV             int32
	VSYSmV             int32
	InputCurrentMA     int32
	ChargeCurrentMA    int32
	MaxChargeCurrentMA int32
}

// Controller owns the Regulator state record and runs the periodic step.
type Controller struct {
	cfg     config.Config
	device  *bq25703a.Device
	gpio    collab.GPIO
	pd      collab.USBPD
	analog  collab.AnalogSampler
	sched   collab.Scheduler
	battery *battery.Monitor
	faults  *faults.Registry

	state            State
	uvpAttempts      int
	terminationCount int
}

// NewController wires the Regulator Controller to its device and
// collaborators. battery is read for the cell-count and connectivity
// descriptor the Controller's control gate depends on.
func NewController(cfg config.Config, device *bq25703a.Device, gpio collab.GPIO, pd collab.USBPD, analog collab.AnalogSampler, sched collab.Scheduler, battery *battery.Monitor, reg *faults.Registry) *Controller {
	return &Controller{
		cfg:     cfg,
		device:  device,
		gpio:    gpio,
		pd:      pd,
		analog:  analog,
		sched:   sched,
		battery: battery,
		faults:  reg,
	}
}

// Snapshot returns a by-value copy of the current state.
func (c *Controller) Snapshot() State { return c.state }

// Startup places output in high-impedance, disables OTG, probes identity,
// writes the fixed operating mode, configures the ADC, and yields one
// tick.
func (c *Controller) Startup() {
	c.device.HiZ(true)
	c.device.OTG(false)
	c.state.Connected = c.device.Identify() == bq25703a.Connected
	if err := c.device.WriteChargeOption0(); errcode.Of(err) != errcode.OK {
		println("[charger] WriteChargeOption0 failed, code:", string(errcode.Of(err)))
	}
	if err := c.device.ConfigureADC(); errcode.Of(err) != errcode.OK {
		println("[charger] ConfigureADC failed, code:", string(errcode.Of(err)))
	}
	c.sched.DelayTicks(1)
}

// Step runs one Regulator Controller iteration (nominal period 250ms).
func (c *Controller) Step() {
	c.checkInputPower()
	c.checkBusLiveness()
	c.refreshStatusAndSamples()
	c.runUVPRecovery()
	c.runMainControl()
}

// checkInputPower latches VoltageInputError from the charge-okay digital
// input: the board's input-voltage supervisor pulls this line low when
// VBUS is outside the range it can regulate from.
func (c *Controller) checkInputPower() {
	if c.gpio.ReadChargeOK() {
		c.faults.Clear(faults.VoltageInputError)
	} else {
		c.faults.Set(faults.VoltageInputError)
	}
}

// checkBusLiveness marks the regulator disconnected once register
// transfers have started failing, so stale Connected=true state doesn't
// linger after the bus actually dropped out.
func (c *Controller) checkBusLiveness() {
	if c.faults.Has(faults.RegulatorCommunicationError) {
		c.state.Connected = false
	}
}

// refreshStatusAndSamples reads ChargeStatus then samples the ADC, in
// that order: the charging-active bit is cheap to read and worth having
// current even if the ADC sample that follows times out.
func (c *Controller) refreshStatusAndSamples() {
	if active, err := c.device.ChargingActive(); err == nil {
		c.state.ChargingActive = active
	}
	snap, err := c.device.SampleADC(c.sched)
	if err != nil {
		return
	}
	c.state.VBUSmV = snap.VBUSmV
	c.state.VBATmV = snap.VBATmV
	c.state.VSYSmV = snap.VSYSmV
	c.state.ChargeCurrentMA = snap.ICHGmA
	c.state.InputCurrentMA = snap.IINmA
}

func (c *Controller) cells() int { return c.battery.Snapshot().NumberOfCells }

// controlPreconditionsHold is the output-enable gate: every one of these
// must hold before the regulator is allowed to source charge current.
func (c *Controller) controlPreconditionsHold() bool {
	b := c.battery.Snapshot()
	return b.XT60Connected &&
		b.BalancePortConnected &&
		!c.faults.Any() &&
		c.pd.InputPowerReady() == collab.PDReady &&
		!b.CellOverVoltage
}

// runMainControl drives the regulator's charge setpoints. When
// preconditions fail, output is forced high-impedance with zero
// setpoints and the rest of the step is skipped.
func (c *Controller) runMainControl() {
	if !c.controlPreconditionsHold() {
		c.device.HiZ(true)
		_ = c.device.SetChargeVoltage(0)
		_ = c.device.SetChargeCurrent(0)
		c.state.MaxChargeCurrentMA = 0
		return
	}

	cells := c.cells()
	_ = c.device.SetChargeVoltage(cells)

	tempC := c.analog.ControllerTemperatureC()
	_, currentMA := chargeEnvelope(c.cfg, c.pd, c.state.VBUSmV, c.state.VBATmV, tempC)

	_ = c.device.SetChargeCurrent(currentMA)
	c.state.MaxChargeCurrentMA = currentMA

	c.device.HiZ(false)

	c.runSpuriousDisconnectProbe(cells)
	c.runTermination()
}

// runSpuriousDisconnectProbe guards against a measured pack voltage that
// has jumped above what a connected pack of this cell count should ever
// read — the signature of the battery connector having momentarily
// bounced rather than a genuine disconnect. It forces high-impedance for
// a couple of ticks and then re-enables output, re-arming the regulator
// so it re-evaluates the connection from a clean state instead of latching
// into a bad setpoint derived from the spurious reading.
func (c *Controller) runSpuriousDisconnectProbe(cells int) {
	if cells <= 0 {
		return
	}
	if c.state.VBATmV <= c.cfg.BatteryDisconnectThresholdMV*int32(cells) {
		return
	}
	c.device.HiZ(true)
	for i := 0; i < spuriousDisconnectOnTicks; i++ {
		c.sched.DelayTicks(1)
	}
	c.device.HiZ(false)
}

// runTermination forces a one-cycle high-impedance stop after enough
// consecutive below-term-current cycles while the pack no longer requires
// charging, then resets the counter.
func (c *Controller) runTermination() {
	requiresCharging := c.battery.Snapshot().RequiresCharging
	if !requiresCharging && c.state.ChargeCurrentMA < c.cfg.ChargeTermCurrentMA {
		c.terminationCount++
	} else {
		c.terminationCount = 0
		return
	}
	if c.terminationCount > terminationCycles {
		c.device.HiZ(true)
		c.terminationCount = 0
	}
}
