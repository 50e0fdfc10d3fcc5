package charger

import (
	"testing"

	"bq25703a-charger/collab"
	"bq25703a-charger/config"
	"bq25703a-charger/drivers/bq25703a"
	"bq25703a-charger/internal/battery"
	"bq25703a-charger/internal/buslease"
	"bq25703a-charger/internal/faults"
)

type testRig struct {
	ctrl    *Controller
	bus     *collab.SimBus
	gpio    *collab.SimGPIO
	analog  *collab.SimAnalog
	pd      *collab.SimUSBPD
	sched   *collab.SimScheduler
	monitor *battery.Monitor
	faults  *faults.Registry
}

func newTestRig() *testRig {
	cfg := config.Default()
	bus := collab.NewSimBus(0x6B)
	gpio := collab.NewSimGPIO()
	gpio.ChargeOK = true
	analog := &collab.SimAnalog{}
	pd := &collab.SimUSBPD{Readiness: collab.PDReady, MaxCurrentMA: 3000, MaxPowerMW: 60000}
	sched := &collab.SimScheduler{}
	reg := faults.NewRegistry()

	dev := bq25703a.New(bus, buslease.New(), reg, gpio, 0x6B)
	mon := battery.NewMonitor(cfg, analog, gpio, reg)
	ctrl := NewController(cfg, dev, gpio, pd, analog, sched, mon, reg)

	return &testRig{ctrl: ctrl, bus: bus, gpio: gpio, analog: analog, pd: pd, sched: sched, monitor: mon, faults: reg}
}

// fourSeriesLadder configures the sim analog front end so the Battery
// Monitor infers a full 4S pack.
func (r *testRig) fourSeriesLadder(cellMV int32) {
	r.analog.Cell = [4]int32{cellMV, cellMV, cellMV, cellMV}
	r.analog.Tap2S = cellMV
	r.analog.Tap3S = cellMV
	r.analog.Tap4S = cellMV
	r.analog.Pack = cellMV * 4
}

// Taps all 2.8V on a 4S pack: VBAT stays under the per-cell recovery
// floor for the life of the sim bus, so recovery must run every
// configured attempt, then settle into high-Z.
func TestUVPRecoveryBoundedAndLeavesHighImpedance(t *testing.T) {
	r := newTestRig()
	r.ctrl.cfg.NUVPAttempts = 3
	r.fourSeriesLadder(2800)
	r.monitor.Step()

	// regVBATADC left at its zero value decodes to vbatOffsetMV (2880mV),
	// permanently below 4 * V_CELL_UVP_RECOVER (12000mV default).
	r.ctrl.runUVPRecovery()

	if r.ctrl.uvpAttempts != 3 {
		t.Fatalf("uvpAttempts = %d, want 3", r.ctrl.uvpAttempts)
	}
	if r.ctrl.state.Precharging {
		t.Fatal("Precharging still true after UVP recovery exhausted its attempts")
	}
	if !r.gpio.HiZ {
		t.Fatal("regulator not left in high-impedance after UVP recovery exit")
	}
	if r.sched.Ticks == 0 {
		t.Fatal("expected cooperative ticks to be spent across the UVP attempts")
	}
}

func TestUVPRecoverySkippedWhenDisabled(t *testing.T) {
	r := newTestRig()
	r.ctrl.cfg.AttemptUVPRecovery = false
	r.fourSeriesLadder(2800)
	r.monitor.Step()

	r.ctrl.runUVPRecovery()

	if r.ctrl.uvpAttempts != 0 {
		t.Fatal("UVP recovery ran despite AttemptUVPRecovery = false")
	}
}

// A latched RegulatorCommunicationError must mark Connected = false
// regardless of any other state.
func TestBusLivenessMarksDisconnectedOnLatchedFault(t *testing.T) {
	r := newTestRig()
	r.ctrl.state.Connected = true
	r.faults.Set(faults.RegulatorCommunicationError)

	r.ctrl.checkBusLiveness()

	if r.ctrl.state.Connected {
		t.Fatal("Connected still true with RegulatorCommunicationError latched")
	}
}

func TestInputPowerGatingSetsAndClearsFault(t *testing.T) {
	r := newTestRig()
	r.gpio.ChargeOK = false
	r.ctrl.checkInputPower()
	if !r.faults.Has(faults.VoltageInputError) {
		t.Fatal("VoltageInputError not set while charge-okay line is low")
	}

	r.gpio.ChargeOK = true
	r.ctrl.checkInputPower()
	if r.faults.Has(faults.VoltageInputError) {
		t.Fatal("VoltageInputError not cleared once charge-okay line is high")
	}
}

// Testable property 1: any fault set forces high-impedance and a zero
// commanded current this iteration.
func TestMainControlForcesHighImpedanceOnAnyFault(t *testing.T) {
	r := newTestRig()
	r.fourSeriesLadder(3800)
	r.monitor.Step()
	r.faults.Set(faults.CellVoltageError)

	r.ctrl.runMainControl()

	if !r.gpio.HiZ {
		t.Fatal("HiZ not forced ON with a fault set")
	}
	if r.ctrl.state.MaxChargeCurrentMA != 0 {
		t.Fatalf("MaxChargeCurrentMA = %d, want 0 with a fault set", r.ctrl.state.MaxChargeCurrentMA)
	}
}

// Cell over-voltage gates the control preconditions independently of any
// fault registry entry.
func TestMainControlForcesHighImpedanceOnCellOverVoltage(t *testing.T) {
	r := newTestRig()
	r.ctrl.cfg.EnableBalancing = false
	r.analog.Cell = [4]int32{4250, 3900, 3900, 3900}
	r.analog.Tap2S, r.analog.Tap3S, r.analog.Tap4S = 3900, 3900, 3900
	r.analog.Pack = 15700
	r.monitor.Step()

	r.ctrl.runMainControl()

	if !r.gpio.HiZ {
		t.Fatal("HiZ not forced ON while cell_over_voltage is latched")
	}
}

func TestMainControlEnablesOutputWhenPreconditionsHold(t *testing.T) {
	r := newTestRig()
	r.fourSeriesLadder(3700)
	r.monitor.Step()
	r.ctrl.state.VBUSmV = 20000
	r.ctrl.state.VBATmV = 14800

	r.ctrl.runMainControl()

	if r.gpio.HiZ {
		t.Fatal("HiZ still ON with every precondition satisfied")
	}
	if r.ctrl.state.MaxChargeCurrentMA <= 0 {
		t.Fatal("expected a positive commanded charge current")
	}
}

func TestTerminationForcesHighImpedanceAfterConsecutiveLowCurrentCycles(t *testing.T) {
	r := newTestRig()
	// Pack voltage above number_of_cells * V_CELL_CHARGE_ENABLE so
	// requires_charging is false and the termination path can engage.
	r.fourSeriesLadder(4150)
	r.monitor.Step()
	r.ctrl.state.ChargeCurrentMA = r.ctrl.cfg.ChargeTermCurrentMA - 1

	for i := 0; i < terminationCycles; i++ {
		r.ctrl.runTermination()
	}
	if r.gpio.HiZ {
		t.Fatal("termination engaged high-Z before exceeding the consecutive-cycle threshold")
	}
	r.ctrl.runTermination()
	if !r.gpio.HiZ {
		t.Fatal("termination did not force high-Z after exceeding the consecutive-cycle threshold")
	}
	if r.ctrl.terminationCount != 0 {
		t.Fatal("termination counter not reset after forcing high-Z")
	}
}

func TestSpuriousDisconnectProbeReArmsOutput(t *testing.T) {
	r := newTestRig()
	r.fourSeriesLadder(3700)
	r.monitor.Step()
	r.ctrl.state.VBATmV = r.ctrl.cfg.BatteryDisconnectThresholdMV*4 + 1

	r.ctrl.runSpuriousDisconnectProbe(4)

	if r.gpio.HiZ {
		t.Fatal("output left high-impedance after the spurious-disconnect probe; regulator not re-armed")
	}
	if r.sched.Ticks == 0 {
		t.Fatal("expected cooperative ticks to be spent holding output disabled during the probe")
	}
}
