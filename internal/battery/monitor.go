// Package battery implements the battery monitor: pack connectivity
// detection, cell-count inference from the balance-tap ladder, per-cell
// safety checks, and the balancing controller.
package battery

import (
	"bq25703a-charger/collab"
	"bq25703a-charger/config"
	"bq25703a-charger/internal/faults"
)

// State is the battery monitor's published record, copied by value to
// cross-task readers.
type State struct {
	XT60Connected         bool
	BalancePortConnected  bool
	NumberOfCells         int
	BalancingEnabled      bool
	CellBalanceBitmask    uint8
	CellOverVoltage       bool
	RequiresCharging      bool
	CellMV                [4]int32
}

// Monitor owns the Battery state record and runs the periodic step.
type Monitor struct {
	cfg    config.Config
	analog collab.AnalogSampler
	gpio   collab.GPIO
	faults *faults.Registry

	state State
}

func NewMonitor(cfg config.Config, analog collab.AnalogSampler, gpio collab.GPIO, reg *faults.Registry) *Monitor {
	return &Monitor{cfg: cfg, analog: analog, gpio: gpio, faults: reg}
}

// Snapshot returns a by-value copy of the current state.
func (m *Monitor) Snapshot() State { return m.state }

// Step runs one battery monitor iteration (nominal period 250ms):
// connectivity detection, then safety checks, then balancing, then the
// requires-charging decision, in that order.
func (m *Monitor) Step() {
	pack := m.analog.PackVoltageMV()
	m.state.XT60Connected = pack > m.cfg.VConnectedMV

	ladder := m.probeLadder()
	m.inferCellCount(ladder)

	m.checkControllerTemperature()
	m.checkCellSafety()

	m.runBalancing()

	m.state.RequiresCharging = m.state.XT60Connected && m.state.BalancePortConnected &&
		pack < int32(m.state.NumberOfCells)*m.cfg.VCellChargeEnableMV
}

// probeLadder sets bit k iff tap k and the per-cell measurement at index k
// both exceed the connected-pack threshold. The balance-tap ladder
// exposes cumulative junction voltages for k=1..3 (Tap2S/3S/4S, the
// voltage from ground to the boundary after the (k+1)th cell); k=0 has no
// separate junction below it, so its own per-cell reading serves as both
// tap and cell measurement.
func (m *Monitor) probeLadder() uint8 {
	// Per-cell measurements are read once here so the rest of the step
	// uses a stable snapshot.
	for i := range m.state.CellMV {
		m.state.CellMV[i] = m.analog.CellVoltageMV(i)
	}
	taps := [4]int32{
		m.state.CellMV[0],
		m.analog.TapVoltage2SMV(),
		m.analog.TapVoltage3SMV(),
		m.analog.TapVoltage4SMV(),
	}

	var mask uint8
	for k := 0; k < 4; k++ {
		tapOK := taps[k] > m.cfg.VConnectedMV
		cellOK := m.state.CellMV[k] > m.cfg.VConnectedMV
		if tapOK && cellOK {
			mask |= 1 << uint(k)
		}
	}
	return mask
}

// inferCellCount applies the contiguous-prefix rule: the candidate count
// is accepted only if every lower bit is also set; a single bit 0 alone
// is ambiguous and rejected rather than assumed to mean a single cell.
func (m *Monitor) inferCellCount(ladder uint8) {
	// Find the highest set bit, then require every lower bit also set
	// (the contiguous-prefix rule); a gap anywhere rejects the whole
	// reading rather than falling back to a lower candidate count.
	candidate := 0
	switch {
	case ladder&0b1000 != 0:
		if ladder&0b1111 == 0b1111 {
			candidate = 4
		}
	case ladder&0b0100 != 0:
		if ladder&0b0111 == 0b0111 {
			candidate = 3
		}
	case ladder&0b0010 != 0:
		if ladder&0b0011 == 0b0011 {
			candidate = 2
		}
		// bit 0 alone (ladder == 0b0001): single cell not supported, stays 0.
	}

	if candidate == 0 {
		m.state.NumberOfCells = 0
		m.faults.Set(faults.CellConnectionError)
	} else {
		m.state.NumberOfCells = candidate
		m.faults.Clear(faults.CellConnectionError)
	}
	m.state.BalancePortConnected = m.state.NumberOfCells > 1
}

// checkControllerTemperature applies one-sided hysteresis: the fault sets
// above the operating ceiling and clears only once the temperature has
// dropped below the (lower) recovery threshold.
func (m *Monitor) checkControllerTemperature() {
	t := m.analog.ControllerTemperatureC()
	if t > m.cfg.TMaxOpC {
		m.faults.Set(faults.ControllerOverTemperature)
	} else if t < m.cfg.TRecoverC {
		m.faults.Clear(faults.ControllerOverTemperature)
	}
}

// checkCellSafety raises CellVoltageError on any cell below the hard
// under-voltage floor and latches CellOverVoltage for this cycle on any
// cell above the hard over-voltage ceiling.
func (m *Monitor) checkCellSafety() {
	anyUnder := false
	anyOver := false
	for i := 0; i < m.state.NumberOfCells && i < len(m.state.CellMV); i++ {
		v := m.state.CellMV[i]
		if v < m.cfg.VCellUVHardMV {
			anyUnder = true
		}
		if v > m.cfg.VCellOVHardMV {
			anyOver = true
		}
	}
	if anyUnder {
		m.faults.Set(faults.CellVoltageError)
	} else {
		m.faults.Clear(faults.CellVoltageError)
	}
	m.state.CellOverVoltage = anyOver
}
