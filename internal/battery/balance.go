package battery

import "bq25703a-charger/x/mathx"

// runBalancing drives the per-cell discharge FETs that bleed down the
// highest cells toward the lowest active cell. Gated by the enable flag,
// balance-port connectivity, and an empty fault set; while gated off, the
// over-voltage discharge rule still applies per-cell regardless of the
// balancing-enabled latch.
func (m *Monitor) runBalancing() {
	if !m.cfg.EnableBalancing || !m.state.BalancePortConnected || m.faults.Any() {
		m.state.BalancingEnabled = false
		m.state.CellBalanceBitmask = m.applyOverVoltageDischarge(0)
		return
	}

	vmin, vmax := m.activeCellExtremes()
	scalar := m.balancingScalar(vmax)

	delta := float64(vmax - vmin)
	enableThreshold := float64(m.cfg.CellDeltaVEnableMV) * scalar
	hysteresisThreshold := float64(m.cfg.CellBalancingHysteresisMV) * scalar

	switch {
	case !m.state.BalancingEnabled && delta >= enableThreshold && vmin > m.cfg.VCellMinBalanceMV:
		m.state.BalancingEnabled = true
	case m.state.BalancingEnabled && (delta < hysteresisThreshold || vmin <= m.cfg.VCellMinBalanceMV):
		m.state.BalancingEnabled = false
	}

	var mask uint8
	if m.state.BalancingEnabled {
		for i := 0; i < m.state.NumberOfCells && i < len(m.state.CellMV); i++ {
			if float64(m.state.CellMV[i]-vmin) >= hysteresisThreshold {
				mask |= 1 << uint(i)
			}
		}
	}
	m.state.CellBalanceBitmask = m.applyOverVoltageDischarge(mask)
}

// activeCellExtremes returns vmin, vmax across the active (connected)
// cells only.
func (m *Monitor) activeCellExtremes() (vmin, vmax int32) {
	n := m.state.NumberOfCells
	if n <= 0 || n > len(m.state.CellMV) {
		return 0, 0
	}
	vmin, vmax = m.state.CellMV[0], m.state.CellMV[0]
	for i := 1; i < n; i++ {
		vmin = mathx.Min(vmin, m.state.CellMV[i])
		vmax = mathx.Max(vmax, m.state.CellMV[i])
	}
	return vmin, vmax
}

// balancingScalar tightens the delta threshold linearly as vmax rises from
// the minimum-balance floor toward the charge-enable voltage while XT60
// is connected, otherwise returns 1 (no tightening without a main-terminal
// connection).
func (m *Monitor) balancingScalar(vmax int32) float64 {
	if !m.state.XT60Connected {
		return 1
	}
	span := float64(m.cfg.VCellChargeEnableMV - m.cfg.VCellMinBalanceMV)
	if span <= 0 {
		return 1
	}
	frac := float64(vmax-m.cfg.VCellMinBalanceMV) / span
	raw := float64(m.cfg.CellBalancingScalarMax) * (1 - frac)
	return mathx.Max(1.0, raw)
}

// applyOverVoltageDischarge ORs in the discharge bit for any cell at or
// above the over-voltage discharge ceiling regardless of the
// balancing-enabled state, then drives the GPIO discharge lines to match
// and returns the final mask.
func (m *Monitor) applyOverVoltageDischarge(mask uint8) uint8 {
	for i := 0; i < m.state.NumberOfCells && i < len(m.state.CellMV); i++ {
		if m.state.CellMV[i] >= m.cfg.VCellOVDischargeMV {
			mask |= 1 << uint(i)
		}
	}
	for i := 0; i < len(m.state.CellMV); i++ {
		m.gpio.SetCellDischarge(i, mask&(1<<uint(i)) != 0)
	}
	return mask
}
