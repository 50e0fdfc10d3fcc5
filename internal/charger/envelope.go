package charger

import (
	"bq25703a-charger/collab"
	"bq25703a-charger/config"
	"bq25703a-charger/x/mathx"
)

// chargeEnvelope computes the commanded charge power (mW) and current (mA)
// for one Controller iteration. vbusMV and vpackMV are the measured VBUS
// and pack voltages; tempC is the controller temperature.
func chargeEnvelope(cfg config.Config, pd collab.USBPD, vbusMV, vpackMV, tempC int32) (powerMW, currentMA int32) {
	iInMaxMA := pd.MaxInputCurrentMA()
	pInMaxMW := pd.MaxInputPowerMW()

	// P = VBUS * I_IN_MAX * eta, in mW: (mV * mA) / 1000 * (percent/100).
	p := (int64(vbusMV) * int64(iInMaxMA) / 1000) * int64(cfg.AssumeEfficiencyPercent) / 100
	p = clamp64(p, 0, int64(cfg.MaxChargingPowerMW))

	if pInMaxMW > 0 && p > int64(pInMaxMW) {
		p = int64(pInMaxMW) * int64(cfg.AssumeEfficiencyPercent) / 100
	}

	p = int64(thermalDerate(cfg, tempC, int32(p)))

	if vpackMV <= 0 {
		return int32(p), 0
	}
	// I_chg_mA = P(mW) / V_pack(V) = P * 1000 / V_pack(mV).
	i := p * 1000 / int64(vpackMV)
	i = clamp64(i, 0, int64(cfg.MaxChargeCurrentMA))

	return int32(p), int32(i)
}

// thermalDerate applies the one-sided thermal scalar: no derate at or
// below the throttle temperature; above it, s = 1 - (0.0333*T - 1.66),
// clamped to [0,1], multiplied into p.
func thermalDerate(cfg config.Config, tempC int32, p int32) int32 {
	if tempC <= cfg.TThrottleC {
		return p
	}
	s := 1 - (0.0333*float64(tempC) - 1.66)
	s = mathx.Clamp(s, 0.0, 1.0)
	return int32(float64(p) * s)
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
