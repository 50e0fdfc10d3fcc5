package charger

import (
	"testing"

	"bq25703a-charger/collab"
	"bq25703a-charger/config"
)

// 3S pack, nominal charge. VBUS=20V, PD 20V/3A, T=25C: power ~= 20*3*0.9
// = 54W, current ~= 54000/10800 ~= 5000mA.
func TestChargeEnvelopeNominal(t *testing.T) {
	cfg := config.Default()
	pd := &collab.SimUSBPD{Readiness: collab.PDReady, MaxCurrentMA: 3000, MaxPowerMW: 60000}

	powerMW, currentMA := chargeEnvelope(cfg, pd, 20000, 10800, 25)

	if powerMW != 54000 {
		t.Fatalf("powerMW = %d, want 54000", powerMW)
	}
	if currentMA < 4900 || currentMA > 5100 {
		t.Fatalf("currentMA = %d, want ~5000", currentMA)
	}
}

func TestChargeEnvelopeClampsToConfiguredCeilings(t *testing.T) {
	cfg := config.Default()
	cfg.MaxChargingPowerMW = 10000
	cfg.MaxChargeCurrentMA = 500
	pd := &collab.SimUSBPD{Readiness: collab.PDReady, MaxCurrentMA: 3000, MaxPowerMW: 60000}

	powerMW, currentMA := chargeEnvelope(cfg, pd, 20000, 10800, 25)

	if powerMW != 10000 {
		t.Fatalf("powerMW = %d, want clamped to 10000", powerMW)
	}
	if currentMA != 500 {
		t.Fatalf("currentMA = %d, want clamped to 500", currentMA)
	}
}

func TestChargeEnvelopeClampedByPDAdvertisedPower(t *testing.T) {
	cfg := config.Default()
	pd := &collab.SimUSBPD{Readiness: collab.PDReady, MaxCurrentMA: 5000, MaxPowerMW: 20000}

	powerMW, _ := chargeEnvelope(cfg, pd, 20000, 10800, 25)

	// P_IN_MAX * eta = 20000 * 0.9 = 18000.
	if powerMW != 18000 {
		t.Fatalf("powerMW = %d, want 18000 (PD-advertised ceiling)", powerMW)
	}
}

func TestThermalDerateWorkedExamples(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		tempC int32
		want  int32
	}{
		{35, 1000}, // s clamps to 1
		{45, 1000}, // s clamps to 1
		{55, 828},  // s = 0.828
		{80, 0},    // s clamps to 0
	}
	for _, c := range cases {
		got := thermalDerate(cfg, c.tempC, 1000)
		if diff := got - c.want; diff < -2 || diff > 2 {
			t.Fatalf("thermalDerate(%dC) = %d, want ~%d", c.tempC, got, c.want)
		}
	}
}

func TestThermalDerateNoopAtOrBelowThrottle(t *testing.T) {
	cfg := config.Default()
	if got := thermalDerate(cfg, cfg.TThrottleC, 5000); got != 5000 {
		t.Fatalf("thermalDerate at T_THROTTLE = %d, want unchanged 5000", got)
	}
}
