package battery

import "testing"

func TestBalancingEntersAndStaysOnUntilHysteresis(t *testing.T) {
	mon, analog, _, _ := newTestMonitor()
	mon.cfg.EnableBalancing = true
	analog.Cell = [4]int32{3700, 3700, 3700, 0}
	analog.Tap2S = 3700
	analog.Tap3S = 3700
	analog.Tap4S = 0

	// Delta well above CellDeltaVEnableMV with XT60 disconnected (scalar=1).
	analog.Cell[0] = 3700 + mon.cfg.CellDeltaVEnableMV + 10
	mon.Step()
	if !mon.Snapshot().BalancingEnabled {
		t.Fatal("balancing did not enter ON with delta above the enable threshold")
	}

	// Narrow the delta to just above hysteresis but below enable: must stay ON.
	analog.Cell[0] = 3700 + mon.cfg.CellBalancingHysteresisMV + 1
	mon.Step()
	if !mon.Snapshot().BalancingEnabled {
		t.Fatal("balancing toggled OFF while delta still above hysteresis floor")
	}

	// Drop below hysteresis: must turn OFF.
	analog.Cell[0] = 3700
	mon.Step()
	if mon.Snapshot().BalancingEnabled {
		t.Fatal("balancing stayed ON below the hysteresis threshold")
	}
}

func TestBalancingGatedOffByFault(t *testing.T) {
	mon, analog, _, reg := newTestMonitor()
	analog.Cell = [4]int32{3700, 3700 + mon.cfg.CellDeltaVEnableMV + 50, 3700, 0}
	analog.Tap2S = analog.Cell[1]
	analog.Tap3S = 3700
	analog.Tap4S = 0

	reg.Set(0) // RegulatorCommunicationError, arbitrary fault to gate balancing off
	mon.Step()
	if mon.Snapshot().BalancingEnabled {
		t.Fatal("balancing enabled despite an active fault")
	}
}
