// cmd/charger/main.go
package main

import (
	"context"
	"time"

	"bq25703a-charger/collab"
	"bq25703a-charger/config"
	"bq25703a-charger/drivers/bq25703a"
	"bq25703a-charger/internal/battery"
	"bq25703a-charger/internal/buslease"
	"bq25703a-charger/internal/charger"
	"bq25703a-charger/internal/faults"
	"bq25703a-charger/internal/sched"
	"bq25703a-charger/telemetry"
)

// regulatorAddr is the BQ25703A-class device's fixed bus address.
const regulatorAddr = 0x6B

func main() {
	// Allow board to settle (USB, clocks, etc.).
	time.Sleep(3 * time.Second)
	ctx := context.Background()

	println("[main] loading configuration …")
	cfg := config.Default()

	println("[main] bootstrapping telemetry bus …")
	b := telemetry.NewBus(4)
	chargerConn := b.NewConnection("charger")

	println("[main] wiring collaborators …")
	bus := boardBus()
	gpio := boardGPIO()
	analog := boardAnalog()
	pd := boardUSBPD()
	clock := sched.Clock{}

	reg := faults.NewRegistry()
	lease := buslease.New()

	println("[main] constructing regulator driver …")
	device := bq25703a.New(bus, lease, reg, gpio, regulatorAddr)

	println("[main] constructing battery monitor and regulator controller …")
	monitor := battery.NewMonitor(cfg, analog, gpio, reg)
	controller := charger.NewController(cfg, device, gpio, pd, analog, clock, monitor, reg)

	println("[main] starting up regulator (identify, configure ADC) …")
	controller.Startup()

	println("[main] publishing initial retained state …")
	chargerConn.Publish(chargerConn.NewMessage(telemetry.BatteryStateTopic(), monitor.Snapshot(), true))
	chargerConn.Publish(chargerConn.NewMessage(telemetry.ChargerStateTopic(), controller.Snapshot(), true))

	runner := sched.New()

	println("[main] entering scheduler loop …")
	runner.Run(ctx,
		func() {
			monitor.Step()
			chargerConn.Publish(chargerConn.NewMessage(telemetry.BatteryStateTopic(), monitor.Snapshot(), true))
			for _, f := range setFaults(reg) {
				chargerConn.Publish(chargerConn.NewMessage(telemetry.FaultTopic(f.String()), f, false))
			}
		},
		func() {
			controller.Step()
			chargerConn.Publish(chargerConn.NewMessage(telemetry.ChargerStateTopic(), controller.Snapshot(), true))
		},
	)
}

// setFaults returns every currently-set fault kind, for telemetry
// publication on each Battery Monitor cycle.
func setFaults(reg *faults.Registry) []faults.Kind {
	var out []faults.Kind
	for k := faults.Kind(0); int(k) < faults.NumKinds(); k++ {
		if reg.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// The board-level collaborator constructors below are the seam where
// this core's host firmware plugs in the real I2C bus, GPIO lines, ADC
// channels, and PD negotiator. This module ships host-side fakes
// (collab.Sim*) so cmd/charger builds and runs stand-alone; a real board
// target replaces these four functions with machine-package drivers.

func boardBus() collab.TwoWireBus { return collab.NewSimBus(regulatorAddr) }
func boardGPIO() collab.GPIO      { return collab.NewSimGPIO() }
func boardAnalog() collab.AnalogSampler {
	return &collab.SimAnalog{}
}
func boardUSBPD() collab.USBPD {
	return &collab.SimUSBPD{Readiness: collab.PDReady, MaxCurrentMA: 3000, MaxPowerMW: 60000}
}
