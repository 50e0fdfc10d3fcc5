// Package collab declares the external collaborators the charger core
// depends on: the analog front end, the USB-PD negotiator, the two-wire
// serial bus transport, discrete GPIO lines, and the cooperative
// scheduler clock. Concrete implementations live outside this module in the
// surrounding firmware; sim.go provides host-side fakes for tests.
package collab

import "errors"

// Bus transfer failures. The driver layer retries on ErrBusBusy until its
// timeout budget expires, then reports errcode.BusTimeout.
var (
	ErrBusBusy    = errors.New("collab: bus nak/busy")
	ErrBusTimeout = errors.New("collab: bus timeout")
)

// TwoWireBus is the two-wire serial transport the regulator sits on.
// Shaped to match tinygo.org/x/drivers.I2C's Tx method so a real I2C bus
// driver satisfies it directly.
type TwoWireBus interface {
	Tx(addr uint16, w, r []byte) error
}

// PDReadiness reports whether the negotiated input power is usable.
type PDReadiness uint8

const (
	PDReady PDReadiness = iota
	PDNotReady
	PDNoSupply
)

// USBPD is the negotiated-power collaborator. Negotiation itself happens
// elsewhere in the firmware; only its outcome is consumed here.
type USBPD interface {
	InputPowerReady() PDReadiness
	MaxInputCurrentMA() int32
	MaxInputPowerMW() int32
}

// AnalogSampler exposes the board's analog front end.
type AnalogSampler interface {
	PackVoltageMV() int32
	CellVoltageMV(cell int) int32 // cell in 0..3
	TapVoltage2SMV() int32
	TapVoltage3SMV() int32
	TapVoltage4SMV() int32
	ControllerTemperatureC() int32
}

// GPIO drives the discrete control lines the board exposes. Writes are
// treated as infallible register pokes.
type GPIO interface {
	SetILimHiZ(on bool)
	SetENOTG(on bool)
	SetFanEN(on bool) // active-low internally; callers pass the logical "on"
	SetCellDischarge(cell int, on bool)
	ReadChargeOK() bool
}

// Scheduler is the cooperative tick clock. DelayTicks yields for n ticks
// of the scheduler's nominal 1ms period; it is the only suspension
// primitive either loop uses outside the bus lease.
type Scheduler interface {
	DelayTicks(n int)
}
