package bq25703a

import (
	"bq25703a-charger/collab"
	"bq25703a-charger/internal/buslease"
	"bq25703a-charger/internal/faults"
	"bq25703a-charger/x/mathx"
)

// Connectivity is the result of identify().
type Connectivity uint8

const (
	NotConnected Connectivity = iota
	Connected
)

// Device is the only code in this repo that speaks the BQ25703A-class
// register protocol.
type Device struct {
	xport *transport
	gpio  collab.GPIO
	faint *faults.Registry
}

// New builds a Device bound to addr on bus, serialized through lease and
// reporting transport failures into reg.
func New(bus collab.TwoWireBus, lease *buslease.Lease, reg *faults.Registry, gpio collab.GPIO, addr uint16) *Device {
	return &Device{
		xport: newTransport(bus, lease, reg, addr),
		gpio:  gpio,
		faint: reg,
	}
}

// Identify reads manufacturer and device ID; a mismatch or bus failure
// raises RegulatorCommunicationError and reports NotConnected, a match
// clears the fault and reports Connected.
func (d *Device) Identify() Connectivity {
	mfr, err := d.xport.readByte(regManufacturerID)
	if err != nil {
		d.faint.Set(faults.RegulatorCommunicationError)
		return NotConnected
	}
	dev, err := d.xport.readByte(regDeviceID)
	if err != nil {
		d.faint.Set(faults.RegulatorCommunicationError)
		return NotConnected
	}
	if mfr != manufacturerIDValue || dev != deviceIDValue {
		d.faint.Set(faults.RegulatorCommunicationError)
		return NotConnected
	}
	d.faint.Clear(faults.RegulatorCommunicationError)
	return Connected
}

// WriteChargeOption0 writes the fixed operating-mode bitfield (startup
// only; the core never varies it after boot).
func (d *Device) WriteChargeOption0() error {
	return d.xport.writeWord(regChargeOption0, chargeOption0LSB, chargeOption0MSB)
}

// ConfigureADC writes the ADC enable mask.
func (d *Device) ConfigureADC() error {
	lo, hi := EncodeADCOption(adcEnableAllMask, false, false)
	return d.xport.writeWord(regADCOption, lo, hi)
}

// SampleADC starts a one-shot conversion, polls the start-conversion bit
// via sched until it clears (bounded by maxADCPolls 80ms waits), then
// reads the five sample registers. On poll exhaustion it still reads
// whatever is latched rather than failing the whole sample.
func (d *Device) SampleADC(sched collab.Scheduler) (Snapshot, error) {
	lo, hi := EncodeADCOption(adcEnableAllMask, true, true)
	if err := d.xport.writeWord(regADCOption, lo, hi); err != nil {
		return Snapshot{}, err
	}

	for i := 0; i < maxADCPolls; i++ {
		sched.DelayTicks(adcPollWaitTicks)
		_, hi, err := d.xport.readWord(regADCOption)
		if err != nil {
			return Snapshot{}, err
		}
		if !adcConversionStarted(hi) {
			break
		}
	}

	vbus, err := d.xport.readByte(regVBUSADC)
	if err != nil {
		return Snapshot{}, err
	}
	vbat, err := d.xport.readByte(regVBATADC)
	if err != nil {
		return Snapshot{}, err
	}
	vsys, err := d.xport.readByte(regVSYSADC)
	if err != nil {
		return Snapshot{}, err
	}
	ichg, err := d.xport.readByte(regICHGADC)
	if err != nil {
		return Snapshot{}, err
	}
	iin, err := d.xport.readByte(regIINADC)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		VBUSmV: decodeVBUS(vbus),
		VBATmV: decodeVBAT(vbat),
		VSYSmV: decodeVSYS(vsys),
		ICHGmA: decodeICHG(ichg),
		IINmA:  decodeIIN(iin),
	}, nil
}

// ChargingActive reads ChargeStatus and reports whether the device is
// actively charging.
func (d *Device) ChargingActive() (bool, error) {
	_, hi, err := d.xport.readWord(regChargeStatus)
	if err != nil {
		return false, err
	}
	return chargingActive(hi), nil
}

// SetChargeVoltage writes MinimumSystemVoltage and MaxChargeVoltage for
// cells; cells=0 writes zeros, disabling. An out-of-range cells value is
// treated as 0 (disable) rather than encoded.
func (d *Device) SetChargeVoltage(cells int) error {
	if !ValidCellCount(cells) {
		cells = 0
	}
	if err := d.xport.writeByte(regMinSysVoltage, EncodeMinSysVoltage(cells)); err != nil {
		return err
	}
	lo, hi := EncodeChargeVoltage(cells)
	return d.xport.writeWord(regMaxChargeVoltage, lo, hi)
}

// SetChargeCurrent clamps mA to the device ceiling and writes it.
func (d *Device) SetChargeCurrent(mA int32) error {
	mA = mathx.Clamp(mA, 0, HardChargeCurrentCeilingMA)
	lo, hi := EncodeChargeCurrent(mA)
	return d.xport.writeWord(regChargeCurrent, lo, hi)
}

// HiZ drives the high-impedance control line and, inversely, the
// auxiliary fan-enable line: fan on when output is enabled.
func (d *Device) HiZ(on bool) {
	d.gpio.SetILimHiZ(on)
	d.gpio.SetFanEN(!on)
}

// OTG drives the OTG-enable line; never asserted during normal charging.
func (d *Device) OTG(on bool) {
	d.gpio.SetENOTG(on)
}
