// Package bq25703a implements the register codec and low-level driver for
// a BQ25703A-class buck-boost charge regulator on a two-wire serial bus:
// register address map, bitfield layout, and the little-endian word
// read/write pair the chip's register set is built from.
package bq25703a

// -----------------------------------------------------------------------------
// Register addresses
// -----------------------------------------------------------------------------

const (
	regChargeOption0    = 0x00
	regChargeCurrent    = 0x02
	regMaxChargeVoltage = 0x04
	regMinSysVoltage    = 0x0D
	regVBUSADC          = 0x27
	regADCOption        = 0x3A
	regChargeStatus     = 0x20
	regManufacturerID   = 0x2E
	regDeviceID         = 0x2F
	regICHGADC          = 0x2A
	regIINADC           = 0x2B
	regVBATADC          = 0x2C
	regVSYSADC          = 0x2D
)

// Constant device identity bytes, read back by identify() to confirm the
// part on the bus is actually a BQ25703A-class regulator and not some
// other device sharing the address.
const (
	manufacturerIDValue = 0x40
	deviceIDValue       = 0x78
)

// ChargeOption0 is a fixed operating-mode bitfield written once at boot;
// the core never varies it afterward.
const (
	chargeOption0LSB = 0x0E
	chargeOption0MSB = 0x26
)

// ChargeCurrent encoding: v in [0,128] encodes 64*v mA.
const (
	chargeCurrentLSBmA  = 64
	chargeCurrentMaxCnt = 128
	// HardChargeCurrentCeilingMA is the largest current the 7-bit code
	// can represent.
	HardChargeCurrentCeilingMA = chargeCurrentLSBmA * chargeCurrentMaxCnt
)

// MaxChargeVoltage / MinimumSystemVoltage: cell-count-indexed nominal
// targets, 8mV/LSB for the 2-byte charge-voltage register and 100mV/LSB
// with a 1024mV offset for the 1-byte minimum-system-voltage register
// (standard BQ257xx scaling).
const (
	chargeVoltageLSBmV = 8
	minSysLSBmV        = 100
	minSysOffsetMV     = 1024
	minSysMaxCode      = 127
)

// nominalPackMV returns the approximate target pack voltage for a cell
// count (1s 4.192V, 2s 8.400V, 3s 12.592V, 4s 16.800V).
func nominalPackMV(cells int) int32 {
	switch cells {
	case 1:
		return 4192
	case 2:
		return 8400
	case 3:
		return 12592
	case 4:
		return 16800
	default:
		return 0
	}
}

// ADC result registers: single-byte readings with per-field scale/offset.
const (
	vbatLSBmV    = 64
	vbatOffsetMV = 2880
	vsysLSBmV    = 64
	vsysOffsetMV = 2880
	vbusLSBmV    = 64
	vbusOffsetMV = 3200
	ichgLSBmA    = 64
	iinLSBmA     = 50
)

// ADCOption bitfield: enable mask in the LSB, start-conversion bit
// (bit 6) and one-shot mode bit in the MSB.
const (
	adcStartConversionBit byte = 1 << 6
	adcOneShotBit         byte = 1 << 5
	adcEnableAllMask      byte = 0xFF
)

// ChargeStatus bitfield: MSB top bit denotes "charging active".
const chargeStatusActiveBit byte = 1 << 7

// ADCOption poll budget: a one-shot conversion typically clears its
// start-conversion bit within a couple of 80ms waits; maxADCPolls bounds
// how many of those waits the sampler spends before giving up and reading
// whatever is latched.
const (
	adcPollWaitTicks = 80 // ticks at the scheduler's 1ms nominal period
	maxADCPolls      = 5
)
