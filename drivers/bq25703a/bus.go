package bq25703a

import (
	"time"

	"bq25703a-charger/collab"
	"bq25703a-charger/errcode"
	"bq25703a-charger/internal/buslease"
	"bq25703a-charger/internal/faults"
)

// busTimeout bounds the bus-lease wait and, separately, the retry-on-NAK
// window that starts once the lease is held: a register transfer waits at
// most this long for the bus and then at most this long again to complete,
// before the driver gives up and reports the regulator unreachable.
const busTimeout = 300 * time.Millisecond

// transport serializes register transfers over the shared two-wire bus
// under the process-wide lease, retrying while the device NAKs and
// raising RegulatorCommunicationError on timeout.
type transport struct {
	bus   collab.TwoWireBus
	lease *buslease.Lease
	reg   *faults.Registry
	addr  uint16
}

func newTransport(bus collab.TwoWireBus, lease *buslease.Lease, reg *faults.Registry, addr uint16) *transport {
	return &transport{bus: bus, lease: lease, reg: reg, addr: addr}
}

// doTx runs fn (a single Tx call) under the bus lease, retrying on
// ErrBusBusy until busTimeout elapses. Every exit path releases the lease
// and, on failure, raises RegulatorCommunicationError.
func (t *transport) doTx(fn func() error) error {
	if !t.lease.Acquire(busTimeout) {
		t.reg.Set(faults.RegulatorCommunicationError)
		return errcode.MapDriverErr(collab.ErrBusTimeout)
	}
	defer t.lease.Release()

	deadline := time.Now().Add(busTimeout)
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if err != collab.ErrBusBusy {
			t.reg.Set(faults.RegulatorCommunicationError)
			return errcode.MapDriverErr(err)
		}
		if time.Now().After(deadline) {
			t.reg.Set(faults.RegulatorCommunicationError)
			return errcode.MapDriverErr(collab.ErrBusTimeout)
		}
	}
}

func (t *transport) readByte(reg byte) (byte, error) {
	var out [1]byte
	err := t.doTx(func() error {
		return t.bus.Tx(t.addr, []byte{reg}, out[:])
	})
	return out[0], err
}

func (t *transport) readWord(reg byte) (lo, hi byte, err error) {
	var out [2]byte
	err = t.doTx(func() error {
		return t.bus.Tx(t.addr, []byte{reg}, out[:])
	})
	return out[0], out[1], err
}

func (t *transport) writeByte(reg, v byte) error {
	return t.doTx(func() error {
		return t.bus.Tx(t.addr, []byte{reg, v}, nil)
	})
}

func (t *transport) writeWord(reg, lo, hi byte) error {
	return t.doTx(func() error {
		return t.bus.Tx(t.addr, []byte{reg, lo, hi}, nil)
	})
}
