package collab

import "sync"

// SimBus is an in-memory register-backed fake of a BQ25703A-class device
// for host tests. Writes are w[0]=register, followed by payload bytes;
// reads copy from the register file starting at w[0].
type SimBus struct {
	mu    sync.Mutex
	Regs  map[byte][]byte
	Busy  int // number of Tx calls to fail with ErrBusBusy before succeeding
	Addr  uint16
	Fail  bool // force ErrBusTimeout unconditionally
}

func NewSimBus(addr uint16) *SimBus {
	return &SimBus{Regs: map[byte][]byte{}, Addr: addr}
}

func (b *SimBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Fail {
		return ErrBusTimeout
	}
	if b.Busy > 0 {
		b.Busy--
		return ErrBusBusy
	}
	if addr != b.Addr || len(w) == 0 {
		return ErrBusTimeout
	}
	reg := w[0]
	if len(r) == 0 {
		// Write: remaining bytes of w are the payload.
		payload := append([]byte(nil), w[1:]...)
		b.Regs[reg] = payload
		return nil
	}
	stored := b.Regs[reg]
	for i := range r {
		if i < len(stored) {
			r[i] = stored[i]
		} else {
			r[i] = 0
		}
	}
	return nil
}

// SimGPIO is a recording fake of the discrete control lines.
type SimGPIO struct {
	HiZ       bool
	OTG       bool
	FanOn     bool
	Discharge [4]bool
	ChargeOK  bool
}

func NewSimGPIO() *SimGPIO { return &SimGPIO{} }

func (g *SimGPIO) SetILimHiZ(on bool) { g.HiZ = on }
func (g *SimGPIO) SetENOTG(on bool)   { g.OTG = on }
func (g *SimGPIO) SetFanEN(on bool)   { g.FanOn = on }
func (g *SimGPIO) SetCellDischarge(cell int, on bool) {
	if cell >= 0 && cell < len(g.Discharge) {
		g.Discharge[cell] = on
	}
}
func (g *SimGPIO) ReadChargeOK() bool { return g.ChargeOK }

// SimAnalog is a settable fake analog front end.
type SimAnalog struct {
	Pack    int32
	Cell    [4]int32
	Tap2S   int32
	Tap3S   int32
	Tap4S   int32
	TempC   int32
}

func (a *SimAnalog) PackVoltageMV() int32         { return a.Pack }
func (a *SimAnalog) CellVoltageMV(cell int) int32 {
	if cell < 0 || cell >= len(a.Cell) {
		return 0
	}
	return a.Cell[cell]
}
func (a *SimAnalog) TapVoltage2SMV() int32        { return a.Tap2S }
func (a *SimAnalog) TapVoltage3SMV() int32        { return a.Tap3S }
func (a *SimAnalog) TapVoltage4SMV() int32        { return a.Tap4S }
func (a *SimAnalog) ControllerTemperatureC() int32 { return a.TempC }

// SimUSBPD is a settable fake PD negotiation outcome.
type SimUSBPD struct {
	Readiness    PDReadiness
	MaxCurrentMA int32
	MaxPowerMW   int32
}

func (p *SimUSBPD) InputPowerReady() PDReadiness { return p.Readiness }
func (p *SimUSBPD) MaxInputCurrentMA() int32     { return p.MaxCurrentMA }
func (p *SimUSBPD) MaxInputPowerMW() int32        { return p.MaxPowerMW }

// SimScheduler is a virtual cooperative clock: it counts ticks instead of
// sleeping, so tests run instantly while still exercising tick-counted
// control flow (UVP attempt/tick budgets, ADC poll bounds).
type SimScheduler struct {
	Ticks int
}

func (s *SimScheduler) DelayTicks(n int) { s.Ticks += n }
