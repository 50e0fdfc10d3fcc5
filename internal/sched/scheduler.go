// Package sched implements the scheduler harness: two cooperative
// periodic tasks driven on independent tickers, plus the cooperative
// tick clock the driver and controller block on for bounded waits.
package sched

import (
	"context"
	"time"

	"bq25703a-charger/x/timex"
)

// nominalTaskHz is the battery monitor's and regulator controller's shared
// nominal loop frequency (4 Hz, i.e. 250ms).
const nominalTaskHz = 4

// TickPeriod is the scheduler's nominal cooperative-tick period.
const TickPeriod = time.Millisecond

// Clock implements collab.Scheduler against the real wall clock.
type Clock struct{}

// DelayTicks blocks for n ticks of TickPeriod.
func (Clock) DelayTicks(n int) {
	if n <= 0 {
		return
	}
	time.Sleep(time.Duration(n) * TickPeriod)
}

// Scheduler drives the battery monitor and regulator controller as two
// independent periodic tasks; each yields only at its own tick boundary
// and never preempts the other.
type Scheduler struct {
	MonitorPeriod    time.Duration
	ControllerPeriod time.Duration
}

// New returns a Scheduler at both loops' nominal 250ms (4Hz) period.
func New() *Scheduler {
	period := time.Duration(timex.PeriodFromHz(nominalTaskHz))
	return &Scheduler{
		MonitorPeriod:    period,
		ControllerPeriod: period,
	}
}

// Run blocks, invoking monitorStep and controllerStep on their own
// tickers until ctx is cancelled. The two never run concurrently with
// each other inside this loop.
func (s *Scheduler) Run(ctx context.Context, monitorStep, controllerStep func()) {
	monTick := time.NewTicker(s.MonitorPeriod)
	defer monTick.Stop()
	ctrlTick := time.NewTicker(s.ControllerPeriod)
	defer ctrlTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-monTick.C:
			monitorStep()
		case <-ctrlTick.C:
			controllerStep()
		}
	}
}
