package mytime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// FakeClock only moves when Advance is called. On top of clockwork it keeps count of the tickers that are still running.
type FakeClock struct {
	*clockwork.FakeClock
	running atomic.Int64
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{
		FakeClock: clockwork.NewFakeClockAt(start),
	}
}

func (c *FakeClock) NewTicker(interval time.Duration) Ticker {
	c.running.Add(1)
	return &countedTicker{
		Ticker: c.FakeClock.NewTicker(interval),
		clock:  c,
	}
}

// ActiveTickers returns the number of tickers that have not been stopped.
func (c *FakeClock) ActiveTickers() int {
	return int(c.running.Load())
}

type countedTicker struct {
	Ticker
	clock *FakeClock
	once  sync.Once
}

func (t *countedTicker) Stop() {
	t.Ticker.Stop()
	t.once.Do(func() {
		t.clock.running.Add(-1)
	})
}
