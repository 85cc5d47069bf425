package mytime

import (
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	ExampleTime time.Time
)

func init() {
	ExampleTime, _ = time.Parse("2006-01-02T15:04:05Z", "2023-02-27T23:58:59Z")
}

//go:generate mockgen -source=api.go -package mytime -destination nower_mock.go Nower
type Nower interface {
	Now() time.Time
}

type Ticker = clockwork.Ticker

// Clock is a Nower that can also produce tickers, so that periodic work can run on virtual time in tests.
type Clock interface {
	Nower
	NewTicker(interval time.Duration) Ticker
}
