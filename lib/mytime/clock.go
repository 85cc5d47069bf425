package mytime

import "github.com/jonboulle/clockwork"

func NewRealClock() Clock {
	return clockwork.NewRealClock()
}
