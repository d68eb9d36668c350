package feeder

import (
	"time"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// State is the feeder's view of the broker connection.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// CycleReport summarizes one fetch-merge-publish pass.
type CycleReport struct {
	ID            string
	Batches       int
	FailedBatches int
	Priced        int // instruments with a valid price this cycle
	Published     int
	Skipped       int // priced but not published (disconnected or publish failed)
	Connected     bool
	Duration      time.Duration
	Panicked      bool
}
