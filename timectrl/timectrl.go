// Package timectrl drives the simulation loop at a fixed tick, either in
// lockstep with wall-clock time or as fast as the host can run.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is a read-only view of simulation time. Systems that need a
// time base depend on this abstraction rather than the concrete
// controller, which keeps them testable.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances in lockstep with wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still
	// stepping by Tick.
	Accelerated
)

// Listener is invoked once per tick with the new simulation time and the
// tick length in seconds.
type Listener func(simTime time.Time, dtSec float64)

// TimeController steps simulation time and notifies registered listeners.
// It implements SimClock.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time

	listeners []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// AddListener registers a callback invoked on every tick. Listeners must
// be registered before Run starts.
func (tc *TimeController) AddListener(fn Listener) {
	tc.listeners = append(tc.listeners, fn)
}

// Run steps the simulation until the given sim-time duration has elapsed
// or ctx is cancelled. A non-positive duration runs until cancellation.
// Run blocks; callers wanting a background loop wrap it in a goroutine.
func (tc *TimeController) Run(ctx context.Context, duration time.Duration) error {
	tc.mu.Lock()
	simTime := tc.StartTime
	tc.currentTime = simTime
	tc.mu.Unlock()

	dtSec := tc.Tick.Seconds()
	elapsed := time.Duration(0)

	var ticker *time.Ticker
	if tc.Mode == RealTime {
		ticker = time.NewTicker(tc.Tick)
		defer ticker.Stop()
	}

	for {
		if duration > 0 && elapsed >= duration {
			return nil
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		simTime = simTime.Add(tc.Tick)
		elapsed += tc.Tick

		tc.mu.Lock()
		tc.currentTime = simTime
		tc.mu.Unlock()

		for _, fn := range tc.listeners {
			fn(simTime, dtSec)
		}
	}
}
