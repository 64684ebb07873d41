// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

package overlap

import (
	"fmt"
	"sync"

	"github.com/ajroetker/go-lattice/lattice"
)

// Record is one observed event.
type Record struct {
	Event Event
	Dim   int
	Dir   lattice.Direction
}

func (r Record) String() string {
	if r.Dim < 0 {
		return r.Event.String()
	}
	return fmt.Sprintf("%v(%d,%v)", r.Event, r.Dim, r.Dir)
}

// Tracker records the events of a call and checks that every ghost went
// through arrival, unpack and exterior compute in that order. Its Observe
// method is an Observer.
type Tracker struct {
	mu      sync.Mutex
	records []Record
	recv    [lattice.NDim][2]Event
	started [lattice.NDim][2]bool
	err     error
}

// Observe records ev.
func (t *Tracker) Observe(ev Event, dim int, dir lattice.Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, Record{ev, dim, dir})
	switch ev {
	case Arrived, Unpacked, ExteriorDone:
	default:
		return
	}
	var want Event
	switch ev {
	case Unpacked:
		want = Arrived
	case ExteriorDone:
		want = Unpacked
	}
	prevOK := ev == Arrived && !t.started[dim][dir] ||
		ev != Arrived && t.started[dim][dir] && t.recv[dim][dir] == want
	if !prevOK && t.err == nil {
		t.err = fmt.Errorf("ghost (%d,%v): %v out of order after %v", dim, dir, ev, t.recv[dim][dir])
	}
	t.started[dim][dir] = true
	t.recv[dim][dir] = ev
}

// Records returns a copy of the observed events in order.
func (t *Tracker) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Record(nil), t.records...)
}

// State returns the last receive-side event of a ghost and whether any was
// observed.
func (t *Tracker) State(dim int, dir lattice.Direction) (Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recv[dim][dir], t.started[dim][dir]
}

// Err returns the first ordering violation, or nil.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Reset forgets every event.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
	t.recv = [lattice.NDim][2]Event{}
	t.started = [lattice.NDim][2]bool{}
	t.err = nil
}
