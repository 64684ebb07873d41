// Copyright 2026 The go-lattice Authors. SPDX-License-Identifier: Apache-2.0

// Package profile records named intervals of a stencil application, such as
// packing, interior compute and the wait on each halo.
package profile

import (
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Interval names used by the engine.
const (
	Total    = "total"
	Pack     = "pack"
	Comms    = "comms"
	Unpack   = "unpack"
	Interior = "interior"
	Exterior = "exterior"
	Dslash5  = "dslash5"
	Local    = "local"
)

// Profile receives the start and end of named intervals. Intervals of
// different names may nest or overlap; an interval of one name must be
// stopped before it is started again.
type Profile interface {
	Start(name string)
	Stop(name string)
}

// Nop discards every interval.
type Nop struct{}

func (Nop) Start(string) {}
func (Nop) Stop(string)  {}

// OrNop returns p, or Nop when p is nil.
func OrNop(p Profile) Profile {
	if p == nil {
		return Nop{}
	}
	return p
}

// Multi forwards every interval to each of its members.
type Multi []Profile

func (m Multi) Start(name string) {
	for _, p := range m {
		p.Start(name)
	}
}

func (m Multi) Stop(name string) {
	for _, p := range m {
		p.Stop(name)
	}
}

// Timer accumulates wall time per interval name. It is safe for concurrent
// use.
type Timer struct {
	mu    sync.Mutex
	now   func() time.Time
	open  map[string]time.Time
	total map[string]time.Duration
	count map[string]int
}

// NewTimer returns an empty Timer.
func NewTimer() *Timer {
	return &Timer{
		now:   time.Now,
		open:  make(map[string]time.Time),
		total: make(map[string]time.Duration),
		count: make(map[string]int),
	}
}

func (t *Timer) Start(name string) {
	t.mu.Lock()
	t.open[name] = t.now()
	t.mu.Unlock()
}

// Stop closes the interval. Stopping a name that was never started is
// ignored.
func (t *Timer) Stop(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.open[name]
	if !ok {
		return
	}
	delete(t.open, name)
	t.total[name] += t.now().Sub(start)
	t.count[name]++
}

// Total returns the accumulated time of name.
func (t *Timer) Total(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total[name]
}

// Count returns how many intervals of name have completed.
func (t *Timer) Count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count[name]
}

// Names returns the names of completed intervals in sorted order.
func (t *Timer) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := lo.Keys(t.count)
	slices.Sort(names)
	return names
}

// Reset discards every recorded interval.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.open)
	clear(t.total)
	clear(t.count)
}
