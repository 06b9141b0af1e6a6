// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package vtime implements the shared virtual clock of a simulation and the one-shot countdown
// timers scheduled against it. Time is kept in nanoseconds; a timer counts ticks of its own
// frequency and calls its callback once when the tick count reaches its limit.
package vtime

import (
	"container/heap"
	"math"
	"math/bits"
	"sync"

	"github.com/openthread/ot-radiocore/logger"
)

const nsPerSecond = 1000000000

// TimerFactory creates timers. The radio core obtains all of its timers through a factory, so
// that the owner can wrap the callbacks (e.g. with its critical section).
type TimerFactory interface {
	NewTimer(name string, frequency uint64, onLimitReached func()) *OneShotTimer
}

type timerQueue []*OneShotTimer

func (tq timerQueue) Len() int {
	return len(tq)
}

func (tq timerQueue) Less(i, j int) bool {
	if tq[i].deadline == tq[j].deadline {
		return tq[i].seq < tq[j].seq
	}
	return tq[i].deadline < tq[j].deadline
}

func (tq timerQueue) Swap(i, j int) {
	a, b := tq[i], tq[j]
	if a.index != i && b.index != j {
		logger.Panicf("wrong index")
	}

	tq[i], tq[j] = b, a
	tq[i].index, tq[j].index = i, j
}

func (tq *timerQueue) Push(x interface{}) {
	e := x.(*OneShotTimer)
	*tq = append(*tq, e)
	e.index = len(*tq) - 1
}

func (tq *timerQueue) Pop() (elem interface{}) {
	n := len(*tq)
	e := (*tq)[n-1]
	*tq = (*tq)[:n-1]
	e.index = -1
	return e
}

// Clock is the virtual clock shared by all nodes of a simulation.
type Clock struct {
	mu  sync.Mutex
	now uint64
	q   timerQueue
	seq uint64
}

func NewClock() *Clock {
	c := &Clock{
		q: timerQueue{},
	}
	heap.Init(&c.q)
	return c
}

// Now returns the current virtual time in ns.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTimer creates a disabled timer counting at the given frequency (Hz).
func (c *Clock) NewTimer(name string, frequency uint64, onLimitReached func()) *OneShotTimer {
	logger.AssertTrue(frequency > 0 && frequency <= nsPerSecond)
	return &OneShotTimer{
		clock:          c,
		name:           name,
		frequency:      frequency,
		index:          -1,
		onLimitReached: onLimitReached,
	}
}

// AfterFunc calls f once, delayNs from now.
func (c *Clock) AfterFunc(delayNs uint64, f func()) *OneShotTimer {
	t := c.NewTimer("after", nsPerSecond, f)
	t.SetLimit(delayNs)
	t.SetEnabled(true)
	return t
}

// NextDeadline returns the time of the next timer to fire, or Ever if none is armed.
func (c *Clock) NextDeadline() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.q) == 0 {
		return math.MaxUint64
	}
	return c.q[0].deadline
}

// RunUntil advances the clock to time t (ns), firing every timer due at or before t in deadline
// order. Callbacks run without the clock lock held and may arm further timers, which fire in the
// same call if they are due.
func (c *Clock) RunUntil(t uint64) {
	for c.step(t) {
	}
}

// RunFor advances the clock by d ns.
func (c *Clock) RunFor(d uint64) {
	c.RunUntil(c.Now() + d)
}

// Step fires the next armed timer, advancing time to its deadline. It returns false if no timer
// is armed.
func (c *Clock) Step() bool {
	return c.step(math.MaxUint64)
}

func (c *Clock) step(limit uint64) bool {
	c.mu.Lock()
	if len(c.q) == 0 || c.q[0].deadline > limit {
		if limit != math.MaxUint64 && limit > c.now {
			c.now = limit
		}
		c.mu.Unlock()
		return false
	}
	t := heap.Pop(&c.q).(*OneShotTimer)
	if t.deadline > c.now {
		c.now = t.deadline
	}
	t.enabled = false
	t.baseValue = t.limit
	cb := t.onLimitReached
	c.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}

// OneShotTimer counts up from its value at frequency Hz while enabled. When the value reaches the
// limit, the timer disables itself and calls its callback.
type OneShotTimer struct {
	clock          *Clock
	name           string
	frequency      uint64
	limit          uint64
	enabled        bool
	baseValue      uint64
	baseTime       uint64
	deadline       uint64
	seq            uint64
	index          int
	onLimitReached func()
}

func (t *OneShotTimer) Name() string {
	return t.name
}

func (t *OneShotTimer) Frequency() uint64 {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.frequency
}

// SetFrequency changes the tick frequency; the current value is preserved.
func (t *OneShotTimer) SetFrequency(frequency uint64) {
	logger.AssertTrue(frequency > 0 && frequency <= nsPerSecond)
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.rebase()
	t.frequency = frequency
	t.reschedule()
}

func (t *OneShotTimer) Limit() uint64 {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.limit
}

func (t *OneShotTimer) SetLimit(limit uint64) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.rebase()
	t.limit = limit
	if t.baseValue > limit {
		t.baseValue = limit
	}
	t.reschedule()
}

// Value returns the number of ticks counted so far.
func (t *OneShotTimer) Value() uint64 {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.value()
}

func (t *OneShotTimer) SetValue(value uint64) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if value > t.limit {
		value = t.limit
	}
	t.baseValue = value
	t.baseTime = t.clock.now
	t.reschedule()
}

func (t *OneShotTimer) Enabled() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.enabled
}

// SetEnabled starts or stops counting. Disabling an already disabled timer has no effect. A timer
// enabled with its value at the limit fires at the current time, on the next clock step.
func (t *OneShotTimer) SetEnabled(enabled bool) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if enabled == t.enabled {
		return
	}
	if enabled {
		t.baseTime = t.clock.now
		t.enabled = true
		t.reschedule()
		return
	}
	t.baseValue = t.value()
	t.baseTime = t.clock.now
	t.enabled = false
	if t.index >= 0 {
		heap.Remove(&t.clock.q, t.index)
	}
}

// Restart sets the value to zero and enables the timer with the given limit.
func (t *OneShotTimer) Restart(limit uint64) {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.limit = limit
	t.baseValue = 0
	t.baseTime = t.clock.now
	t.enabled = true
	t.reschedule()
}

func (t *OneShotTimer) value() uint64 {
	if !t.enabled {
		return t.baseValue
	}
	v := t.baseValue + mulDiv(t.clock.now-t.baseTime, t.frequency, nsPerSecond)
	if v > t.limit {
		v = t.limit
	}
	return v
}

func (t *OneShotTimer) rebase() {
	t.baseValue = t.value()
	t.baseTime = t.clock.now
}

func (t *OneShotTimer) reschedule() {
	if !t.enabled {
		return
	}
	remaining := uint64(0)
	if t.limit > t.baseValue {
		remaining = mulDivCeil(t.limit-t.baseValue, nsPerSecond, t.frequency)
	}
	t.deadline = t.baseTime + remaining
	t.clock.seq++
	t.seq = t.clock.seq
	if t.index >= 0 {
		heap.Fix(&t.clock.q, t.index)
	} else {
		heap.Push(&t.clock.q, t)
	}
}

func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c)
	return q
}

func mulDivCeil(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, r := bits.Div64(hi, lo, c)
	if r != 0 {
		q++
	}
	return q
}

// UsToNs converts microseconds to clock time.
func UsToNs(us uint64) uint64 {
	return us * 1000
}

// NsToTicks returns the number of whole ticks of a frequency Hz clock elapsed in ns nanoseconds.
func NsToTicks(ns uint64, frequency uint64) uint64 {
	return mulDiv(ns, frequency, nsPerSecond)
}

// TicksToNsCeil returns the first nanosecond at which ticks whole ticks of a frequency Hz clock
// have elapsed.
func TicksToNsCeil(ticks uint64, frequency uint64) uint64 {
	return mulDivCeil(ticks, nsPerSecond, frequency)
}
