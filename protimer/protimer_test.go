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

package protimer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/vtime"
)

type testHost struct {
	txRequests      int
	rxEnable        bool
	rxEnableChanges int
	receiving       bool
	ccaRequests     int
}

func (h *testHost) ProtimerTxRequest() {
	h.txRequests++
}

func (h *testHost) ProtimerRxEnable(enabled bool) {
	h.rxEnable = enabled
	h.rxEnableChanges++
}

func (h *testHost) StartCcaMeasurement() bool {
	h.ccaRequests++
	return h.receiving
}

type testBench struct {
	clock  *vtime.Clock
	p      *ProtocolTimer
	host   *testHost
	irq    *interrupts.Aggregator
	events []Event
}

func newTestBench() *testBench {
	tb := &testBench{
		clock: vtime.NewClock(),
		host:  &testHost{receiving: true},
		irq:   interrupts.NewAggregator(nil),
	}
	tb.p = New(DefaultConfig(), tb.clock, tb.irq, tb.host, rand.New(rand.NewSource(1)), logger.GetNodeLogger("", 1))
	tb.p.OnEvent = func(e Event) {
		tb.events = append(tb.events, e)
	}
	return tb
}

// countingSetup makes base count pre-counter overflows and wrap count base overflows.
func (tb *testBench) countingSetup(preTop, baseTop, wrapTop uint32) {
	tb.p.SetPreCounterTop(preTop, 0)
	tb.p.SetBaseCounterTop(baseTop)
	tb.p.SetWrapCounterTop(wrapTop)
	tb.p.SetPreCounterSource(PreCounterClock)
	tb.p.SetBaseCounterSource(SourcePreCounterOverflow)
	tb.p.SetWrapCounterSource(SourceBaseCounterOverflow)
	tb.p.Start()
}

func (tb *testBench) overflowTime(n uint64) uint64 {
	return vtime.TicksToNsCeil(n*tb.p.period(), tb.p.ClockHz())
}

// runOverflows advances the clock to the instant of the n-th pre-counter overflow since start
// and flushes.
func (tb *testBench) runOverflows(n uint64) {
	tb.clock.RunUntil(tb.overflowTime(n))
	tb.p.Now()
}

func (tb *testBench) count(e Event) int {
	n := 0
	for _, ev := range tb.events {
		if ev == e {
			n++
		}
	}
	return n
}

func (tb *testBench) flag(bit uint) bool {
	return tb.irq.IsSet(interrupts.BlockProtimer, interrupts.ContextCpu, bit)
}

func (tb *testBench) clearFlags() {
	tb.irq.WriteFlagsClear(interrupts.BlockProtimer, interrupts.ContextCpu, ^uint64(0))
	tb.irq.WriteFlagsClear(interrupts.BlockProtimer, interrupts.ContextSequencer, ^uint64(0))
}

func TestBatchedCountersMatchNaive(t *testing.T) {
	tops := [][3]uint32{
		{0, 10, 4},
		{3, 7, 5},
		{99, 1000, 3},
		{0, 1, 2},
		{15, 0xFFFF, 0xFFFFFFFF},
	}
	for _, top := range tops {
		tb := newTestBench()
		tb.countingSetup(top[0], top[1], top[2])

		var base, wrap uint32
		var n uint64
		for _, step := range []uint64{0, 1, 8, 1, 1, 112, 877, 4096} {
			for i := uint64(0); i < step; i++ {
				base++
				if base == top[1] {
					base = 0
					wrap++
					if wrap == top[2] {
						wrap = 0
					}
				}
			}
			n += step
			tb.runOverflows(n)
			assert.Equal(t, base, tb.p.BaseCounter(), "tops %v after %d overflows", top, n)
			assert.Equal(t, wrap, tb.p.WrapCounter(), "tops %v after %d overflows", top, n)
			assert.Equal(t, uint32(n%uint64(top[1])), tb.p.BaseCounter())
			assert.Equal(t, uint32(n/uint64(top[1])%uint64(top[2])), tb.p.WrapCounter())
		}
	}
}

func TestReadsDoNotPerturbCounting(t *testing.T) {
	read := newTestBench()
	read.countingSetup(2, 9, 7)
	quiet := newTestBench()
	quiet.countingSetup(2, 9, 7)

	for n := uint64(1); n <= 200; n++ {
		read.runOverflows(n)
	}
	quiet.clock.RunUntil(quiet.overflowTime(200))
	assert.Equal(t, quiet.p.Now(), read.p.Now())
	assert.Equal(t, Timestamp{Pre: 0, Base: 200 % 9, Wrap: 200 / 9 % 7}, quiet.p.Now())
}

func TestPreCounterBetweenOverflows(t *testing.T) {
	tb := newTestBench()
	tb.countingSetup(9, 100, 100)
	tb.clock.RunUntil(vtime.TicksToNsCeil(4*10+3, tb.p.ClockHz()))
	assert.Equal(t, Timestamp{Pre: 3, Base: 4, Wrap: 0}, tb.p.Now())
}

func TestStoppedTimerDoesNotCount(t *testing.T) {
	tb := newTestBench()
	tb.countingSetup(0, 100, 100)
	tb.runOverflows(10)
	tb.p.Stop()
	tb.clock.RunFor(1000000)
	assert.Equal(t, uint32(10), tb.p.BaseCounter())
	assert.False(t, tb.clock.Step())

	tb.p.Reset()
	assert.Equal(t, Timestamp{}, tb.p.Now())
}

func TestOverflowInterrupts(t *testing.T) {
	tb := newTestBench()
	tb.countingSetup(0, 5, 2)
	tb.clearFlags()

	tb.runOverflows(4)
	assert.True(t, tb.flag(IntPreCounterOverflow))
	assert.False(t, tb.flag(IntBaseCounterOverflow))

	tb.runOverflows(5)
	assert.True(t, tb.flag(IntBaseCounterOverflow))
	assert.False(t, tb.flag(IntWrapCounterOverflow))

	tb.runOverflows(10)
	assert.True(t, tb.flag(IntWrapCounterOverflow))
	assert.Equal(t, 2, tb.count(EventBaseCounterOverflow))
	assert.Equal(t, 1, tb.count(EventWrapCounterOverflow))
}

func TestUnsupportedSourcesDisableCounting(t *testing.T) {
	tb := newTestBench()
	tb.countingSetup(0, 100, 100)
	tb.p.SetBaseCounterSource(SourceWrapCounterOverflow)
	tb.runOverflows(50)
	assert.Equal(t, uint32(0), tb.p.BaseCounter())

	tb.p.SetPreCounterSource(PreCounterSource(7))
	assert.False(t, tb.clock.Step())
}

func TestCounterWriteOutOfRangePanics(t *testing.T) {
	tb := newTestBench()
	tb.countingSetup(0, 10, 10)
	assert.Panics(t, func() {
		tb.p.SetBaseCounter(10)
	})
	tb.p.Stop()
	tb.p.SetBaseCounter(7)
	tb.p.Start()
	tb.runOverflows(3)
	assert.Equal(t, uint32(0), tb.p.BaseCounter())
	assert.Equal(t, uint32(1), tb.p.WrapCounter())
}

func TestCounterWriteWhileRunningPanics(t *testing.T) {
	tb := newTestBench()
	tb.countingSetup(0, 100, 100)
	tb.runOverflows(5)
	assert.Panics(t, func() {
		tb.p.SetBaseCounter(7)
	})
	assert.Panics(t, func() {
		tb.p.SetWrapCounter(3)
	})

	tb.p.Stop()
	assert.Equal(t, uint32(5), tb.p.BaseCounter())
	tb.p.SetBaseCounter(7)
	tb.p.SetWrapCounter(3)
	assert.Equal(t, uint32(7), tb.p.BaseCounter())
	assert.Equal(t, uint32(3), tb.p.WrapCounter())
}
