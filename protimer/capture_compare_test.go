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
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openthread/ot-radiocore/types"
)

func TestCompareMatchOnBase(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(0, ChannelConfig{Enabled: true, Mode: ModeCompare, BaseMatch: true})
	tb.p.SetChannelValues(0, 0, 5, 0)
	tb.countingSetup(0, 10, 100)
	tb.clearFlags()

	tb.runOverflows(4)
	assert.False(t, tb.flag(IntCaptureCompare0))
	tb.runOverflows(5)
	assert.True(t, tb.flag(IntCaptureCompare0))
	assert.Equal(t, 1, tb.count(EventCaptureCompare0))

	// matches again once per base period
	tb.runOverflows(25)
	assert.Equal(t, 3, tb.count(EventCaptureCompare0))
}

func TestCompareRequiresWrapMatch(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(2, ChannelConfig{Enabled: true, Mode: ModeCompare, BaseMatch: true, WrapMatch: true})
	tb.p.SetChannelValues(2, 0, 3, 2)
	tb.countingSetup(1, 10, 100)

	tb.runOverflows(3)
	tb.runOverflows(13)
	assert.Equal(t, 0, tb.count(EventCaptureCompare2))
	tb.runOverflows(23)
	assert.Equal(t, 1, tb.count(EventCaptureCompare2))
	tb.runOverflows(100)
	assert.Equal(t, 1, tb.count(EventCaptureCompare2))
}

func TestWrapRangeCompare(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(1, ChannelConfig{Enabled: true, Mode: ModeWrapRange, BaseMatch: true})
	tb.p.SetChannelValues(1, 0, 2, 1)
	tb.countingSetup(0, 4, 100)

	// base hits 2 in wrap periods 0, 1, 2, 3; only the first two are in range
	tb.runOverflows(16)
	assert.Equal(t, 2, tb.count(EventCaptureCompare1))
}

func TestPreMatchIsIgnored(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(0, ChannelConfig{Enabled: true, Mode: ModeCompare, PreMatch: true})
	tb.p.SetChannelValues(0, 3, 0, 0)
	tb.countingSetup(7, 100, 100)
	tb.runOverflows(50)
	assert.Equal(t, 0, tb.count(EventCaptureCompare0))
}

func TestCaptureOverflowAndValid(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(3, ChannelConfig{Enabled: true, Mode: ModeCapture, Source: CaptureTxDone})
	tb.countingSetup(0, 1000, 100)
	tb.clearFlags()

	tb.runOverflows(17)
	tb.p.TriggerEvent(EventTxDone)
	assert.True(t, tb.p.CaptureValid(3))
	assert.True(t, tb.flag(IntCaptureCompare0+3))
	assert.False(t, tb.flag(IntCaptureOverflow0+3))

	tb.runOverflows(20)
	tb.p.TriggerEvent(EventTxDone)
	assert.True(t, tb.flag(IntCaptureOverflow0+3))

	assert.Equal(t, uint32(20), tb.p.ChannelBase(3))
	assert.False(t, tb.p.CaptureValid(3))

	tb.clearFlags()
	tb.p.TriggerEvent(EventTxDone)
	assert.False(t, tb.flag(IntCaptureOverflow0+3))
	assert.True(t, tb.p.CaptureValid(3))
	tb.p.ChannelPre(3)
	assert.False(t, tb.p.CaptureValid(3))

	tb.p.TriggerEvent(EventTxDone)
	tb.p.SetChannelValues(3, 0, 0, 0)
	assert.False(t, tb.p.CaptureValid(3))
}

func TestCaptureOnTxOrRxDone(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(0, ChannelConfig{Enabled: true, Mode: ModeCapture, Source: CaptureTxOrRxDone})
	tb.p.ConfigureChannel(1, ChannelConfig{Enabled: true, Mode: ModeCapture, Source: CaptureRxDone})
	tb.countingSetup(0, 1000, 100)

	tb.p.TriggerEvent(EventTxDone)
	assert.True(t, tb.p.CaptureValid(0))
	assert.False(t, tb.p.CaptureValid(1))
	tb.p.TriggerEvent(EventRxDone)
	assert.True(t, tb.p.CaptureValid(1))
	assert.Equal(t, 2, tb.count(EventCaptureCompare0))
}

func TestCaptureOnRadioStateEntry(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(4, ChannelConfig{
		Enabled:   true,
		Mode:      ModeCapture,
		Source:    CaptureRadioStateMask,
		StateMask: 1<<RadioTx | 1<<RadioRxFrame,
	})
	tb.countingSetup(0, 1000, 100)

	tb.runOverflows(3)
	tb.p.OnRadioStateEntry(RadioTxWarm)
	assert.False(t, tb.p.CaptureValid(4))
	tb.runOverflows(8)
	tb.p.OnRadioStateEntry(RadioTx)
	assert.True(t, tb.p.CaptureValid(4))
	assert.Equal(t, uint32(8), tb.p.ChannelBase(4))
}

func TestReservedCaptureSourceDisablesChannel(t *testing.T) {
	tb := newTestBench()
	tb.p.ConfigureChannel(0, ChannelConfig{Enabled: true, Mode: ModeCapture, Source: CaptureSource(9)})
	assert.False(t, tb.p.GetChannelConfig(0).Enabled)
	tb.p.TriggerEvent(EventPrs)
	assert.False(t, tb.p.CaptureValid(0))
}

func TestChannelOutOfRangePanics(t *testing.T) {
	tb := newTestBench()
	assert.Panics(t, func() {
		tb.p.CaptureValid(NumCaptureCompareChannels)
	})
	assert.Panics(t, func() {
		tb.p.ConfigureChannel(-1, ChannelConfig{})
	})
}
