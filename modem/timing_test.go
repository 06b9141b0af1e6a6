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

package modem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameAirTime802154(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TxChainDelayUs = 0
	cfg.RxChainDelayUs = 0
	tm := NewTiming(cfg)

	// 5 byte preamble+SFD = 160 us; each byte is 32 us at 250 kbit/s.
	assert.Equal(t, uint64(160), tm.PreambleAndSyncUs())
	assert.Equal(t, uint64(160+32*(10+2)), tm.FrameAirTimeUs(make([]byte, 10)))
	assert.Equal(t, uint64(160+32*2), tm.FrameAirTimeUs(nil))
}

func TestChainDelaysAreIncluded(t *testing.T) {
	cfg := DefaultConfig()
	tm := NewTiming(cfg)
	assert.Equal(t, uint64(160+DefaultRxChainDelay), tm.PreambleAndSyncUs())
	assert.Equal(t, uint64(160+64+DefaultTxChainDelay), tm.FrameAirTimeUs(nil))
}

func TestAirTimeRoundsUp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRateBps = 3
	cfg.PreambleBits = 1
	cfg.SyncWordBits = 0
	cfg.CrcBytes = 0
	cfg.TxChainDelayUs = 0
	tm := NewTiming(cfg)
	assert.Equal(t, uint64(333334), tm.FrameAirTimeUs(nil))
}

func TestTickConversions(t *testing.T) {
	assert.Equal(t, uint64(39), UsToTicks(1, 38400000))
	assert.Equal(t, uint64(38400), UsToTicks(1000, 38400000))
	assert.Equal(t, uint64(1), TicksToUs(1, 38400000))
	assert.Equal(t, uint64(1000), TicksToUs(38400, 38400000))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.Validate())
	cfg.DataRateBps = 0
	assert.NotNil(t, cfg.Validate())
}
