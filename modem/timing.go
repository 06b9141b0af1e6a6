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

// Package modem contains the baseband timing model: pure functions of the modem configuration
// that convert frame sizes and bit rates into on-air durations and chain delays.
package modem

import (
	"github.com/pkg/errors"
)

const (
	DefaultDataRateBps   = 250000
	DefaultPreambleBits  = 32
	DefaultSyncWordBits  = 8
	DefaultCrcBytes      = 2
	DefaultTxChainDelay  = 2
	DefaultRxChainDelay  = 4
	DefaultTxDoneDelayUs = 0
	DefaultRxDoneDelayUs = 0
)

// Config is the baseband configuration. Delays are in microseconds.
type Config struct {
	DataRateBps    uint32 `yaml:"data_rate_bps"`
	PreambleBits   uint32 `yaml:"preamble_bits"`
	SyncWordBits   uint32 `yaml:"sync_word_bits"`
	CrcBytes       uint32 `yaml:"crc_bytes"`
	TxChainDelayUs uint32 `yaml:"tx_chain_delay_us"`
	RxChainDelayUs uint32 `yaml:"rx_chain_delay_us"`
	TxDoneDelayUs  uint32 `yaml:"tx_done_delay_us"`
	RxDoneDelayUs  uint32 `yaml:"rx_done_delay_us"`
}

// DefaultConfig is the O-QPSK 2.4 GHz 802.15.4 PHY: 250 kbit/s, 4 byte preamble, 1 byte SFD.
func DefaultConfig() Config {
	return Config{
		DataRateBps:    DefaultDataRateBps,
		PreambleBits:   DefaultPreambleBits,
		SyncWordBits:   DefaultSyncWordBits,
		CrcBytes:       DefaultCrcBytes,
		TxChainDelayUs: DefaultTxChainDelay,
		RxChainDelayUs: DefaultRxChainDelay,
		TxDoneDelayUs:  DefaultTxDoneDelayUs,
		RxDoneDelayUs:  DefaultRxDoneDelayUs,
	}
}

func (cfg *Config) Validate() error {
	if cfg.DataRateBps == 0 {
		return errors.Errorf("modem: data rate must be non-zero")
	}
	return nil
}

// Timing is the BasebandTiming of one radio, evaluated against its current configuration.
type Timing struct {
	cfg Config
}

func NewTiming(cfg Config) *Timing {
	return &Timing{cfg: cfg}
}

func (t *Timing) Config() Config {
	return t.cfg
}

func (t *Timing) SetConfig(cfg Config) {
	t.cfg = cfg
}

func (t *Timing) PreambleBits() uint32 {
	return t.cfg.PreambleBits
}

func (t *Timing) SyncWordBits() uint32 {
	return t.cfg.SyncWordBits
}

func (t *Timing) DataRateBps() uint32 {
	return t.cfg.DataRateBps
}

// bitsToUs converts a bit count into microseconds on air, rounded up.
func (t *Timing) bitsToUs(nbits uint64) uint64 {
	rate := uint64(t.cfg.DataRateBps)
	return (nbits*1000000 + rate - 1) / rate
}

// PreambleAndSyncUs is the time from the first preamble bit until the sync word is detected.
func (t *Timing) PreambleAndSyncUs() uint64 {
	return t.bitsToUs(uint64(t.cfg.PreambleBits)+uint64(t.cfg.SyncWordBits)) + uint64(t.cfg.RxChainDelayUs)
}

// FrameAirTimeUs is the on-air duration of a frame buffer, including preamble, sync word and the
// CRC appended by the frame controller.
func (t *Timing) FrameAirTimeUs(frame []byte) uint64 {
	nbits := uint64(t.cfg.PreambleBits) + uint64(t.cfg.SyncWordBits) + 8*uint64(len(frame)+int(t.cfg.CrcBytes))
	return t.bitsToUs(nbits) + uint64(t.cfg.TxChainDelayUs)
}

func (t *Timing) TxDoneDelayUs() uint64 {
	return uint64(t.cfg.TxDoneDelayUs)
}

func (t *Timing) RxDoneDelayUs() uint64 {
	return uint64(t.cfg.RxDoneDelayUs)
}

// UsToTicks converts microseconds to ticks of a clock at hz, rounded up.
func UsToTicks(us uint64, hz uint64) uint64 {
	return (us*hz + 999999) / 1000000
}

// TicksToUs converts ticks of a clock at hz to microseconds, rounded up.
func TicksToUs(ticks uint64, hz uint64) uint64 {
	return (ticks*1000000 + hz - 1) / hz
}
