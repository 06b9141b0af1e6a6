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

package types

import (
	"github.com/simonlingoogle/go-simplelogger"
)

// RadioState is the state of the radio state machine (RAC). The numeric values are those seen
// by firmware in the RAC status register.
type RadioState byte

const (
	RadioOff          RadioState = 0
	RadioRxWarm       RadioState = 1
	RadioRxSearch     RadioState = 2
	RadioRxFrame      RadioState = 3
	RadioRxWrapUp     RadioState = 4
	RadioTxWarm       RadioState = 5
	RadioTx           RadioState = 6
	RadioTxWrapUp     RadioState = 7
	RadioShutdown     RadioState = 8
	RadioPowerOnReset RadioState = 9

	NumRadioStates = 10
)

func (s RadioState) String() string {
	switch s {
	case RadioOff:
		return "Off"
	case RadioRxWarm:
		return "RxWarm"
	case RadioRxSearch:
		return "RxSearch"
	case RadioRxFrame:
		return "RxFrame"
	case RadioRxWrapUp:
		return "RxWrapUp"
	case RadioTxWarm:
		return "TxWarm"
	case RadioTx:
		return "Tx"
	case RadioTxWrapUp:
		return "TxWrapUp"
	case RadioShutdown:
		return "Shutdown"
	case RadioPowerOnReset:
		return "PowerOnReset"
	default:
		simplelogger.Panicf("invalid RadioState: %d", s)
		return "invalid"
	}
}

// ParseRadioState parses the name of a radio state, as printed by String().
func ParseRadioState(name string) (RadioState, bool) {
	for s := RadioOff; s < NumRadioStates; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return RadioOff, false
}

// IsReceiving is true for the states in which the demodulator is listening to the medium.
func (s RadioState) IsReceiving() bool {
	return s == RadioRxSearch || s == RadioRxFrame
}

// InternalTxState tracks the transmit sub-phase independently of RadioState, so that timer
// callbacks can resume a transmission that straddles a state change.
type InternalTxState byte

const (
	InternalTxIdle InternalTxState = 0
	InternalTxTx   InternalTxState = 1
)

func (s InternalTxState) String() string {
	switch s {
	case InternalTxIdle:
		return "Idle"
	case InternalTxTx:
		return "Tx"
	default:
		simplelogger.Panicf("invalid InternalTxState: %d", s)
		return "invalid"
	}
}

// InternalRxState tracks the receive sub-phase of an inbound frame.
type InternalRxState byte

const (
	InternalRxIdle                InternalRxState = 0
	InternalRxPreambleAndSyncWord InternalRxState = 1
	InternalRxFrame               InternalRxState = 2
)

func (s InternalRxState) String() string {
	switch s {
	case InternalRxIdle:
		return "Idle"
	case InternalRxPreambleAndSyncWord:
		return "PreambleAndSyncWord"
	case InternalRxFrame:
		return "Frame"
	default:
		simplelogger.Panicf("invalid InternalRxState: %d", s)
		return "invalid"
	}
}
