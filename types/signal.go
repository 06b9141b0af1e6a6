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

import "github.com/simonlingoogle/go-simplelogger"

// StateMachineSignal is an edge-triggered input to the radio state machine. Commands come from
// register writes, the *Done signals from timers and collaborating blocks.
type StateMachineSignal byte

const (
	SignalNone StateMachineSignal = iota
	SignalReset
	SignalForceStateTransition
	SignalForceDisable
	SignalForceTx
	SignalTxEnable
	SignalTxDisable
	SignalRxEnable
	SignalRxDisable
	SignalRxCalibration
	SignalFrameDetected
	SignalFrameTxDone
	SignalRxFrameExit
	SignalFrameRxDone
	SignalTxWarmDone
	SignalRxWarmDone
	SignalTxWrapUpDone
	SignalRxWrapUpDone
	SignalShutdownDone
	SignalPaRampDone
	SignalSynthCalibrationDone
	SignalSequencerAck
	SignalSequencerEndAck
	SignalProtimerTxEnable
	SignalProtimerRxEnable
	SignalProtimerRxDisable
	SignalClearRxOverflow

	NumStateMachineSignals = iota
)

var signalNames = [NumStateMachineSignals]string{
	"None",
	"Reset",
	"ForceStateTransition",
	"ForceDisable",
	"ForceTx",
	"TxEnable",
	"TxDisable",
	"RxEnable",
	"RxDisable",
	"RxCalibration",
	"FrameDetected",
	"FrameTxDone",
	"RxFrameExit",
	"FrameRxDone",
	"TxWarmDone",
	"RxWarmDone",
	"TxWrapUpDone",
	"RxWrapUpDone",
	"ShutdownDone",
	"PaRampDone",
	"SynthCalibrationDone",
	"SequencerAck",
	"SequencerEndAck",
	"ProtimerTxEnable",
	"ProtimerRxEnable",
	"ProtimerRxDisable",
	"ClearRxOverflow",
}

func (s StateMachineSignal) String() string {
	if int(s) >= len(signalNames) {
		simplelogger.Panicf("invalid StateMachineSignal: %d", s)
		return "invalid"
	}
	return signalNames[s]
}

// ParseSignal parses a signal name case-sensitively, as printed by String().
func ParseSignal(name string) (StateMachineSignal, bool) {
	for i, n := range signalNames {
		if n == name {
			return StateMachineSignal(i), true
		}
	}
	return SignalNone, false
}
