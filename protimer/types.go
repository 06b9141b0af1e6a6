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
	"fmt"
)

const (
	NumCaptureCompareChannels = 12
	NumTimeoutCounters        = 3
)

// PreCounterSource selects what drives the pre-counter.
type PreCounterSource byte

const (
	PreCounterDisabled PreCounterSource = 0
	PreCounterClock    PreCounterSource = 1
)

// CounterSource selects what drives the base, wrap and timeout counters. Not every source is
// valid for every counter: the base counter cannot count its own overflows and neither the
// base nor the wrap counter can be driven by the wrap counter.
type CounterSource byte

const (
	SourceDisabled            CounterSource = 0
	SourcePreCounterOverflow  CounterSource = 1
	SourceBaseCounterOverflow CounterSource = 2
	SourceWrapCounterOverflow CounterSource = 3
)

func (s CounterSource) String() string {
	switch s {
	case SourceDisabled:
		return "Disabled"
	case SourcePreCounterOverflow:
		return "PreCounterOverflow"
	case SourceBaseCounterOverflow:
		return "BaseCounterOverflow"
	case SourceWrapCounterOverflow:
		return "WrapCounterOverflow"
	default:
		return fmt.Sprintf("Reserved(%d)", byte(s))
	}
}

// Event is an input of the PROTIMER event graph. Counter events are generated internally;
// TxDone, RxDone, SyncWordDetected and Prs come from outside.
type Event byte

const (
	EventDisabled Event = iota
	EventAlways
	EventPreCounterOverflow
	EventBaseCounterOverflow
	EventWrapCounterOverflow
	EventTimeoutCounter0Underflow
	EventTimeoutCounter1Underflow
	EventTimeoutCounter2Underflow
	EventTimeoutCounter0Match
	EventTimeoutCounter1Match
	EventTimeoutCounter2Match
	EventCaptureCompare0
	EventCaptureCompare1
	EventCaptureCompare2
	EventCaptureCompare3
	EventCaptureCompare4
	EventCaptureCompare5
	EventCaptureCompare6
	EventCaptureCompare7
	EventCaptureCompare8
	EventCaptureCompare9
	EventCaptureCompare10
	EventCaptureCompare11
	EventTxDone
	EventRxDone
	EventTxOrRxDone
	EventSyncWordDetected
	EventRadioStateEntry
	EventPrs
	EventListenBeforeTalkSuccess
	EventListenBeforeTalkFailure
	EventListenBeforeTalkRetry
	EventListenBeforeTalkTimeoutCounterMatch
	EventClearChannelAssessmentMeasurementCompleted

	NumEvents = iota
)

var eventNames = [NumEvents]string{
	"Disabled",
	"Always",
	"PreCounterOverflow",
	"BaseCounterOverflow",
	"WrapCounterOverflow",
	"TimeoutCounter0Underflow",
	"TimeoutCounter1Underflow",
	"TimeoutCounter2Underflow",
	"TimeoutCounter0Match",
	"TimeoutCounter1Match",
	"TimeoutCounter2Match",
	"CaptureCompare0",
	"CaptureCompare1",
	"CaptureCompare2",
	"CaptureCompare3",
	"CaptureCompare4",
	"CaptureCompare5",
	"CaptureCompare6",
	"CaptureCompare7",
	"CaptureCompare8",
	"CaptureCompare9",
	"CaptureCompare10",
	"CaptureCompare11",
	"TxDone",
	"RxDone",
	"TxOrRxDone",
	"SyncWordDetected",
	"RadioStateEntry",
	"Prs",
	"ListenBeforeTalkSuccess",
	"ListenBeforeTalkFailure",
	"ListenBeforeTalkRetry",
	"ListenBeforeTalkTimeoutCounterMatch",
	"ClearChannelAssessmentMeasurementCompleted",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Reserved(%d)", byte(e))
}

// ParseEvent parses an event name as printed by String().
func ParseEvent(name string) (Event, bool) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), true
		}
	}
	return EventDisabled, false
}

func captureCompareEvent(ch int) Event {
	return EventCaptureCompare0 + Event(ch)
}

func timeoutUnderflowEvent(i int) Event {
	return EventTimeoutCounter0Underflow + Event(i)
}

func timeoutMatchEvent(i int) Event {
	return EventTimeoutCounter0Match + Event(i)
}

// CaptureCompareMode is the operating mode of a capture/compare channel.
type CaptureCompareMode byte

const (
	ModeCompare CaptureCompareMode = 0
	ModeCapture CaptureCompareMode = 1
	// ModeWrapRange compares the base counter only while the wrap counter is at or below the
	// channel's wrap value, i.e. a base-counter compare limited to a window of wrap periods.
	ModeWrapRange CaptureCompareMode = 2
	ModeNone      CaptureCompareMode = 3
)

func (m CaptureCompareMode) String() string {
	switch m {
	case ModeCompare:
		return "Compare"
	case ModeCapture:
		return "Capture"
	case ModeWrapRange:
		return "WrapRange"
	case ModeNone:
		return "None"
	default:
		return fmt.Sprintf("Reserved(%d)", byte(m))
	}
}

// CaptureSource selects the input that triggers a channel in capture mode.
type CaptureSource byte

const (
	CapturePrs              CaptureSource = 0
	CaptureTxDone           CaptureSource = 1
	CaptureRxDone           CaptureSource = 2
	CaptureTxOrRxDone       CaptureSource = 3
	CaptureSyncWordDetected CaptureSource = 4
	CaptureRadioStateMask   CaptureSource = 5
)

func (s CaptureSource) String() string {
	switch s {
	case CapturePrs:
		return "Prs"
	case CaptureTxDone:
		return "TxDone"
	case CaptureRxDone:
		return "RxDone"
	case CaptureTxOrRxDone:
		return "TxOrRxDone"
	case CaptureSyncWordDetected:
		return "SyncWordDetected"
	case CaptureRadioStateMask:
		return "RadioStateMask"
	default:
		return fmt.Sprintf("Reserved(%d)", byte(s))
	}
}

// TimeoutMode selects whether a timeout counter reloads after underflow.
type TimeoutMode byte

const (
	TimeoutFreeRunning TimeoutMode = 0
	TimeoutOneShot     TimeoutMode = 1
)

// RequestState is the state of the TX and RX request latches.
type RequestState byte

const (
	RequestIdle        RequestState = 0
	RequestSetEvent1   RequestState = 1
	RequestSet         RequestState = 2
	RequestClearEvent1 RequestState = 3
)

func (s RequestState) String() string {
	switch s {
	case RequestIdle:
		return "Idle"
	case RequestSetEvent1:
		return "SetEvent1"
	case RequestSet:
		return "Set"
	case RequestClearEvent1:
		return "ClearEvent1"
	default:
		return "invalid"
	}
}

// LbtState is the state of the listen-before-talk sub-machine.
type LbtState byte

const (
	LbtIdle     LbtState = 0
	LbtBackoff  LbtState = 1
	LbtCcaDelay LbtState = 2
)

func (s LbtState) String() string {
	switch s {
	case LbtIdle:
		return "Idle"
	case LbtBackoff:
		return "Backoff"
	case LbtCcaDelay:
		return "CcaDelay"
	default:
		return "invalid"
	}
}

// Interrupt flag bits of the PROTIMER block, identical in the CPU and sequencer registers.
const (
	IntPreCounterOverflow  uint = 0
	IntBaseCounterOverflow uint = 1
	IntWrapCounterOverflow uint = 2
	IntTimeoutUnderflow0   uint = 3 // +i for counter i
	IntTimeoutMatch0       uint = 6 // +i for counter i
	IntLbtSuccess          uint = 9
	IntLbtFailure          uint = 10
	IntLbtRetry            uint = 11
	IntCaptureCompare0     uint = 16 // +ch
	IntCaptureOverflow0    uint = 32 // +ch
)
