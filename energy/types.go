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

package energy

import (
	. "github.com/openthread/ot-radiocore/types"
)

/*
 * Default consumption by state class of an EFR32MG-class transceiver at 3.3V.
 * Consumption in kilowatts, time in nanoseconds, resulting energy in µJ.
 */
const (
	RadioDisabledConsumption float64 = 0.00000011 //kilowatts, deep sleep
	RadioIdleConsumption     float64 = 0.00000990 //kilowatts @ i = 3.0 mA
	RadioTxConsumption       float64 = 0.00003003 //kilowatts @ i = 9.1 mA, 0 dBm
	RadioRxConsumption       float64 = 0.00001452 //kilowatts @ i = 4.4 mA
)

const (
	ComputePeriod uint64 = 30000000000 // in nanoseconds
)

// StateClass groups radio states that draw the same current.
type StateClass int

const (
	ClassDisabled StateClass = iota
	ClassIdle
	ClassTx
	ClassRx
)

func (c StateClass) String() string {
	switch c {
	case ClassDisabled:
		return "disabled"
	case ClassIdle:
		return "idle"
	case ClassTx:
		return "tx"
	default:
		return "rx"
	}
}

// ClassOf maps a radio state to its consumption class. Warm-up, wrap-up and shutdown run the
// synthesizer without the PA or the demodulator.
func ClassOf(state RadioState) StateClass {
	switch state {
	case RadioOff, RadioPowerOnReset:
		return ClassDisabled
	case RadioTx:
		return ClassTx
	case RadioRxSearch, RadioRxFrame:
		return ClassRx
	default:
		return ClassIdle
	}
}

// Consumption returns the power draw of a class in kilowatts.
func (c StateClass) Consumption() float64 {
	switch c {
	case ClassDisabled:
		return RadioDisabledConsumption
	case ClassIdle:
		return RadioIdleConsumption
	case ClassTx:
		return RadioTxConsumption
	default:
		return RadioRxConsumption
	}
}

type RadioStatus struct {
	State     RadioState
	Spent     [NumRadioStates]uint64
	Timestamp uint64
}

// NodeConsumption is the energy used by one node, in mJ.
type NodeConsumption struct {
	NodeId   NodeId
	Disabled float64
	Idle     float64
	Tx       float64
	Rx       float64
}

type NetworkConsumption struct {
	Timestamp          uint64
	EnergyConsDisabled float64
	EnergyConsIdle     float64
	EnergyConsTx       float64
	EnergyConsRx       float64
}
