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
	"fmt"
	"math"
)

type NodeId = int
type ChannelId = int

// DbValue is a signal power (dBm) or a power ratio (dB).
type DbValue = float64

const (
	MaxNodeId     NodeId = 0xffff
	InvalidNodeId NodeId = 0
)

const (
	MinChannelNumber ChannelId = 0
	MaxChannelNumber ChannelId = 63
	InvalidChannel   ChannelId = -1
)

// RSSI limits as reported to firmware through the AGC RSSI register.
const (
	RssiInvalid       DbValue = 127
	RssiMax           DbValue = 126
	RssiMin           DbValue = -126
	RssiMinusInfinity DbValue = -127
)

// Ever is the virtual time that is never reached.
const Ever uint64 = math.MaxUint64

// PhyType identifies the modulation used on the medium; frames are only heard by receivers on
// the same PHY and channel.
type PhyType byte

const (
	PhyIeee802154  PhyType = 0
	PhyBle         PhyType = 1
	PhyProprietary PhyType = 2
)

func (p PhyType) String() string {
	switch p {
	case PhyIeee802154:
		return "802.15.4"
	case PhyBle:
		return "ble"
	case PhyProprietary:
		return "proprietary"
	default:
		return "invalid"
	}
}

// GetNodeName returns the display name of a node, as used in log lines.
func GetNodeName(id NodeId) string {
	return fmt.Sprintf("Node<%d>", id)
}
