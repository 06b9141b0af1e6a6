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
	"github.com/openthread/ot-radiocore/logger"
	. "github.com/openthread/ot-radiocore/types"
)

type NodeEnergy struct {
	nodeId NodeId
	radio  RadioStatus
}

// ComputeRadioState charges the time since the last update to the current state.
func (node *NodeEnergy) ComputeRadioState(timestamp uint64) {
	logger.AssertTrue(timestamp >= node.radio.Timestamp, "energy: time went back for node %d", node.nodeId)
	node.radio.Spent[node.radio.State] += timestamp - node.radio.Timestamp
	node.radio.Timestamp = timestamp
}

func (node *NodeEnergy) SetRadioState(state RadioState, timestamp uint64) {
	//Mandatory: compute energy consumed by the radio first.
	node.ComputeRadioState(timestamp)
	node.radio.State = state
}

func (node *NodeEnergy) State() RadioState {
	return node.radio.State
}

// Spent returns the ns spent in state, up to the last update.
func (node *NodeEnergy) Spent(state RadioState) uint64 {
	return node.radio.Spent[state]
}

// SpentInClass returns the ns spent in all states of class c.
func (node *NodeEnergy) SpentInClass(c StateClass) uint64 {
	var sum uint64
	for s := RadioState(0); s < NumRadioStates; s++ {
		if ClassOf(s) == c {
			sum += node.radio.Spent[s]
		}
	}
	return sum
}

// Consumption returns the energy used up to the last update, in mJ.
func (node *NodeEnergy) Consumption() NodeConsumption {
	mj := func(c StateClass) float64 {
		return float64(node.SpentInClass(c)) * c.Consumption() / 1000
	}
	return NodeConsumption{
		NodeId:   node.nodeId,
		Disabled: mj(ClassDisabled),
		Idle:     mj(ClassIdle),
		Tx:       mj(ClassTx),
		Rx:       mj(ClassRx),
	}
}

func newNode(nodeID NodeId, timestamp uint64, state RadioState) *NodeEnergy {
	return &NodeEnergy{
		nodeId: nodeID,
		radio: RadioStatus{
			State:     state,
			Timestamp: timestamp,
		},
	}
}
