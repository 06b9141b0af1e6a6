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

package simulation

import (
	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/interference"
	"github.com/openthread/ot-radiocore/prng"
	"github.com/openthread/ot-radiocore/radio"
)

// NodeConfig describes one node. Unset optional fields take the simulation's default radio
// config; a node without a position is placed by the NodeAutoPlacer.
type NodeConfig struct {
	ID         NodeId          `yaml:"id"`
	Position   *[3]float64     `yaml:"pos,omitempty"`
	Phy        *PhyType        `yaml:"phy,omitempty"`
	Channel    *ChannelId      `yaml:"channel,omitempty"`
	TxPowerDbm *DbValue        `yaml:"tx_power_dbm,omitempty"`
	RandomSeed prng.RandomSeed `yaml:"random_seed,omitempty"`
}

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ID: InvalidNodeId,
	}
}

// IsAutoPlaced is true if the node gets its position from the NodeAutoPlacer.
func (cfg *NodeConfig) IsAutoPlaced() bool {
	return cfg.Position == nil
}

// SetPosition fixes the node position in position units.
func (cfg *NodeConfig) SetPosition(x, y, z float64) {
	cfg.Position = &[3]float64{x, y, z}
}

func (cfg *NodeConfig) position() interference.Position {
	if cfg.Position == nil {
		return interference.Position{}
	}
	return interference.Position{X: cfg.Position[0], Y: cfg.Position[1], Z: cfg.Position[2]}
}

// radioConfig applies the node overrides to the simulation's default radio config.
func (cfg *NodeConfig) radioConfig(defaults radio.Config) radio.Config {
	rc := defaults
	if cfg.Phy != nil {
		rc.Phy = *cfg.Phy
	}
	if cfg.Channel != nil {
		rc.Channel = *cfg.Channel
	}
	if cfg.TxPowerDbm != nil {
		rc.TxPowerDbm = *cfg.TxPowerDbm
	}
	if cfg.RandomSeed != 0 {
		rc.RandomSeed = cfg.RandomSeed
	}
	return rc
}

// NodeAutoPlacer places new nodes on a grid, row by row.
type NodeAutoPlacer struct {
	Xref, Yref float64
	Xmax       float64
	X, Y, Z    float64
	NodeDelta  float64
	isReset    bool
}

func NewNodeAutoPlacer() *NodeAutoPlacer {
	return &NodeAutoPlacer{
		Xref:      100,
		Yref:      100,
		Xmax:      1450,
		X:         100,
		Y:         100,
		Z:         0,
		NodeDelta: 100,
		isReset:   true,
	}
}

// UpdateReference updates the reference position of the NodeAutoPlacer to 'x', 'y', 'z'. It starts
// placing next to there.
func (nap *NodeAutoPlacer) UpdateReference(x, y, z float64) {
	nap.Xref = x
	nap.X = x
	nap.Yref = y
	nap.Y = y
	nap.Z = z
	nap.isReset = false
}

// NextNodePosition lets the autoplacer pick the next position for a new node to be placed.
func (nap *NodeAutoPlacer) NextNodePosition() (float64, float64, float64) {
	if !nap.isReset {
		nap.X += nap.NodeDelta
		if nap.X > nap.Xmax {
			nap.X = nap.Xref
			nap.Y += nap.NodeDelta
		}
	}
	nap.isReset = false
	return nap.X, nap.Y, nap.Z
}

// ReuseNextNodePosition instructs the autoplacer to re-use the NextNodePosition() that was given out in the
// last call to this method.
func (nap *NodeAutoPlacer) ReuseNextNodePosition() {
	nap.isReset = true
}
