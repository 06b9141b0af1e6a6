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
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/rac"
	"github.com/openthread/ot-radiocore/radio"
)

// Node is a simulated transceiver attached to the simulation's medium.
type Node struct {
	S      *Simulation
	Id     NodeId
	Logger *logger.NodeLogger
	cfg    NodeConfig
	radio  *radio.Transceiver
}

func newNode(s *Simulation, nodeid NodeId, cfg *NodeConfig) (*Node, error) {
	node := &Node{
		S:      s,
		Id:     nodeid,
		Logger: logger.GetNodeLogger(s.cfg.LogDir, nodeid),
		cfg:    *cfg,
	}
	node.cfg.ID = nodeid
	if lv, err := logger.ParseLevelString(s.cfg.WatchLevel); err == nil {
		node.Logger.SetDisplayLevel(lv)
	}

	rc := cfg.radioConfig(s.cfg.Radio)
	tr, err := radio.NewTransceiver(nodeid, rc, s.clock, s.medium, cfg.position(), s.metrics, node.Logger)
	if err != nil {
		logger.DeleteNodeLogger(nodeid)
		return nil, err
	}
	node.radio = tr

	pos := cfg.position()
	node.Logger.Debugf("Node config: phy=%s channel=%d power=%.1f dBm", rc.Phy, rc.Channel, rc.TxPowerDbm)
	node.Logger.Debugf("  position: (%.1f,%.1f,%.1f)", pos.X, pos.Y, pos.Z)
	return node, nil
}

func (node *Node) String() string {
	return GetNodeName(node.Id)
}

func (node *Node) Config() NodeConfig {
	return node.cfg
}

// Radio returns the node's transceiver, for register-level access.
func (node *Node) Radio() *radio.Transceiver {
	return node.radio
}

func (node *Node) Position() interference.Position {
	pos, _ := node.S.medium.Position(node.Id)
	return pos
}

// MoveTo changes the node position; ongoing transmissions keep the RSSI they started with.
func (node *Node) MoveTo(x, y, z float64) {
	node.cfg.SetPosition(x, y, z)
	node.S.medium.SetPosition(node.Id, node.cfg.position())
}

// Send queues a frame and requests a transmission. The RAC transmits it once TX warm-up is done.
func (node *Node) Send(frame []byte) {
	node.radio.QueueTxFrame(frame)
	node.radio.Signal(SignalTxEnable)
}

// Listen switches the software RX enable on or off.
func (node *Node) Listen(on bool) {
	node.radio.SetRxEnableSource(rac.RxEnableSoftware0, on)
}

func (node *Node) State() RadioState {
	return node.radio.State()
}

func (node *Node) DisplayPendingLogEntries(ts uint64) {
	node.Logger.DisplayPendingLogEntries(ts)
}

// Exit detaches the radio from the medium and closes the node log.
func (node *Node) Exit() {
	node.radio.Close()
	node.DisplayPendingLogEntries(node.S.clock.Now())
	logger.DeleteNodeLogger(node.Id)
}
