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

// Package interference implements the shared wireless medium: it tracks ongoing transmissions,
// delivers frames to every other attached radio and computes the RSSI each radio senses.
package interference

import (
	"math"
	"sort"
	"sync"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/vtime"
)

// Receiver is a radio attached to the medium. Both methods are called from clock callbacks, never
// from within a call into the medium.
type Receiver interface {
	// ReceiveFrame delivers a frame whose transmission started at sender.
	ReceiveFrame(frame []byte, sender NodeId)
	// InterferenceChanged is called after a transmission started or ended.
	InterferenceChanged()
}

// Scheduler runs callbacks on the virtual clock.
type Scheduler interface {
	Now() uint64
	AfterFunc(delayNs uint64, f func()) *vtime.OneShotTimer
}

// Position is a node location in position units.
type Position struct {
	X, Y, Z float64
}

func (p Position) distanceTo(other Position) float64 {
	dx := other.X - p.X
	dy := other.Y - p.Y
	dz := other.Z - p.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Transmission is an ongoing transmission on the medium.
type Transmission struct {
	Sender    NodeId
	Phy       PhyType
	Channel   ChannelId
	PowerDbm  DbValue
	Frame     []byte
	StartTime uint64
}

type attachment struct {
	receiver Receiver
	pos      Position
}

type Medium struct {
	mu            sync.Mutex
	params        ModelParams
	sched         Scheduler
	nodes         map[NodeId]*attachment
	transmissions map[NodeId]*Transmission
	framesAdded   uint64
}

func NewMedium(sched Scheduler, params ModelParams) *Medium {
	return &Medium{
		params:        params,
		sched:         sched,
		nodes:         make(map[NodeId]*attachment),
		transmissions: make(map[NodeId]*Transmission),
	}
}

func (m *Medium) Params() ModelParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.params
}

// Attach connects a receiver at the given position.
func (m *Medium) Attach(id NodeId, r Receiver, pos Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger.AssertTrue(m.nodes[id] == nil, "node %d already attached", id)
	m.nodes[id] = &attachment{receiver: r, pos: pos}
}

// Detach disconnects a node, dropping its transmission if one is ongoing.
func (m *Medium) Detach(id NodeId) {
	m.mu.Lock()
	delete(m.nodes, id)
	_, transmitting := m.transmissions[id]
	delete(m.transmissions, id)
	m.mu.Unlock()
	if transmitting {
		m.notifyChange(id)
	}
}

func (m *Medium) SetPosition(id NodeId, pos Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.nodes[id]; a != nil {
		a.pos = pos
	}
}

func (m *Medium) Position(id NodeId) (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.nodes[id]; a != nil {
		return a.pos, true
	}
	return Position{}, false
}

// Add starts a transmission of sender. The frame is delivered to every other attached node after
// the propagation delay. A sender has at most one transmission at a time.
func (m *Medium) Add(sender NodeId, phy PhyType, channel ChannelId, powerDbm DbValue, frame []byte) {
	m.mu.Lock()
	logger.AssertTrue(m.transmissions[sender] == nil, "node %d is already transmitting", sender)
	tx := &Transmission{
		Sender:    sender,
		Phy:       phy,
		Channel:   channel,
		PowerDbm:  powerDbm,
		Frame:     append([]byte(nil), frame...),
		StartTime: m.sched.Now(),
	}
	m.transmissions[sender] = tx
	m.framesAdded++
	receivers := m.othersLocked(sender)
	delay := m.params.PropagationDelayNs
	m.mu.Unlock()

	for _, r := range receivers {
		r := r
		m.sched.AfterFunc(delay, func() {
			r.ReceiveFrame(tx.Frame, sender)
		})
	}
	m.notifyChange(sender)
}

// Remove ends the transmission of sender, whether it completed or was aborted.
func (m *Medium) Remove(sender NodeId) {
	m.mu.Lock()
	_, ok := m.transmissions[sender]
	delete(m.transmissions, sender)
	m.mu.Unlock()
	if ok {
		m.notifyChange(sender)
	}
}

// GetTxStartTime returns the start time of the ongoing transmission of sender, if any.
func (m *Medium) GetTxStartTime(sender NodeId) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx := m.transmissions[sender]; tx != nil {
		return tx.StartTime, true
	}
	return 0, false
}

// GetTransmission returns a copy of the ongoing transmission of sender, if any.
func (m *Medium) GetTransmission(sender NodeId) (Transmission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx := m.transmissions[sender]; tx != nil {
		return *tx, true
	}
	return Transmission{}, false
}

// Transmitters returns the ids of all nodes currently transmitting, sorted.
func (m *Medium) Transmitters() []NodeId {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]NodeId, 0, len(m.transmissions))
	for id := range m.transmissions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// GetCurrentRssi returns the summed power sensed by receiver from all other transmissions on the
// same PHY and channel, or RssiMinusInfinity if there are none.
func (m *Medium) GetCurrentRssi(receiver NodeId, phy PhyType, channel ChannelId) DbValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst := m.nodes[receiver]
	if dst == nil {
		return RssiMinusInfinity
	}
	rssi := RssiMinusInfinity
	for id, tx := range m.transmissions {
		if id == receiver || tx.Phy != phy || tx.Channel != channel {
			continue
		}
		p := m.pathRssiLocked(id, dst, tx.PowerDbm)
		if rssi == RssiMinusInfinity {
			rssi = p
		} else {
			rssi = addSignalPowersDbm(rssi, p)
		}
	}
	return clipRssi(rssi)
}

// GetFrameRssi returns the power at which receiver hears the transmission of sender.
func (m *Medium) GetFrameRssi(sender, receiver NodeId) DbValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.transmissions[sender]
	dst := m.nodes[receiver]
	if tx == nil || dst == nil {
		return RssiMinusInfinity
	}
	return clipRssi(m.pathRssiLocked(sender, dst, tx.PowerDbm))
}

func (m *Medium) pathRssiLocked(sender NodeId, dst *attachment, powerDbm DbValue) DbValue {
	src := m.nodes[sender]
	if src == nil {
		return RssiMinusInfinity
	}
	return computeIndoorRssi(src.pos.distanceTo(dst.pos), powerDbm, &m.params)
}

// FramesAdded returns the number of transmissions started on the medium.
func (m *Medium) FramesAdded() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.framesAdded
}

func (m *Medium) othersLocked(id NodeId) []Receiver {
	ids := make([]NodeId, 0, len(m.nodes))
	for other := range m.nodes {
		if other != id {
			ids = append(ids, other)
		}
	}
	sort.Ints(ids)
	receivers := make([]Receiver, len(ids))
	for i, other := range ids {
		receivers[i] = m.nodes[other].receiver
	}
	return receivers
}

func (m *Medium) notifyChange(id NodeId) {
	m.mu.Lock()
	receivers := m.othersLocked(id)
	m.mu.Unlock()
	m.sched.AfterFunc(0, func() {
		for _, r := range receivers {
			r.InterferenceChanged()
		}
	})
}
