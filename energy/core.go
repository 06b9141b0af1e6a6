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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radiocore/logger"
	. "github.com/openthread/ot-radiocore/types"
)

// EnergyAnalyser accounts radio state residency of every node. State changes are reported from
// transceiver callbacks, so all methods are safe for concurrent use.
type EnergyAnalyser struct {
	lock                 sync.Mutex
	nodes                map[NodeId]*NodeEnergy
	networkHistory       []NetworkConsumption
	energyHistoryByNodes [][]NodeConsumption
	title                string
}

func (e *EnergyAnalyser) AddNode(nodeID NodeId, timestamp uint64, state RadioState) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if _, ok := e.nodes[nodeID]; ok {
		return
	}
	e.nodes[nodeID] = newNode(nodeID, timestamp, state)
}

func (e *EnergyAnalyser) DeleteNode(nodeID NodeId) {
	e.lock.Lock()
	defer e.lock.Unlock()
	delete(e.nodes, nodeID)

	if len(e.nodes) == 0 {
		e.clearEnergyData()
	}
}

// OnRadioState records a state entry of a node at timestamp. Unknown nodes are ignored.
func (e *EnergyAnalyser) OnRadioState(nodeID NodeId, state RadioState, timestamp uint64) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if node := e.nodes[nodeID]; node != nil {
		node.SetRadioState(state, timestamp)
	}
}

// Residency returns the ns a node has spent in each state up to timestamp.
func (e *EnergyAnalyser) Residency(nodeID NodeId, timestamp uint64) ([NumRadioStates]uint64, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	node := e.nodes[nodeID]
	if node == nil {
		return [NumRadioStates]uint64{}, false
	}
	node.ComputeRadioState(timestamp)
	return node.radio.Spent, true
}

// GetLatestEnergyOfNodes brings every node up to timestamp and returns its consumption, sorted by id.
func (e *EnergyAnalyser) GetLatestEnergyOfNodes(timestamp uint64) []NodeConsumption {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.snapshot(timestamp)
}

func (e *EnergyAnalyser) snapshot(timestamp uint64) []NodeConsumption {
	ids := make([]NodeId, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	res := make([]NodeConsumption, 0, len(ids))
	for _, id := range ids {
		node := e.nodes[id]
		node.ComputeRadioState(timestamp)
		res = append(res, node.Consumption())
	}
	return res
}

func (e *EnergyAnalyser) GetNetworkEnergyHistory() []NetworkConsumption {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]NetworkConsumption(nil), e.networkHistory...)
}

// StoreNetworkEnergy appends a snapshot of all nodes and of the network average.
func (e *EnergyAnalyser) StoreNetworkEnergy(timestamp uint64) {
	e.lock.Lock()
	defer e.lock.Unlock()

	nodesEnergySnapshot := e.snapshot(timestamp)
	networkSnapshot := NetworkConsumption{
		Timestamp: timestamp,
	}
	netSize := float64(len(nodesEnergySnapshot))
	for _, n := range nodesEnergySnapshot {
		networkSnapshot.EnergyConsDisabled += n.Disabled / netSize
		networkSnapshot.EnergyConsIdle += n.Idle / netSize
		networkSnapshot.EnergyConsTx += n.Tx / netSize
		networkSnapshot.EnergyConsRx += n.Rx / netSize
	}

	e.networkHistory = append(e.networkHistory, networkSnapshot)
	e.energyHistoryByNodes = append(e.energyHistoryByNodes, nodesEnergySnapshot)
}

// SaveEnergyDataToFile writes <dir>/energy_results/<name>_nodes.txt and <name>.txt.
func (e *EnergyAnalyser) SaveEnergyDataToFile(dir string, name string, timestamp uint64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if name == "" {
		if e.title == "" {
			name = "energy"
		} else {
			name = e.title
		}
	}

	resultDir := filepath.Join(dir, "energy_results")
	if err := os.MkdirAll(resultDir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", resultDir)
	}

	path := filepath.Join(resultDir, name)
	fileNodes, err := os.Create(path + "_nodes.txt")
	if err != nil {
		return errors.Wrapf(err, "create energy file")
	}
	defer fileNodes.Close()

	fileNetwork, err := os.Create(path + ".txt")
	if err != nil {
		return errors.Wrapf(err, "create energy file")
	}
	defer fileNetwork.Close()

	e.writeEnergyByNodes(fileNodes, timestamp)
	e.writeNetworkEnergy(fileNetwork, timestamp)
	logger.Infof("energy data saved to %s", path)
	return nil
}

// WriteEnergyByNodes writes the per-node table of consumption up to timestamp.
func (e *EnergyAnalyser) WriteEnergyByNodes(w io.Writer, timestamp uint64) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.writeEnergyByNodes(w, timestamp)
}

func (e *EnergyAnalyser) writeEnergyByNodes(w io.Writer, timestamp uint64) {
	fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000000)
	fmt.Fprintf(w, "ID\tDisabled (mJ)\tIdle (mJ)\tTransmitting (mJ)\tReceiving (mJ)\n")
	for _, n := range e.snapshot(timestamp) {
		fmt.Fprintf(w, "%d\t%f\t%f\t%f\t%f\n", n.NodeId, n.Disabled, n.Idle, n.Tx, n.Rx)
	}
}

func (e *EnergyAnalyser) writeNetworkEnergy(w io.Writer, timestamp uint64) {
	fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000000)
	fmt.Fprintf(w, "Time (ms)\tDisabled (mJ)\tIdle (mJ)\tTransmitting (mJ)\tReceiving (mJ)\n")
	for _, snapshot := range e.networkHistory {
		fmt.Fprintf(w, "%d\t%f\t%f\t%f\t%f\n",
			snapshot.Timestamp/1000000,
			snapshot.EnergyConsDisabled,
			snapshot.EnergyConsIdle,
			snapshot.EnergyConsTx,
			snapshot.EnergyConsRx,
		)
	}
}

func (e *EnergyAnalyser) ClearEnergyData() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.clearEnergyData()
}

func (e *EnergyAnalyser) clearEnergyData() {
	logger.Debugf("Node's energy data cleared")
	e.networkHistory = make([]NetworkConsumption, 0, 3600)
	e.energyHistoryByNodes = make([][]NodeConsumption, 0, 3600)
}

func (e *EnergyAnalyser) SetTitle(title string) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.title = title
}

func NewEnergyAnalyser() *EnergyAnalyser {
	return &EnergyAnalyser{
		nodes:                make(map[NodeId]*NodeEnergy),
		networkHistory:       make([]NetworkConsumption, 0, 3600), //1 sample every 30s for 1 hour
		energyHistoryByNodes: make([][]NodeConsumption, 0, 3600),
	}
}
