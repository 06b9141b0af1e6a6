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
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/simonlingoogle/go-simplelogger"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/energy"
	"github.com/openthread/ot-radiocore/interference"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/prng"
	"github.com/openthread/ot-radiocore/progctx"
	"github.com/openthread/ot-radiocore/radio"
	"github.com/openthread/ot-radiocore/vtime"
)

const (
	// goStepNs is the virtual time slice between task handling and speed pacing.
	goStepNs uint64 = 1000000
)

type goDuration struct {
	duration time.Duration
	done     chan struct{}
}

// Simulation owns the virtual clock, the medium and all nodes. Nodes are only added, deleted
// and advanced from the goroutine that calls Run(); other goroutines use PostAsync.
type Simulation struct {
	Started        chan struct{}
	ctx            *progctx.ProgCtx
	stopped        bool
	cfg            *Config
	clock          *vtime.Clock
	medium         *interference.Medium
	registry       *prometheus.Registry
	metrics        *radio.Metrics
	energy         *energy.EnergyAnalyser
	nextEnergyTs   uint64
	nodes          map[NodeId]*Node
	nodePlacer     *NodeAutoPlacer
	cmdRunner      CmdRunner
	speed          float64
	taskChan       chan func()
	goDurationChan chan goDuration
}

func NewSimulation(ctx *progctx.ProgCtx, cfg *Config) (*Simulation, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prng.Init(cfg.RandomSeed)
	if lv, err := logger.ParseLevelString(cfg.LogLevel); err == nil {
		logger.SetLevel(lv)
	} else {
		return nil, errors.Wrapf(err, "simulation: log level")
	}

	s := &Simulation{
		Started:        make(chan struct{}),
		ctx:            ctx,
		cfg:            cfg,
		clock:          vtime.NewClock(),
		registry:       prometheus.NewRegistry(),
		nodes:          map[NodeId]*Node{},
		nodePlacer:     NewNodeAutoPlacer(),
		speed:          cfg.Speed,
		taskChan:       make(chan func(), 100),
		goDurationChan: make(chan goDuration, 10),
	}
	s.medium = interference.NewMedium(s.clock, cfg.Medium)
	s.metrics = radio.NewMetrics(s.registry)
	s.energy = energy.NewEnergyAnalyser()
	s.nextEnergyTs = energy.ComputePeriod
	logger.SetSimTimeSource(s.clock.Now)

	if err := s.ImportNodes(cfg.Nodes); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

// AddNode creates a node and attaches it to the medium. A non-positive cfg.ID picks the lowest free id.
func (s *Simulation) AddNode(cfg *NodeConfig) (*Node, error) {
	nodeid := cfg.ID
	if nodeid <= 0 {
		nodeid = s.genNodeId()
	}
	if nodeid > MaxNodeId {
		return nil, errors.Errorf("node id %d out of range", nodeid)
	}
	if s.nodes[nodeid] != nil {
		return nil, errors.Errorf("node %d already exists", nodeid)
	}

	if cfg.IsAutoPlaced() {
		cfg.SetPosition(s.nodePlacer.NextNodePosition())
	} else {
		s.nodePlacer.UpdateReference(cfg.Position[0], cfg.Position[1], cfg.Position[2])
	}

	simplelogger.Debugf("simulation:AddNode: id=%d %+v", nodeid, *cfg)
	node, err := newNode(s, nodeid, cfg)
	if err != nil {
		simplelogger.Errorf("simulation add node failed: %v", err)
		s.nodePlacer.ReuseNextNodePosition()
		return nil, err
	}
	s.nodes[nodeid] = node
	s.energy.AddNode(nodeid, s.clock.Now(), node.radio.State())
	node.radio.SetStateObserver(func(state RadioState, ts uint64) {
		s.energy.OnRadioState(nodeid, state, ts)
	})
	node.DisplayPendingLogEntries(s.clock.Now())
	return node, nil
}

func (s *Simulation) genNodeId() NodeId {
	nodeid := 1
	for s.nodes[nodeid] != nil {
		nodeid += 1
	}
	return nodeid
}

func (s *Simulation) DeleteNode(nodeid NodeId) error {
	node := s.nodes[nodeid]
	if node == nil {
		return errors.Errorf("node not found: %d", nodeid)
	}
	node.Exit()
	delete(s.nodes, nodeid)
	s.energy.DeleteNode(nodeid)
	return nil
}

func (s *Simulation) Node(nodeid NodeId) *Node {
	return s.nodes[nodeid]
}

func (s *Simulation) Nodes() map[NodeId]*Node {
	return s.nodes
}

// GetNodes returns the sorted ids of all nodes.
func (s *Simulation) GetNodes() []NodeId {
	nodeids := make([]NodeId, 0, len(s.nodes))
	for id := range s.nodes {
		nodeids = append(nodeids, id)
	}
	sort.Ints(nodeids)
	return nodeids
}

func (s *Simulation) VisitNodesInOrder(cb func(node *Node)) {
	for _, nodeid := range s.GetNodes() {
		cb(s.nodes[nodeid])
	}
}

// Now returns the current virtual time in ns.
func (s *Simulation) Now() uint64 {
	return s.clock.Now()
}

func (s *Simulation) Clock() *vtime.Clock {
	return s.clock
}

func (s *Simulation) Medium() *interference.Medium {
	return s.medium
}

func (s *Simulation) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Simulation) Energy() *energy.EnergyAnalyser {
	return s.energy
}

func (s *Simulation) GetConfig() *Config {
	return s.cfg
}

func (s *Simulation) SetCmdRunner(cmdRunner CmdRunner) {
	s.cmdRunner = cmdRunner
}

func (s *Simulation) SetSpeed(speed float64) {
	if speed <= 0 || speed > MaxSpeed {
		speed = MaxSpeed
	}
	s.speed = speed
}

func (s *Simulation) GetSpeed() float64 {
	return s.speed
}

// Run handles posted tasks and time advance requests until the program context is done.
func (s *Simulation) Run() {
	s.ctx.WaitAdd("simulation", 1)
	defer s.ctx.WaitDone("simulation")
	defer simplelogger.Debugf("simulation exit.")
	defer s.Stop()

	close(s.Started)
	done := s.ctx.Done()
loop:
	for {
		select {
		case f := <-s.taskChan:
			s.runTask(f)
		case d := <-s.goDurationChan:
			s.goFor(d.duration)
			close(d.done)
			if s.ctx.Err() != nil {
				break loop
			}
		case <-done:
			break loop
		}
	}
}

// Go advances the virtual time by duration. The returned channel is closed when done, or right
// away if the simulation is exiting.
func (s *Simulation) Go(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if s.ctx.Err() != nil {
		close(done)
		return done
	}
	select {
	case s.goDurationChan <- goDuration{duration: duration, done: done}:
	case <-s.ctx.Done():
		close(done)
	}
	return done
}

// PostAsync runs f on the simulation goroutine. It returns false if the simulation is exiting and
// f will not run.
func (s *Simulation) PostAsync(f func()) bool {
	select {
	case s.taskChan <- f:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Done is closed when the simulation exits.
func (s *Simulation) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Simulation) runTask(f func()) {
	defer func() {
		err := recover()
		if err != nil {
			simplelogger.Errorf("simulation handle task failed: %+v", err)
		}
	}()
	f()
}

func (s *Simulation) handleTasks() {
loop:
	for {
		select {
		case f := <-s.taskChan:
			s.runTask(f)
		default:
			break loop
		}
	}
}

// goFor advances the clock in slices, handling posted tasks in between and pacing against
// the wall clock unless running at MaxSpeed.
func (s *Simulation) goFor(duration time.Duration) {
	start := s.clock.Now()
	end := start + uint64(duration)
	if end < start {
		end = Ever
	}
	realStart := time.Now()

	for s.clock.Now() < end {
		s.handleTasks()
		if s.ctx.Err() != nil {
			break
		}

		next := end
		if next-s.clock.Now() > goStepNs {
			next = s.clock.Now() + goStepNs
		}
		if s.speed < MaxSpeed {
			realTarget := realStart.Add(time.Duration(float64(next-start) / s.speed))
			if wait := time.Until(realTarget); wait > 0 {
				time.Sleep(wait)
			}
		}
		s.clock.RunUntil(next)
		s.displayPendingLogEntries()
		s.sampleEnergy()
	}
}

// sampleEnergy stores a network energy snapshot once per energy.ComputePeriod of virtual time.
func (s *Simulation) sampleEnergy() {
	now := s.clock.Now()
	if now < s.nextEnergyTs {
		return
	}
	s.energy.StoreNetworkEnergy(now)
	for s.nextEnergyTs <= now {
		s.nextEnergyTs += energy.ComputePeriod
	}
}

func (s *Simulation) displayPendingLogEntries() {
	ts := s.clock.Now()
	for _, node := range s.nodes {
		node.DisplayPendingLogEntries(ts)
	}
}

// Stop closes every node. It is safe to call more than once.
func (s *Simulation) Stop() {
	if s.stopped {
		return
	}

	simplelogger.Infof("stopping simulation and closing nodes ...")
	s.stopped = true
	for _, nodeid := range s.GetNodes() {
		s.nodes[nodeid].Exit()
	}
	s.nodes = map[NodeId]*Node{}
	if s.ctx != nil {
		s.ctx.Cancel("simulation-stop")
	}
	simplelogger.Debugf("all simulation nodes closed.")
}
