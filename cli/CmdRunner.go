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

package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/progctx"
	"github.com/openthread/ot-radiocore/protimer"
	"github.com/openthread/ot-radiocore/radio"
	"github.com/openthread/ot-radiocore/simulation"
)

const (
	Prompt = "> "

	exitTaskTimeout = 100 * time.Millisecond
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	sim           *simulation.Simulation
	ctx           *progctx.ProgCtx
	contextNodeId NodeId
	help          Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation) *CmdRunner {
	cr := &CmdRunner{
		ctx:           ctx,
		sim:           sim,
		contextNodeId: InvalidNodeId,
		help:          newHelp(),
	}
	sim.SetCmdRunner(cr)
	return cr
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

// HandleCommand runs one line typed by the user. Commands that take an optional node apply to the
// context node, if one was selected with 'node <id>'.
func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	if rt.contextNodeId == InvalidNodeId {
		return Prompt
	} else {
		return fmt.Sprintf("node %d%s", rt.contextNodeId, Prompt)
	}
}

func (rt *CmdRunner) GetContextNodeId() NodeId {
	return rt.contextNodeId
}

func (rt *CmdRunner) enterNodeContext(nodeid NodeId) bool {
	logger.AssertTrue(nodeid == InvalidNodeId || nodeid > 0)
	if rt.contextNodeId == nodeid {
		return false
	}
	rt.contextNodeId = nodeid
	return true
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Nodes != nil {
		rt.executeLsNodes(cc, cmd.Nodes)
	} else if cmd.Add != nil {
		rt.executeAddNode(cc, cmd.Add)
	} else if cmd.Del != nil {
		rt.executeDelNode(cc, cmd.Del)
	} else if cmd.Move != nil {
		rt.executeMoveNode(cc, cmd.Move)
	} else if cmd.Node != nil {
		rt.executeNode(cc, cmd.Node)
	} else if cmd.State != nil {
		rt.executeState(cc, cmd.State)
	} else if cmd.Signal != nil {
		rt.executeSignal(cc, cmd.Signal)
	} else if cmd.Force != nil {
		rt.executeForce(cc, cmd.Force)
	} else if cmd.Send != nil {
		rt.executeSend(cc, cmd.Send)
	} else if cmd.Rx != nil {
		rt.executeRx(cc, cmd.Rx)
	} else if cmd.Radio != nil {
		rt.executeRadio(cc, cmd.Radio)
	} else if cmd.Protimer != nil {
		rt.executeProtimer(cc, cmd.Protimer)
	} else if cmd.Lbt != nil {
		rt.executeLbt(cc, cmd.Lbt)
	} else if cmd.Irq != nil {
		rt.executeIrq(cc, cmd.Irq)
	} else if cmd.Speed != nil {
		rt.executeSpeed(cc, cmd.Speed)
	} else if cmd.Time != nil {
		rt.executeTime(cc, cmd.Time)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Metrics != nil {
		rt.executeMetrics(cc, cmd.Metrics)
	} else if cmd.Energy != nil {
		rt.executeEnergy(cc, cmd.Energy)
	} else if cmd.Export != nil {
		rt.executeExport(cc, cmd.Export)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) postAsyncWait(cc *CommandContext, f func(sim *simulation.Simulation)) {
	done := make(chan struct{})
	if rt.sim.PostAsync(func() {
		defer close(done) // even if f() fails execution, 'done' should be closed.
		f(rt.sim)         // executing task (later) may set cc.err status if error occurs.
	}) {
		select {
		case <-done:
		case <-rt.sim.Done():
			select {
			case <-done:
			case <-time.After(exitTaskTimeout):
				cc.error(simulation.CommandInterruptedError)
			}
		}
	} else {
		cc.error(simulation.CommandInterruptedError) // report cc error if not accepted.
	}
}

// getNode resolves an optional node selector; without one, the context node is used.
func (rt *CmdRunner) getNode(sim *simulation.Simulation, sel *NodeSelector) (*simulation.Node, error) {
	nodeid := rt.contextNodeId
	if sel != nil {
		nodeid = sel.Id
	}
	if nodeid == InvalidNodeId {
		return nil, errors.Errorf("no node selected")
	}
	node := sim.Node(nodeid)
	if node == nil {
		return nil, errors.Errorf("node %d not found", nodeid)
	}
	return node, nil
}

// withNode runs f on the simulation goroutine for the selected node.
func (rt *CmdRunner) withNode(cc *CommandContext, sel *NodeSelector, f func(node *simulation.Node)) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		node, err := rt.getNode(sim, sel)
		if err != nil {
			cc.error(err)
			return
		}
		f(node)
	})
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	// determine duration and desired speed of the Go simulation period.
	timeDurToGo, err := time.ParseDuration(cmd.Time)
	if cmd.Ever == nil && err != nil {
		timeDurToGo, err = time.ParseDuration(cmd.Time + "s") // try parsing as seconds
		if err != nil {
			cc.errorf("could not parse time duration: %s", cmd.Time)
			return
		}
	}
	if cmd.Speed != nil {
		speed := *cmd.Speed
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			sim.SetSpeed(speed)
		})
	}

	if cmd.Ever == nil {
		rt.waitGo(cc, timeDurToGo)
		return
	}
	for rt.ctx.Err() == nil && cc.err == nil { // run forever but stop if rt.ctx.Err indicates "done"
		rt.waitGo(cc, time.Hour)
	}
}

func (rt *CmdRunner) waitGo(cc *CommandContext, d time.Duration) {
	select {
	case <-rt.sim.Go(d):
	case <-rt.sim.Done():
		cc.error(simulation.CommandInterruptedError)
	}
}

func (rt *CmdRunner) executeSpeed(cc *CommandContext, cmd *SpeedCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if cmd.Speed == nil && cmd.Max == nil {
			cc.outputf("%v\n", sim.GetSpeed())
		} else if cmd.Max != nil {
			sim.SetSpeed(simulation.MaxSpeed)
		} else {
			sim.SetSpeed(*cmd.Speed)
		}
	})
}

func (rt *CmdRunner) executeAddNode(cc *CommandContext, cmd *AddCmd) {
	logger.Debugf("Add: %#v", *cmd)
	cfg := simulation.DefaultNodeConfig()

	if cmd.X != nil || cmd.Y != nil || cmd.Z != nil {
		var x, y, z float64
		if cmd.X != nil {
			x = *cmd.X
		}
		if cmd.Y != nil {
			y = *cmd.Y
		}
		if cmd.Z != nil {
			z = *cmd.Z
		}
		cfg.SetPosition(x, y, z)
	}
	if cmd.Id != nil {
		cfg.ID = cmd.Id.Val
	}
	if cmd.Channel != nil {
		ch := cmd.Channel.Val
		cfg.Channel = &ch
	}
	if cmd.Power != nil {
		p, err := cmd.Power.Dbm()
		if err != nil {
			cc.errorf("invalid power: %s", cmd.Power.Val)
			return
		}
		cfg.TxPowerDbm = &p
	}

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		node, err := sim.AddNode(&cfg)
		if err != nil {
			cc.error(err)
			return
		}

		cc.outputf("%d\n", node.Id)
	})
}

func (rt *CmdRunner) executeDelNode(cc *CommandContext, cmd *DelCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, sel := range getUniqueAndSorted(cmd.Nodes) {
			if sim.Node(sel.Id) == nil {
				cc.outputf("Warn: node %d not found, skipping\n", sel.Id)
				continue
			}

			if err := sim.DeleteNode(sel.Id); err != nil {
				cc.errorf("node %d, %+v", sel.Id, err)
			}
			if rt.contextNodeId == sel.Id {
				rt.enterNodeContext(InvalidNodeId)
			}
		}
	})
}

func (rt *CmdRunner) executeMoveNode(cc *CommandContext, cmd *MoveCmd) {
	z := 0.0
	if cmd.Z != nil {
		z = *cmd.Z
	}
	rt.withNode(cc, &cmd.Target, func(node *simulation.Node) {
		node.MoveTo(cmd.X, cmd.Y, z)
	})
}

func (rt *CmdRunner) executeNode(cc *CommandContext, cmd *NodeCmd) {
	rt.withNode(cc, &cmd.Node, func(node *simulation.Node) {
		rt.enterNodeContext(node.Id)
	})
}

func (rt *CmdRunner) executeLsNodes(cc *CommandContext, cmd *NodesCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.VisitNodesInOrder(func(node *simulation.Node) {
			pos := node.Position()
			st := node.Radio().Status()
			cc.outputf("id=%d\tx=%.1f\ty=%.1f\tz=%.1f\tstate=%s\tch=%d\tpower=%.1f\n", node.Id, pos.X, pos.Y, pos.Z,
				st.State, st.Channel, st.TxPowerDbm)
		})
	})
}

// stateInfo is the 'state' command output.
type stateInfo struct {
	Id        NodeId   `yaml:"id"`
	State     string   `yaml:"state"`
	History   []string `yaml:"history"`
	TxState   string   `yaml:"tx"`
	RxState   string   `yaml:"rx"`
	Channel   int      `yaml:"ch"`
	Power     float64  `yaml:"power"`
	TxEnable  bool     `yaml:"tx_enable"`
	RxEnable  bool     `yaml:"rx_enable"`
	Rssi      float64  `yaml:"rssi"`
	Lbt       string   `yaml:"lbt"`
	TxPending int      `yaml:"tx_pending"`
	RxStored  int      `yaml:"rx_stored"`
	TxFrames  uint64   `yaml:"tx_frames"`
	RxFrames  uint64   `yaml:"rx_frames"`
	Collided  uint64   `yaml:"collided"`
	Dropped   uint64   `yaml:"dropped"`
}

func newStateInfo(st radio.Status) stateInfo {
	info := stateInfo{
		Id:        st.Id,
		State:     st.State.String(),
		TxState:   st.TxState.String(),
		RxState:   st.RxState.String(),
		Channel:   st.Channel,
		Power:     st.TxPowerDbm,
		TxEnable:  st.TxEnable,
		RxEnable:  st.RxEnable,
		Rssi:      st.Rssi,
		Lbt:       st.LbtState.String(),
		TxPending: st.TxPending,
		RxStored:  st.RxStored,
		TxFrames:  st.Rac.FramesTransmitted,
		RxFrames:  st.Rac.FramesReceived,
		Collided:  st.Rac.FramesCollided,
		Dropped:   st.Rac.FramesDropped + st.Rac.FramesNotListening,
	}
	for _, s := range st.History {
		info.History = append(info.History, s.String())
	}
	return info
}

func (rt *CmdRunner) executeState(cc *CommandContext, cmd *StateCmd) {
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		cc.outputItemsAsYaml(newStateInfo(node.Radio().Status()))
	})
}

func (rt *CmdRunner) executeSignal(cc *CommandContext, cmd *SignalCmd) {
	sig, ok := ParseSignal(cmd.Signal)
	if !ok {
		cc.errorf("unknown signal: %s", cmd.Signal)
		return
	}
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		node.Radio().Signal(sig)
		cc.outputf("%s\n", node.State())
	})
}

func (rt *CmdRunner) executeForce(cc *CommandContext, cmd *ForceCmd) {
	state, ok := ParseRadioState(cmd.State)
	if !ok || state == RadioPowerOnReset {
		cc.errorf("unknown radio state: %s", cmd.State)
		return
	}
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		node.Radio().ForceState(state)
		cc.outputf("%s\n", node.State())
	})
}

func (rt *CmdRunner) executeSend(cc *CommandContext, cmd *SendCmd) {
	var frame []byte
	if cmd.Data != nil {
		var err error
		frame, err = hex.DecodeString(strings.Trim(*cmd.Data, "\""))
		if err != nil {
			cc.errorf("frame data is not hex: %v", err)
			return
		}
	} else {
		frame = make([]byte, *cmd.Len)
		for i := range frame {
			frame[i] = byte(i)
		}
	}
	if len(frame) == 0 {
		cc.errorf("empty frame")
		return
	}

	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		if cmd.Csma == nil {
			node.Send(frame)
			return
		}
		tr := node.Radio()
		tr.QueueTxFrame(frame)
		cc.error(tr.StartCsmaCa(tr.Config().Protimer.Lbt))
	})
}

func (rt *CmdRunner) executeRx(cc *CommandContext, cmd *RxCmd) {
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		if cmd.OnOrOff != nil {
			node.Listen(cmd.OnOrOff.On != nil)
			return
		}
		for {
			frame, ok := node.Radio().ReadRxFrame()
			if !ok {
				break
			}
			cc.outputf("len=%d\tcrc_error=%v\tdata=%x\n", len(frame.Data), frame.CrcError, frame.Data)
		}
	})
}

func (rt *CmdRunner) executeRadio(cc *CommandContext, cmd *RadioCmd) {
	var power *float64
	if cmd.Power != nil {
		p, err := cmd.Power.Dbm()
		if err != nil {
			cc.errorf("invalid power: %s", cmd.Power.Val)
			return
		}
		power = &p
	}
	if cmd.Channel != nil && (cmd.Channel.Val < MinChannelNumber || cmd.Channel.Val > MaxChannelNumber) {
		cc.errorf("channel %d out of range [%d, %d]", cmd.Channel.Val, MinChannelNumber, MaxChannelNumber)
		return
	}

	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		tr := node.Radio()
		if cmd.Channel != nil {
			tr.SetChannel(cmd.Channel.Val)
		}
		if power != nil {
			tr.SetTxPower(*power)
		}
		st := tr.Status()
		cc.outputf("ch=%d\tpower=%.1f\n", st.Channel, st.TxPowerDbm)
	})
}

func (rt *CmdRunner) executeProtimer(cc *CommandContext, cmd *ProtimerCmd) {
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		tr := node.Radio()
		switch cmd.Action {
		case "start":
			tr.WithProtimer(func(p *protimer.ProtocolTimer) {
				p.SetPreCounterTop(0, 0)
				p.SetPreCounterSource(protimer.PreCounterClock)
				p.SetBaseCounterSource(protimer.SourcePreCounterOverflow)
				p.SetWrapCounterSource(protimer.SourceBaseCounterOverflow)
				p.Start()
			})
		case "stop":
			tr.WithProtimer(func(p *protimer.ProtocolTimer) {
				p.Stop()
			})
		case "reset":
			tr.WithProtimer(func(p *protimer.ProtocolTimer) {
				p.Reset()
			})
		}
		st := tr.Status()
		cc.outputf("running=%v\tpre=%d\tbase=%d\twrap=%d\n", st.ProtimerRunning, st.Protimer.Pre, st.Protimer.Base,
			st.Protimer.Wrap)
	})
}

func (rt *CmdRunner) executeLbt(cc *CommandContext, cmd *LbtCmd) {
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		node.Radio().WithProtimer(func(p *protimer.ProtocolTimer) {
			if cmd.Stop != nil {
				p.ListenBeforeTalkStop()
			}
			cc.outputf("state=%s\tretries=%d\texponent=%d\n", p.LbtState(), p.LbtRetryCounter(), p.LbtExponent())
		})
	})
}

func (rt *CmdRunner) executeIrq(cc *CommandContext, cmd *IrqCmd) {
	rt.withNode(cc, cmd.Node, func(node *simulation.Node) {
		tr := node.Radio()
		for b := interrupts.Block(0); b < interrupts.NumBlocks; b++ {
			for c := interrupts.Context(0); c < interrupts.NumContexts; c++ {
				line := interrupts.Line{Block: b, Context: c}
				cc.outputf("%-12s flags=%08x\tline=%v\n", line, tr.InterruptFlags(b, c), tr.InterruptLine(b, c))
				if cmd.Clear != nil {
					tr.ClearInterruptFlags(b, c, ^uint64(0))
				}
			}
		}
	})
}

func (rt *CmdRunner) executeTime(cc *CommandContext, cmd *TimeCmd) {
	var now uint64
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		now = sim.Now()
	})
	cc.outputf("%d\n", now/1000)
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeMetrics(cc *CommandContext, cmd *MetricsCmd) {
	var lines []string
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		var err error
		lines, err = radio.FormatMetrics(sim.Registry())
		cc.error(err)
	})
	for _, line := range lines {
		cc.outputf("%s\n", line)
	}
}

func (rt *CmdRunner) executeEnergy(cc *CommandContext, cmd *EnergyCmd) {
	var report strings.Builder
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		now := sim.Now()
		if cmd.Save == nil {
			sim.Energy().WriteEnergyByNodes(&report, now)
			return
		}
		name := ""
		if cmd.Save.Name != nil {
			name = strings.Trim(*cmd.Save.Name, "\"")
		}
		dir := sim.GetConfig().LogDir
		if dir == "" {
			dir = "."
		}
		cc.error(sim.Energy().SaveEnergyDataToFile(dir, name, now))
	})
	cc.outputStr(report.String())
}

func (rt *CmdRunner) executeExport(cc *CommandContext, cmd *ExportCmd) {
	var data []byte
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		var err error
		data, err = sim.ExportConfig()
		cc.error(err)
	})
	if cc.err != nil {
		return
	}
	if cmd.Filename == nil {
		cc.outputStr(string(data))
		return
	}
	filename := strings.Trim(*cmd.Filename, "\"")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		cc.error(errors.Wrapf(err, "export to %s", filename))
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	if rt.enterNodeContext(InvalidNodeId) {
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.Stop()
	})
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}
