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
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	err := parseBytes([]byte("wrongcmd"), &cmd)
	assert.NotNil(t, err)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add"), &cmd))
	assert.NotNil(t, cmd.Add)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add x 100 y 200"), &cmd))
	assert.True(t, *cmd.Add.X == 100 && *cmd.Add.Y == 200 && cmd.Add.Z == nil)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add id 100 ch 15"), &cmd))
	assert.True(t, cmd.Add.Id.Val == 100 && cmd.Add.Channel.Val == 15)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add power -10 x 1.5 id 3"), &cmd))
	p, err := cmd.Add.Power.Dbm()
	assert.Nil(t, err)
	assert.Equal(t, -10.0, p)
	assert.Equal(t, 1.5, *cmd.Add.X)
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add power 3.5"), &cmd))
	p, _ = cmd.Add.Power.Dbm()
	assert.Equal(t, 3.5, p)

	assert.True(t, parseBytes([]byte("del 1"), &cmd) == nil && cmd.Del != nil)
	assert.True(t, parseBytes([]byte("del 1 2 3"), &cmd) == nil && cmd.Del != nil)
	assert.True(t, parseBytes([]byte("del"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)
	assert.True(t, parseBytes([]byte("export"), &cmd) == nil && cmd.Export != nil)
	assert.True(t, parseBytes([]byte("export \"net.yaml\""), &cmd) == nil && cmd.Export.Filename != nil)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("force 2 RxSearch"), &cmd))
	assert.True(t, cmd.Force.Node.Id == 2 && cmd.Force.State == "RxSearch")
	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("force Off"), &cmd))
	assert.True(t, cmd.Force.Node == nil && cmd.Force.State == "Off")

	assert.Nil(t, parseBytes([]byte("go 1"), &cmd))
	assert.NotNil(t, cmd.Go)
	assert.Nil(t, parseBytes([]byte("go 1.1"), &cmd))
	assert.Nil(t, parseBytes([]byte("go 64us"), &cmd))
	assert.Nil(t, parseBytes([]byte("go ever"), &cmd))
	assert.Nil(t, parseBytes([]byte("go 100 speed 0.5"), &cmd))

	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	assert.True(t, parseBytes([]byte("help send"), &cmd) == nil && cmd.Help.HelpTopic == "send")

	assert.True(t, parseBytes([]byte("irq"), &cmd) == nil && cmd.Irq != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("irq 1 clear"), &cmd) == nil && cmd.Irq.Clear != nil)

	assert.True(t, parseBytes([]byte("lbt"), &cmd) == nil && cmd.Lbt != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("lbt 3 stop"), &cmd) == nil && cmd.Lbt.Stop != nil && cmd.Lbt.Node.Id == 3)

	assert.True(t, parseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel.Level == "debug")
	assert.True(t, parseBytes([]byte("log xyz"), &cmd) != nil)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("energy"), &cmd) == nil && cmd.Energy != nil && cmd.Energy.Save == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("energy save"), &cmd) == nil && cmd.Energy.Save != nil && cmd.Energy.Save.Name == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("energy save \"run1\""), &cmd) == nil && strings.Trim(*cmd.Energy.Save.Name, "\"") == "run1")
	assert.True(t, parseBytes([]byte("energy load"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("metrics"), &cmd) == nil && cmd.Metrics != nil)
	assert.True(t, parseBytes([]byte("move 1 20 30"), &cmd) == nil && cmd.Move != nil)
	assert.True(t, parseBytes([]byte("move 1 20"), &cmd) != nil)
	assert.True(t, parseBytes([]byte("node 1"), &cmd) == nil && cmd.Node.Node.Id == 1)
	assert.True(t, parseBytes([]byte("nodes"), &cmd) == nil && cmd.Nodes != nil)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("protimer"), &cmd) == nil && cmd.Protimer.Action == "")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("protimer 1 start"), &cmd) == nil && cmd.Protimer.Action == "start")
	assert.True(t, parseBytes([]byte("protimer 1 go"), &cmd) != nil)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("radio 1 ch 20 power -3"), &cmd) == nil && cmd.Radio.Channel.Val == 20)
	assert.Equal(t, "-3", cmd.Radio.Power.Val)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("rx 2 on"), &cmd) == nil && cmd.Rx.OnOrOff.On != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("rx off"), &cmd) == nil && cmd.Rx.OnOrOff.Off != nil && cmd.Rx.Node == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("rx"), &cmd) == nil && cmd.Rx.OnOrOff == nil)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("send 1 \"0102ff\""), &cmd) == nil && cmd.Send.Data != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("send len 20 csma"), &cmd) == nil && *cmd.Send.Len == 20 && cmd.Send.Csma != nil)
	assert.True(t, parseBytes([]byte("send 1"), &cmd) != nil)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("signal 1 TxEnable"), &cmd) == nil && cmd.Signal.Signal == "TxEnable")

	assert.True(t, parseBytes([]byte("speed"), &cmd) == nil && cmd.Speed != nil)
	assert.True(t, parseBytes([]byte("speed max"), &cmd) == nil && cmd.Speed.Max != nil)
	assert.True(t, parseBytes([]byte("speed 2.5"), &cmd) == nil && *cmd.Speed.Speed == 2.5)

	assert.True(t, parseBytes([]byte("state"), &cmd) == nil && cmd.State != nil)
	assert.True(t, parseBytes([]byte("time"), &cmd) == nil && cmd.Time != nil)
}

type mockCliHandler struct {
	expectedCmd string
	handleError error
	handleCount int
	t           *testing.T
}

func (hnd *mockCliHandler) HandleCommand(cmd string, output io.Writer) error {
	assert.Equal(hnd.t, hnd.expectedCmd, cmd)
	hnd.handleCount += 1
	return hnd.handleError
}

func (hnd *mockCliHandler) GetPrompt() string {
	return "> "
}

func TestCliStartStop(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "help",
		handleError: nil,
		t:           t,
	}

	opt := DefaultCliOptions()
	opt.HistoryFile = ""
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "# a comment\nhelp\n")
	time.Sleep(time.Millisecond * 500)
	_ = w.Close()
	Cli.Stop()

	assert.Nil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)
}

func TestCliCommandNotDefined(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "xyz",
		handleError: fmt.Errorf("undefined command"),
		t:           t,
	}

	opt := DefaultCliOptions()
	opt.HistoryFile = ""
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "xyz\n") // handle-error causes CLI exit.

	assert.NotNil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)

	Cli.Stop() // calling Stop() after CLI has already exited.
}

func TestRunScript(t *testing.T) {
	handler := mockCliHandler{
		expectedCmd: "nodes",
		t:           t,
	}
	var out strings.Builder
	err := RunScript(&handler, strings.NewReader("# setup\n\nnodes\n  nodes  \n"), &out)
	assert.Nil(t, err)
	assert.Equal(t, 2, handler.handleCount)
	assert.Equal(t, "> nodes\n> nodes\n", out.String())

	stopped := errors.New("stopped")
	handler.handleError = stopped
	err = RunScript(&handler, strings.NewReader("nodes\nnodes\n"), &out)
	assert.EqualError(t, err, "script line 1: stopped")
	assert.Equal(t, stopped, errors.Cause(err))
	assert.Equal(t, 3, handler.handleCount)
}

func TestNodeSelectorUniqueSorted(t *testing.T) {
	inp := []NodeSelector{{Id: 3}, {Id: 3}, {Id: 1}, {Id: 2}, {Id: 1234}}
	exp := []NodeSelector{{Id: 1}, {Id: 2}, {Id: 3}, {Id: 1234}}
	assert.Equal(t, exp, getUniqueAndSorted(inp))
	assert.Equal(t, []NodeSelector{}, getUniqueAndSorted(nil))
}

func TestHelp(t *testing.T) {
	h := newHelp()
	general := h.outputGeneralHelp()
	for _, c := range []string{"add", "go", "lbt", "protimer", "send", "signal", "state"} {
		assert.Contains(t, general, c+" ")
	}
	assert.Contains(t, general, "Queue a frame and transmit it.")

	send := h.outputCommandHelp("send")
	assert.Contains(t, send, "Definition:")
	assert.Contains(t, send, "Example:")
	assert.Contains(t, send, "csma")

	both := h.outputCommandHelp("s")
	assert.Contains(t, both, "speed")
	assert.Contains(t, both, "state")

	assert.Contains(t, h.outputCommandHelp("xyz"), "Non-existent")
}
