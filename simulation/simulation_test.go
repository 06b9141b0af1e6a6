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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/progctx"
	"github.com/openthread/ot-radiocore/radio"
)

func newTestSimulation(t *testing.T, cfg *Config) *Simulation {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Speed = MaxSpeed
	cfg.RandomSeed = 1
	ctx := progctx.New(context.Background())
	s, err := NewSimulation(ctx, cfg)
	require.NoError(t, err)
	go s.Run()
	<-s.Started
	t.Cleanup(func() {
		ctx.Cancel("test done")
		ctx.Wait()
	})
	return s
}

func TestParseConfig(t *testing.T) {
	data := `
speed: 10
seed: 42
radio:
  channel: 15
  rac:
    tx_warm_us: 50
nodes:
  - id: 3
    pos: [10, 20, 0]
  - id: 5
    channel: 20
    tx_power_dbm: -10
`
	cfg, err := ParseConfig([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Speed)
	assert.Equal(t, int64(42), cfg.RandomSeed)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, 15, cfg.Radio.Channel)
	assert.Equal(t, uint64(50), cfg.Radio.Rac.TxWarmUs)
	assert.Equal(t, radio.DefaultConfig().Rac.RxWarmUs, cfg.Radio.Rac.RxWarmUs)
	assert.Equal(t, radio.DefaultConfig().Modem, cfg.Radio.Modem)

	require.Len(t, cfg.Nodes, 2)
	assert.Equal(t, 3, cfg.Nodes[0].ID)
	assert.Equal(t, &[3]float64{10, 20, 0}, cfg.Nodes[0].Position)
	assert.Nil(t, cfg.Nodes[0].Channel)
	assert.True(t, cfg.Nodes[1].IsAutoPlaced())
	assert.Equal(t, 20, *cfg.Nodes[1].Channel)
	assert.Equal(t, -10.0, *cfg.Nodes[1].TxPowerDbm)

	rc := cfg.Nodes[1].radioConfig(cfg.Radio)
	assert.Equal(t, 20, rc.Channel)
	assert.Equal(t, -10.0, rc.TxPowerDbm)
	assert.Equal(t, uint64(50), rc.Rac.TxWarmUs)
}

func TestInvalidConfig(t *testing.T) {
	_, err := ParseConfig([]byte("speed: -1\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("radio:\n  channel: 99\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("watch_level: loud\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("speed: [\n"))
	assert.Error(t, err)

	_, err = LoadConfigFile("does/not/exist.yaml")
	assert.Error(t, err)
}

func TestNodeAutoPlacer(t *testing.T) {
	nap := NewNodeAutoPlacer()
	x, y, _ := nap.NextNodePosition()
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 100.0, y)
	x, _, _ = nap.NextNodePosition()
	assert.Equal(t, 200.0, x)

	nap.ReuseNextNodePosition()
	x, _, _ = nap.NextNodePosition()
	assert.Equal(t, 200.0, x)

	nap.UpdateReference(1400, 300, 0)
	x, y, _ = nap.NextNodePosition()
	assert.Equal(t, 1400.0, x)
	assert.Equal(t, 400.0, y)
}

func TestAddDeleteNode(t *testing.T) {
	s := newTestSimulation(t, nil)

	n1, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)
	n2, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, n1.Id)
	assert.Equal(t, 2, n2.Id)
	assert.Equal(t, 100.0, n1.Position().X)
	assert.Equal(t, 200.0, n2.Position().X)
	assert.Equal(t, RadioOff, n1.State())

	cfg := DefaultNodeConfig()
	cfg.ID = 2
	_, err = s.AddNode(&cfg)
	assert.Error(t, err)

	cfg.ID = 7
	cfg.SetPosition(0, 0, 0)
	_, err = s.AddNode(&cfg)
	require.NoError(t, err)
	assert.Equal(t, []NodeId{1, 2, 7}, s.GetNodes())

	require.NoError(t, s.DeleteNode(1))
	assert.Error(t, s.DeleteNode(1))
	assert.Nil(t, s.Node(1))
	_, ok := s.Medium().Position(1)
	assert.False(t, ok)

	n, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, n.Id)
}

func TestGoTransmitsFrame(t *testing.T) {
	s := newTestSimulation(t, nil)
	tx, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)
	rx, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)

	rx.Listen(true)
	tx.Send([]byte{1, 2, 3})
	<-s.Go(time.Millisecond)
	assert.Equal(t, uint64(1000000), s.Now())

	frame, ok := rx.Radio().ReadRxFrame()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, frame.Data)
	assert.False(t, frame.CrcError)
	assert.Equal(t, RadioRxSearch, rx.State())
	assert.Equal(t, RadioOff, tx.State())

	st := tx.Radio().Status()
	assert.Equal(t, uint64(1), st.Rac.FramesTransmitted)
}

func TestEnergyAccounting(t *testing.T) {
	s := newTestSimulation(t, nil)
	idle, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)
	rx, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)

	rx.Listen(true)
	<-s.Go(31 * time.Second)

	history := s.Energy().GetNetworkEnergyHistory()
	require.Len(t, history, 1)
	assert.Equal(t, uint64(30000000000), history[0].Timestamp)

	spent, ok := s.Energy().Residency(idle.Id, s.Now())
	require.True(t, ok)
	assert.Equal(t, s.Now(), spent[RadioOff])

	spent, ok = s.Energy().Residency(rx.Id, s.Now())
	require.True(t, ok)
	assert.Greater(t, spent[RadioRxSearch], uint64(30000000000))
	assert.Greater(t, spent[RadioRxWarm], uint64(0))

	require.NoError(t, s.DeleteNode(rx.Id))
	_, ok = s.Energy().Residency(rx.Id, s.Now())
	assert.False(t, ok)
}

func TestPostAsync(t *testing.T) {
	s := newTestSimulation(t, nil)
	done := make(chan NodeId)
	s.PostAsync(func() {
		n, err := s.AddNode(&NodeConfig{})
		if err != nil {
			done <- InvalidNodeId
			return
		}
		done <- n.Id
	})
	assert.Equal(t, 1, <-done)

	// a panicking task is recovered and the loop keeps running
	s.PostAsync(func() { panic("task failure") })
	<-s.Go(time.Microsecond)
	assert.Equal(t, uint64(1000), s.Now())
}

func TestImportExportNodes(t *testing.T) {
	cfg := DefaultConfig()
	ch := ChannelId(20)
	cfg.Nodes = []NodeConfig{
		{ID: 4, Position: &[3]float64{1, 2, 3}},
		{ID: 9, Channel: &ch},
	}
	s := newTestSimulation(t, cfg)
	assert.Equal(t, []NodeId{4, 9}, s.GetNodes())

	nodes := s.ExportNodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, &[3]float64{1, 2, 3}, nodes[0].Position)
	assert.Nil(t, nodes[0].Channel)
	assert.Nil(t, nodes[0].TxPowerDbm)
	require.NotNil(t, nodes[1].Channel)
	assert.Equal(t, 20, *nodes[1].Channel)

	data, err := s.ExportConfig()
	require.NoError(t, err)
	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Len(t, back.Nodes, 2)
	assert.Equal(t, 4, back.Nodes[0].ID)

	err = s.ImportNodes([]NodeConfig{{ID: 4}, {ID: 10}})
	assert.Error(t, err)
	assert.Equal(t, []NodeId{4, 9, 10}, s.GetNodes())
}

func TestStopClosesNodes(t *testing.T) {
	s := newTestSimulation(t, nil)
	_, err := s.AddNode(&NodeConfig{})
	require.NoError(t, err)
	s.PostAsync(s.Stop)
	<-s.ctx.Done()
	s.ctx.Wait()
	assert.Empty(t, s.Nodes())
}

func TestGoAfterExit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = MaxSpeed
	ctx := progctx.New(context.Background())
	s, err := NewSimulation(ctx, cfg)
	require.NoError(t, err)
	ctx.Cancel("exit")

	for i := 0; i < 20; i++ {
		select {
		case <-s.Go(time.Millisecond):
		case <-time.After(time.Second):
			t.Fatalf("go request %d blocked after exit", i)
		}
	}
}
