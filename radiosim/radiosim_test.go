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

package radiosim

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/ot-radiocore/progctx"
	"github.com/openthread/ot-radiocore/simulation"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestBuildConfigDefaults(t *testing.T) {
	args, err := parseArgs(newFlagSet(), nil)
	require.NoError(t, err)
	cfg, err := buildConfig(args)
	require.NoError(t, err)
	assert.Equal(t, simulation.DefaultConfig(), cfg)
}

func TestBuildConfigFlags(t *testing.T) {
	args, err := parseArgs(newFlagSet(), []string{"-speed", "max", "-seed", "7", "-log", "debug", "-logdir", "/tmp/x"})
	require.NoError(t, err)
	cfg, err := buildConfig(args)
	require.NoError(t, err)
	assert.Equal(t, simulation.MaxSpeed, cfg.Speed)
	assert.Equal(t, int64(7), cfg.RandomSeed)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/x", cfg.LogDir)

	for _, argv := range [][]string{{"-speed", "fast"}, {"-speed", "0"}, {"-log", "loud"}} {
		args, err = parseArgs(newFlagSet(), argv)
		require.NoError(t, err)
		_, err = buildConfig(args)
		assert.Error(t, err, "%v", argv)
	}

	_, err = parseArgs(newFlagSet(), []string{"-nonexistent"})
	assert.Error(t, err)
}

func TestBuildConfigFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("speed: 4\nseed: 3\nnodes:\n  - id: 2\n"), 0644))

	args, err := parseArgs(newFlagSet(), []string{"-config", fn, "-seed", "9"})
	require.NoError(t, err)
	cfg, err := buildConfig(args)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Speed)
	assert.Equal(t, int64(9), cfg.RandomSeed)
	require.Len(t, cfg.Nodes, 1)
	assert.Equal(t, 2, cfg.Nodes[0].ID)

	args.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = buildConfig(args)
	assert.Error(t, err)
}

func TestMainRunsScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "test.cmds")
	export := filepath.Join(dir, "out.yaml")
	require.NoError(t, os.WriteFile(script, []byte(
		"# two nodes, one frame\nadd\nadd\nrx 2 on\nsend 1 len 10\ngo 1ms\nexport \""+export+"\"\nexit\n"), 0644))

	ctx := progctx.New(context.Background())
	code := Main(ctx, []string{"-script", script, "-speed", "max", "-history", ""}, nil)
	assert.Equal(t, 0, code)
	assert.NotNil(t, ctx.Err())

	cfg, err := simulation.LoadConfigFile(export)
	require.NoError(t, err)
	assert.Len(t, cfg.Nodes, 2)
}

func TestMainBadScript(t *testing.T) {
	ctx := progctx.New(context.Background())
	code := Main(ctx, []string{"-script", filepath.Join(t.TempDir(), "missing.cmds")}, nil)
	assert.Equal(t, 1, code)

	assert.Equal(t, 2, Main(progctx.New(context.Background()), []string{"-bogus"}, nil))
}
