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

// Package radiosim runs an interactive simulation of radio transceivers: the console in the
// foreground and the simulation loop in its own goroutine.
package radiosim

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/openthread/ot-radiocore/cli"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/progctx"
	"github.com/openthread/ot-radiocore/simulation"
)

const exitTimeout = 3 * time.Second

type MainArgs struct {
	ConfigFile  string
	Speed       string
	Seed        int64
	LogLevel    string
	LogDir      string
	WatchLevel  string
	AutoGo      bool
	EchoInput   bool
	HistoryFile string
	Script      string
}

func parseArgs(fs *flag.FlagSet, argv []string) (*MainArgs, error) {
	args := &MainArgs{}
	fs.StringVar(&args.ConfigFile, "config", "", "load the simulation and its nodes from a YAML file")
	fs.StringVar(&args.Speed, "speed", "", "set simulating speed, or 'max'")
	fs.Int64Var(&args.Seed, "seed", 0, "set the random seed (0 keeps the configured seed)")
	fs.StringVar(&args.LogLevel, "log", "", "set logging level: trace, debug, info, warn, error")
	fs.StringVar(&args.WatchLevel, "watch", "", "set the level from which node radio core logs are shown")
	fs.StringVar(&args.LogDir, "logdir", "", "write a log file per node into this directory")
	fs.BoolVar(&args.AutoGo, "autogo", false, "auto go (runs the simulation at given speed, without issuing 'go' commands)")
	fs.BoolVar(&args.EchoInput, "echo", false, "echo console input, for scripted runs")
	fs.StringVar(&args.Script, "script", "", "run the commands of a script file before the console starts")
	fs.StringVar(&args.HistoryFile, "history", cli.DefaultCliOptions().HistoryFile, "console history file")
	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	return args, nil
}

// buildConfig starts from the config file, if any, and applies the command line flags on top.
func buildConfig(args *MainArgs) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if args.ConfigFile != "" {
		var err error
		if cfg, err = simulation.LoadConfigFile(args.ConfigFile); err != nil {
			return nil, err
		}
	}

	switch speed := strings.ToLower(args.Speed); speed {
	case "":
	case "max", "inf":
		cfg.Speed = simulation.MaxSpeed
	default:
		v, err := strconv.ParseFloat(speed, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid speed %q", args.Speed)
		}
		cfg.Speed = v
	}
	if args.Seed != 0 {
		cfg.RandomSeed = args.Seed
	}
	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}
	if args.WatchLevel != "" {
		cfg.WatchLevel = args.WatchLevel
	}
	if args.LogDir != "" {
		cfg.LogDir = args.LogDir
	}
	return cfg, cfg.Validate()
}

// Main parses the command line, runs the simulation and the console until either exits, and
// returns the process exit code.
func Main(ctx *progctx.ProgCtx, argv []string, cliOptions *cli.CliOptions) int {
	args, err := parseArgs(flag.NewFlagSet("radiosim", flag.ContinueOnError), argv)
	if err != nil {
		return 2
	}

	cfg, err := buildConfig(args)
	if err != nil {
		logger.Errorf("configuration: %v", err)
		return 1
	}

	handleSignals(ctx)

	sim, err := simulation.NewSimulation(ctx, cfg)
	if err != nil {
		logger.Errorf("simulation: %v", err)
		return 1
	}
	rt := cli.NewCmdRunner(ctx, sim)
	go sim.Run()
	<-sim.Started

	if args.Script != "" {
		if err := runScript(rt, args.Script); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("%v", err)
			ctx.Cancel(err)
			ctx.WaitTimeout(exitTimeout)
			return 1
		}
		if ctx.Err() != nil { // the script ended with 'exit'
			ctx.WaitTimeout(exitTimeout)
			return 0
		}
	}

	if args.AutoGo {
		go autoGo(ctx, sim)
	}

	if cliOptions == nil {
		cliOptions = cli.DefaultCliOptions()
	}
	cliOptions.EchoInput = cliOptions.EchoInput || args.EchoInput
	cliOptions.HistoryFile = args.HistoryFile

	var cliErr error
	ctx.WaitAdd("cli", 1)
	go func() {
		defer ctx.WaitDone("cli")
		cliErr = cli.Cli.Run(rt, cliOptions)
		ctx.Cancel(errors.Wrapf(cliErr, "console exit"))
	}()
	ctx.Defer(func() {
		go cli.Cli.Stop()
	})

	<-ctx.Done()
	logger.Debugf("waiting for simulation to stop gracefully ...")
	if !ctx.WaitTimeout(exitTimeout) {
		return 1
	}
	if cliErr != nil && !errors.Is(cliErr, context.Canceled) {
		return 1
	}
	return 0
}

func runScript(rt *cli.CmdRunner, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "open script")
	}
	defer f.Close()
	return cli.RunScript(rt, f, os.Stdout)
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")
		defer signal.Stop(c)

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func autoGo(ctx *progctx.ProgCtx, sim *simulation.Simulation) {
	for {
		select {
		case <-sim.Go(time.Second):
		case <-ctx.Done():
			return
		}
	}
}
