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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/openthread/ot-radiocore/logger"
)

type CliHandler interface {
	HandleCommand(cmd string, output io.Writer) error
	GetPrompt() string
}

type CliOptions struct {
	EchoInput   bool
	HistoryFile string
	Stdin       *os.File
	Stdout      *os.File
}

func DefaultCliOptions() *CliOptions {
	return &CliOptions{
		EchoInput:   false,
		HistoryFile: "/tmp/radiosim-cmds.tmp",
	}
}

// CliInstance is the singleton console.
type CliInstance struct {
	Started          chan struct{}
	Options          *CliOptions
	readlineInstance *readline.Instance
	waitCliClosed    chan struct{}
}

var Cli = newCliInstance()

func newCliInstance() *CliInstance {
	return &CliInstance{
		Started:       make(chan struct{}),
		waitCliClosed: make(chan struct{}),
	}
}

func getCliOptions(options *CliOptions) *CliOptions {
	if options == nil {
		options = DefaultCliOptions()
	}
	if options.Stdin == nil {
		options.Stdin = os.Stdin
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	return options
}

// RestorePrompt redraws the prompt after log output was written.
func (cli *CliInstance) RestorePrompt() {
	if cli.readlineInstance != nil {
		cli.readlineInstance.Refresh()
	}
}

// OnStdout implements logger.StdoutCallback.
func (cli *CliInstance) OnStdout() {
	cli.RestorePrompt()
}

// Stop makes a running Run() return. Closing stdin unblocks the pending Readline() call.
func (cli *CliInstance) Stop() {
	<-cli.Started
	_, _ = cli.Options.Stdin.WriteString("\003\n")
	_ = cli.Options.Stdin.Close()
	logger.Tracef("Waiting for CLI to stop ...")
	<-cli.waitCliClosed
}

// Run reads command lines and passes them to handler until EOF, Ctrl-C on an empty line, or a
// handler error.
func (cli *CliInstance) Run(handler CliHandler, options *CliOptions) error {
	defer logger.Debugf("CLI exit.")
	defer close(cli.waitCliClosed)

	options = getCliOptions(options)
	cli.Options = options

	for _, f := range []*os.File{options.Stdin, options.Stdout} {
		fd := int(f.Fd())
		if !readline.IsTerminal(fd) {
			continue
		}
		state, err := readline.GetState(fd)
		if err != nil {
			close(cli.Started)
			return err
		}
		defer func(fd int) {
			_ = readline.Restore(fd, state)
		}(fd)
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          handler.GetPrompt(),
		HistoryFile:     options.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           options.Stdin,
		Stdout:          options.Stdout,

		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			switch r {
			// block CtrlZ feature
			case readline.CharCtrlZ:
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		close(cli.Started)
		return err
	}
	defer func() {
		_ = l.Close()
	}()
	cli.readlineInstance = l
	logger.SetStdoutCallback(cli)
	defer logger.SetStdoutCallback(nil)
	close(cli.Started)

	stdout := options.Stdout
	for {
		l.SetPrompt(handler.GetPrompt())
		line, err := l.Readline()

		if len(line) > 0 && line[0] == readline.CharInterrupt {
			return nil
		} else if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue // Ctrl-C in midline edit only cancels the present cmd line.
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		if options.EchoInput {
			if _, err := stdout.WriteString(line + "\n"); err != nil {
				return err
			}
		}

		cmd := strings.TrimSpace(line)
		if len(cmd) == 0 || strings.HasPrefix(cmd, "#") {
			continue
		}

		if err = handler.HandleCommand(cmd, l.Stdout()); err != nil {
			_ = stdout.Sync()
			return err
		}
		_ = stdout.Sync()
	}
}

// RunScript passes the command lines read from r to handler, echoing each behind the prompt.
// Empty lines and '#' comments are skipped. It stops at the first handler error.
func RunScript(handler CliHandler, r io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		cmd := strings.TrimSpace(scanner.Text())
		if len(cmd) == 0 || strings.HasPrefix(cmd, "#") {
			continue
		}
		if _, err := fmt.Fprintf(output, "%s%s\n", handler.GetPrompt(), cmd); err != nil {
			return err
		}
		if err := handler.HandleCommand(cmd, output); err != nil {
			return errors.Wrapf(err, "script line %d", lineNo)
		}
	}
	return scanner.Err()
}
