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
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"

	"github.com/openthread/ot-radiocore/logger"
)

// Help renders the command reference embedded from README.md, wrapped to the terminal width.
type Help struct {
	termWidth   uint
	indentWidth uint
	commands    map[string]string // full text per command
	summaries   map[string]string // first sentence per command
}

var (
	cmdHeaderPattern  = regexp.MustCompile("^### .+")
	linkTargetPattern = regexp.MustCompile(`\(#[a-z]+\)`)
)

//go:embed README.md
var cliHelpFile string

func newHelp() Help {
	h := Help{
		termWidth:   80,
		indentWidth: 2,
		commands:    make(map[string]string),
		summaries:   make(map[string]string),
	}
	h.parseHelpFile(cliHelpFile)
	h.update()
	return h
}

// update takes the current terminal width, if stdout is a terminal.
func (help *Help) update() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		logger.Warnf("could not get terminal size: %v", err)
		return
	}
	if width > 20 {
		help.termWidth = uint(width)
	}
}

func (help *Help) commandNames() []string {
	cmds := make([]string, 0, len(help.summaries))
	for k := range help.summaries {
		cmds = append(cmds, k)
	}
	sort.Strings(cmds)
	return cmds
}

// outputGeneralHelp lists every command with its one-line summary.
func (help *Help) outputGeneralHelp() string {
	var sb strings.Builder
	for _, c := range help.commandNames() {
		sb.WriteString(fmt.Sprintf("%-10s %s\n", c, help.summaries[c]))
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n", help.termWidth))
	return sb.String()
}

// outputCommandHelp returns the full help of a command. A topic that is not a command matches
// every command starting with it.
func (help *Help) outputCommandHelp(topic string) string {
	if _, ok := help.commands[topic]; ok {
		return help.outputHelp([]string{topic})
	}
	var matches []string
	for _, c := range help.commandNames() {
		if strings.HasPrefix(c, topic) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return fmt.Sprintf("%s\n  (Non-existent command.)\n", topic)
	}
	return help.outputHelp(matches)
}

func (help *Help) outputHelp(commands []string) string {
	help.update()
	var sb strings.Builder
	w := help.termWidth - help.indentWidth
	for _, cmd := range commands {
		for _, line := range strings.Split(wordwrap.WrapString(help.commands[cmd], w), "\n") {
			if line == cmd {
				sb.WriteString(line + "\n")
			} else if len(line) > 0 {
				sb.WriteString(strings.Repeat(" ", int(help.indentWidth)) + line + "\n")
			}
		}
	}
	return sb.String()
}

// parseHelpFile splits the Markdown reference into one entry per '### <command>' section.
// Code blocks become indented 'Definition:' and 'Example:' parts.
func (help *Help) parseHelpFile(md string) {
	activeCmd := ""
	indent := ""
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case line == "```bash":
			line = "Example:"
			indent = "  "
			if activeCmd != "" {
				help.commands[activeCmd] += line + "\n"
			}
			continue
		case line == "```shell":
			line = "Definition:"
			indent = "  "
			if activeCmd != "" {
				help.commands[activeCmd] += line + "\n"
			}
			continue
		case line == "```":
			indent = ""
			continue
		case cmdHeaderPattern.MatchString(line):
			activeCmd = strings.TrimSpace(line[strings.Index(line, " ")+1:])
			help.commands[activeCmd] = activeCmd + "\n"
			help.summaries[activeCmd] = ""
			continue
		}

		if activeCmd == "" {
			continue
		}
		help.commands[activeCmd] += indent + markdownUnquote(line) + "\n"
		if indent == "" && help.summaries[activeCmd] == "" {
			summary := markdownUnquote(line)
			if idx := strings.Index(summary, "."); idx > 0 {
				summary = summary[:idx+1]
			}
			help.summaries[activeCmd] = summary
		}
	}
}

func markdownUnquote(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	md = strings.ReplaceAll(md, "`", "")
	md = linkTargetPattern.ReplaceAllString(md, "")
	return md
}
