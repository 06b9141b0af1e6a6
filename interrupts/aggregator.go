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

// Package interrupts implements the interrupt aggregation of the radio: per-block flag and
// enable registers for the CPU and sequencer execution contexts, and the fan-out of
// (flags & enable) onto interrupt lines.
package interrupts

import (
	"fmt"
	"math/bits"

	"github.com/openthread/ot-radiocore/logger"
)

// Block identifies the radio sub-block owning a flag register.
type Block byte

const (
	BlockRac Block = iota
	BlockProtimer
	BlockAgc
	BlockFrc

	NumBlocks = iota
)

func (b Block) String() string {
	switch b {
	case BlockRac:
		return "RAC"
	case BlockProtimer:
		return "PROTIMER"
	case BlockAgc:
		return "AGC"
	case BlockFrc:
		return "FRC"
	default:
		logger.Panicf("invalid interrupt block: %d", b)
		return "invalid"
	}
}

// Context is the execution context an interrupt line is routed to.
type Context byte

const (
	ContextCpu Context = iota
	ContextSequencer

	NumContexts = iota
)

func (c Context) String() string {
	if c == ContextCpu {
		return "cpu"
	}
	return "seq"
}

// Line names one interrupt line: one per (block, context).
type Line struct {
	Block   Block
	Context Context
}

func (l Line) String() string {
	return fmt.Sprintf("%s_%s", l.Block, l.Context)
}

// LineHandler is called whenever the level of a line changes.
type LineHandler func(line Line, level bool)

// Aggregator holds the flag/enable registers of all blocks. It is not safe for concurrent use;
// the radio core calls it from within its critical section.
type Aggregator struct {
	flags   [NumBlocks][NumContexts]uint64
	enable  [NumBlocks][NumContexts]uint64
	levels  [NumBlocks][NumContexts]bool
	handler LineHandler
	raised  uint64
}

func NewAggregator(handler LineHandler) *Aggregator {
	return &Aggregator{
		handler: handler,
	}
}

func checkBit(bit uint) {
	logger.AssertTrue(bit < 64, "interrupt bit out of range: %d", bit)
}

// Set raises one flag. The line is only updated by Recompute().
func (a *Aggregator) Set(b Block, ctx Context, bit uint) {
	checkBit(bit)
	if a.flags[b][ctx]&(1<<bit) == 0 {
		a.raised++
	}
	a.flags[b][ctx] |= 1 << bit
}

// SetBoth raises a flag in both the CPU and the sequencer flag register.
func (a *Aggregator) SetBoth(b Block, bit uint) {
	a.Set(b, ContextCpu, bit)
	a.Set(b, ContextSequencer, bit)
}

func (a *Aggregator) Clear(b Block, ctx Context, bit uint) {
	checkBit(bit)
	a.flags[b][ctx] &^= 1 << bit
}

// IsSet returns whether a flag is raised.
func (a *Aggregator) IsSet(b Block, ctx Context, bit uint) bool {
	checkBit(bit)
	return a.flags[b][ctx]&(1<<bit) != 0
}

func (a *Aggregator) Flags(b Block, ctx Context) uint64 {
	return a.flags[b][ctx]
}

// WriteFlagsSet is the IF_SET register: raise all bits of mask.
func (a *Aggregator) WriteFlagsSet(b Block, ctx Context, mask uint64) {
	a.raised += uint64(bits.OnesCount64(mask &^ a.flags[b][ctx]))
	a.flags[b][ctx] |= mask
	a.Recompute()
}

// WriteFlagsClear is the IF_CLR register: clear all bits of mask.
func (a *Aggregator) WriteFlagsClear(b Block, ctx Context, mask uint64) {
	a.flags[b][ctx] &^= mask
	a.Recompute()
}

func (a *Aggregator) Enable(b Block, ctx Context) uint64 {
	return a.enable[b][ctx]
}

func (a *Aggregator) SetEnable(b Block, ctx Context, mask uint64) {
	a.enable[b][ctx] = mask
	a.Recompute()
}

// Level returns the current level of a line.
func (a *Aggregator) Level(b Block, ctx Context) bool {
	return a.levels[b][ctx]
}

// RaisedCount returns the number of flag set edges seen since creation.
func (a *Aggregator) RaisedCount() uint64 {
	return a.raised
}

// Recompute updates all line levels from the flag and enable registers, calling the handler for
// every line whose level changed.
func (a *Aggregator) Recompute() {
	for b := 0; b < NumBlocks; b++ {
		for c := 0; c < NumContexts; c++ {
			level := a.flags[b][c]&a.enable[b][c] != 0
			if level == a.levels[b][c] {
				continue
			}
			a.levels[b][c] = level
			if a.handler != nil {
				a.handler(Line{Block: Block(b), Context: Context(c)}, level)
			}
		}
	}
}
