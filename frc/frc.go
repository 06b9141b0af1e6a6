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

// Package frc implements the frame controller: the queue of frames firmware wrote for
// transmission and the store of received frames waiting to be read.
package frc

import (
	"github.com/openthread/ot-radiocore/interrupts"
	"github.com/openthread/ot-radiocore/logger"
)

const DefaultRxCapacity = 4

// FRC interrupt flag bits.
const (
	IntTxFrameAssembled uint = 0
	IntRxFrameStored    uint = 1
	IntRxOverflow       uint = 2
	IntRxCrcError       uint = 3
)

type InterruptSink interface {
	SetBoth(b interrupts.Block, bit uint)
}

// RxFrame is a received frame. CrcError is set for collided receptions.
type RxFrame struct {
	Data     []byte
	CrcError bool
}

type Stats struct {
	TxFrames    uint64
	TxUnderruns uint64
	RxFrames    uint64
	RxCrcErrors uint64
	RxOverflows uint64
}

// FrameController is not safe for concurrent use; the radio calls it under its lock.
type FrameController struct {
	irq        InterruptSink
	log        *logger.NodeLogger
	txQueue    [][]byte
	rxFrames   []RxFrame
	rxCapacity int
	stats      Stats
}

func NewFrameController(irq InterruptSink, log *logger.NodeLogger) *FrameController {
	return &FrameController{
		irq:        irq,
		log:        log,
		rxCapacity: DefaultRxCapacity,
	}
}

// QueueTxFrame appends a frame to the transmit queue.
func (fc *FrameController) QueueTxFrame(frame []byte) {
	fc.txQueue = append(fc.txQueue, append([]byte(nil), frame...))
}

func (fc *FrameController) PendingTxFrames() int {
	return len(fc.txQueue)
}

// AssembleFrame pops the next frame to transmit. With an empty queue an empty frame is sent.
func (fc *FrameController) AssembleFrame() []byte {
	fc.irq.SetBoth(interrupts.BlockFrc, IntTxFrameAssembled)
	fc.stats.TxFrames++
	if len(fc.txQueue) == 0 {
		fc.stats.TxUnderruns++
		fc.log.Warnf("frc: tx queue empty, sending empty frame")
		return []byte{}
	}
	frame := fc.txQueue[0]
	fc.txQueue = fc.txQueue[1:]
	return frame
}

// DisassembleFrame stores a received frame. It returns false if the store is full and the frame
// was dropped.
func (fc *FrameController) DisassembleFrame(frame []byte, forceCrcError bool) bool {
	if len(fc.rxFrames) >= fc.rxCapacity {
		fc.stats.RxOverflows++
		fc.irq.SetBoth(interrupts.BlockFrc, IntRxOverflow)
		fc.log.Debugf("frc: rx store full, frame of %d bytes dropped", len(frame))
		return false
	}
	fc.rxFrames = append(fc.rxFrames, RxFrame{Data: append([]byte(nil), frame...), CrcError: forceCrcError})
	fc.stats.RxFrames++
	if forceCrcError {
		fc.stats.RxCrcErrors++
		fc.irq.SetBoth(interrupts.BlockFrc, IntRxCrcError)
	}
	fc.irq.SetBoth(interrupts.BlockFrc, IntRxFrameStored)
	return true
}

// ReadRxFrame pops the oldest received frame.
func (fc *FrameController) ReadRxFrame() (RxFrame, bool) {
	if len(fc.rxFrames) == 0 {
		return RxFrame{}, false
	}
	f := fc.rxFrames[0]
	fc.rxFrames = fc.rxFrames[1:]
	return f, true
}

func (fc *FrameController) RxFrameCount() int {
	return len(fc.rxFrames)
}

func (fc *FrameController) SetRxCapacity(n int) {
	logger.AssertTrue(n > 0, "invalid rx capacity %d", n)
	fc.rxCapacity = n
}

func (fc *FrameController) Stats() Stats {
	return fc.stats
}

// Reset drops all queued and stored frames.
func (fc *FrameController) Reset() {
	fc.txQueue = nil
	fc.rxFrames = nil
}
