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

// Package progctx keeps track of the lifetime of a program: one cancellation shared by all
// goroutines, the goroutines still running, and cleanup to run on exit.
package progctx

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
)

// ProgCtx is the context of a program during its lifetime.
type ProgCtx struct {
	context.Context // the inner context of the program
	wg              sync.WaitGroup
	cancel          context.CancelFunc
	lock            sync.Mutex
	routines        map[string]int
	deferred        []func()
	cause           error
}

// WaitCount returns the number of goroutines to wait for.
func (ctx *ProgCtx) WaitCount() int {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	total := 0
	for _, c := range ctx.routines {
		total += c
	}
	return total
}

// Routines returns the names of the goroutines still running, sorted.
func (ctx *ProgCtx) Routines() []string {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	var names []string
	for name, c := range ctx.routines {
		if c > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Cancel cancels the program context with a reason, which is an error or any printable value.
// Only the first call has effect: it runs the deferred functions in reverse order of registration.
func (ctx *ProgCtx) Cancel(reason interface{}) {
	ctx.lock.Lock()
	if ctx.Err() != nil {
		ctx.lock.Unlock()
		return
	}
	if e, ok := reason.(error); ok {
		ctx.cause = e
	} else if reason != nil {
		ctx.cause = errors.Errorf("%v", reason)
	}
	ctx.cancel()
	deferred := ctx.deferred
	ctx.deferred = nil
	ctx.lock.Unlock()

	if ctx.cause != nil {
		simplelogger.Infof("program exit: %v", ctx.cause)
	} else {
		simplelogger.Infof("program exit")
	}

	for i := len(deferred) - 1; i >= 0; i-- {
		deferred[i]()
	}
}

// Cause returns the reason given to the first Cancel call, or nil.
func (ctx *ProgCtx) Cause() error {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	return ctx.cause
}

// WaitAdd adds delta goroutines named name to wait for.
func (ctx *ProgCtx) WaitAdd(name string, delta int) {
	ctx.lock.Lock()
	ctx.routines[name] += delta
	ctx.lock.Unlock()

	ctx.wg.Add(delta)
}

// WaitDone notifies that a goroutine has finished.
func (ctx *ProgCtx) WaitDone(name string) {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	if ctx.routines[name] <= 0 {
		simplelogger.Panicf("routine %s is not running, should not call WaitDone", name)
	}

	ctx.routines[name] -= 1
	ctx.wg.Done()
}

// Wait waits for all goroutines to finish.
func (ctx *ProgCtx) Wait() {
	simplelogger.Debugf("program context waiting routines: %v", ctx.Routines())
	ctx.wg.Wait()
}

// WaitTimeout waits for all goroutines to finish, or for the timeout. It returns false on timeout.
func (ctx *ProgCtx) WaitTimeout(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		ctx.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		simplelogger.Warnf("routines still running after %v: %v", timeout, ctx.Routines())
		return false
	}
}

// Defer registers a function to be called when the program context is cancelled.
func (ctx *ProgCtx) Defer(f func()) {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	if ctx.Err() != nil {
		panic(errors.Errorf("can not Defer after context is done"))
	}
	ctx.deferred = append(ctx.deferred, f)
}

// New creates a new ProgCtx from the parent context.
func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)

	return &ProgCtx{
		Context:  ctx,
		cancel:   cancel,
		routines: map[string]int{},
	}
}
