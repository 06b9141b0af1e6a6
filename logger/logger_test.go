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

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/simonlingoogle/go-simplelogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevelString(t *testing.T) {
	for _, lv := range []Level{MicroLevel, TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(lv))
		assert.NoError(t, err)
		assert.Equal(t, lv, parsed)
	}
	lv, err := ParseLevelString("W")
	assert.NoError(t, err)
	assert.Equal(t, WarnLevel, lv)

	lv, err = ParseLevelString("loud")
	assert.Error(t, err)
	assert.Equal(t, DefaultLevel, lv)
}

func TestSimpleloggerLevel(t *testing.T) {
	assert.Equal(t, simplelogger.DebugLevel, simpleloggerLevel(TraceLevel))
	assert.Equal(t, simplelogger.InfoLevel, simpleloggerLevel(NoteLevel))
	assert.Equal(t, simplelogger.WarnLevel, simpleloggerLevel(WarnLevel))
	assert.Equal(t, simplelogger.ErrorLevel, simpleloggerLevel(ErrorLevel))
	assert.Equal(t, simplelogger.PanicLevel, simpleloggerLevel(OffLevel))
}

func TestSimTimeString(t *testing.T) {
	assert.Equal(t, "1234.567us", simTimeString(1234567))
	assert.Equal(t, "0.005us", simTimeString(5))
}

func TestPanicf(t *testing.T) {
	assert.Panics(t, func() { Panicf("broken %d", 1) })
	assert.Panics(t, func() { AssertTrue(false, "must hold") })
	assert.NotPanics(t, func() { PanicIfError(nil) })

	SetLevel(OffLevel)
	defer SetLevel(DefaultLevel)
	assert.Panics(t, func() { Panicf("panics even when logging is off") })
}

func TestNodeLoggerFile(t *testing.T) {
	dir := t.TempDir()
	nl := GetNodeLogger(dir, 42)
	assert.True(t, nl.IsFileEnabled())
	assert.Same(t, nl, GetNodeLogger(dir, 42))

	nl.SetDisplayLevel(OffLevel)
	nl.Debugf("rac: %s -> %s", "Off", "RxWarm")
	nl.Tracef("not saved")
	nl.DisplayPendingLogEntries(1500)
	DeleteNodeLogger(42)
	assert.False(t, nl.IsFileEnabled())

	data, err := os.ReadFile(filepath.Join(dir, "radio_42.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Radio core log for Node<42>")
	assert.Contains(t, string(data), "        1500 rac: Off -> RxWarm\n")
	assert.NotContains(t, string(data), "not saved")
}

func TestNodeLoggerWithoutFile(t *testing.T) {
	nl := GetNodeLogger("", 43)
	defer DeleteNodeLogger(43)
	assert.False(t, nl.IsFileEnabled())

	nl.SetDisplayLevel(OffLevel)
	for i := 0; i < 2000; i++ {
		nl.Warnf("entry %d", i)
	}
	nl.DisplayPendingLogEntries(0)
	assert.Len(t, nl.entries, 0)
}
