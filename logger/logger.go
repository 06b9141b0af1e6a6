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

// Package logger is the simulation-wide logger. Lines go through zap to stderr, stamped with
// the virtual time once a simulation provides it. Per-node radio core logs are buffered in a
// NodeLogger and flushed from the simulation loop.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/simonlingoogle/go-simplelogger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the log level of the simulation as a whole, or of the radio core of one node.
type Level int8

const (
	MicroLevel   Level = 7
	TraceLevel   Level = 6
	DebugLevel   Level = 5
	InfoLevel    Level = 4
	NoteLevel    Level = 3
	WarnLevel    Level = 2
	ErrorLevel   Level = 1
	PanicLevel   Level = 0
	FatalLevel   Level = -1
	OffLevel     Level = -2
	MinLevel           = OffLevel
	DefaultLevel       = InfoLevel
)

// StdoutCallback is notified after log output was written, so that a console can redraw its prompt.
type StdoutCallback interface {
	OnStdout()
}

type logEntry struct {
	Level Level
	Msg   string
}

var (
	lock            sync.Mutex
	zaplogger       *zap.Logger
	outputPaths     = []string{"stderr"}
	currentLevel    = DefaultLevel
	isLogToTerminal bool
	cbStdout        StdoutCallback
	simTimeSource   func() uint64

	// zap has no levels below debug or between info and warn.
	zapLevels = [...]zapcore.Level{
		OffLevel - MinLevel:   zapcore.FatalLevel + 1,
		FatalLevel - MinLevel: zapcore.FatalLevel,
		PanicLevel - MinLevel: zapcore.PanicLevel,
		ErrorLevel - MinLevel: zapcore.ErrorLevel,
		WarnLevel - MinLevel:  zapcore.WarnLevel,
		NoteLevel - MinLevel:  zapcore.InfoLevel,
		InfoLevel - MinLevel:  zapcore.InfoLevel,
		DebugLevel - MinLevel: zapcore.DebugLevel,
		TraceLevel - MinLevel: zapcore.DebugLevel,
		MicroLevel - MinLevel: zapcore.DebugLevel,
	}
)

func init() {
	if o, err := os.Stdout.Stat(); err == nil && o.Mode()&os.ModeCharDevice != 0 {
		isLogToTerminal = true
	}
	rebuildLogger()
}

// simTimeString renders virtual time (ns) in microseconds, the resolution of the radio timers.
func simTimeString(ns uint64) string {
	return fmt.Sprintf("%d.%03dus", ns/1000, ns%1000)
}

// encodeTime stamps a line with the virtual time if a simulation is running, else the wall clock.
func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	if src := simTimeSource; src != nil {
		enc.AppendString(simTimeString(src()))
		return
	}
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

func rebuildLogger() {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Encoding:         "console",
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "node",
			MessageKey:     "message",
			EncodeTime:     encodeTime,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
	}
	newLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	if zaplogger != nil {
		_ = zaplogger.Sync()
	}
	zaplogger = newLogger
}

// SetLevel sets the log level, for this logger and for the packages that log through simplelogger.
func SetLevel(lv Level) {
	currentLevel = lv
	simplelogger.SetLevel(simpleloggerLevel(lv))
}

// GetLevel gets the current log level.
func GetLevel() Level {
	return currentLevel
}

// SetStdoutCallback sets a callback that the logger calls after it wrote to the terminal.
func SetStdoutCallback(cb StdoutCallback) {
	lock.Lock()
	defer lock.Unlock()
	cbStdout = cb
}

// SetSimTimeSource sets the function that supplies the virtual time (ns) of every log line.
// A nil source returns to wall clock time.
func SetSimTimeSource(f func() uint64) {
	simTimeSource = f
}

// SetOutput sets the output paths, e.g. []string{"stderr", "radiosim.log"}.
func SetOutput(outputs []string) {
	lock.Lock()
	defer lock.Unlock()
	outputPaths = outputs
	rebuildLogger()
}

// getMessage formats a string with Sprintf, Sprint, or neither.
func getMessage(template string, fmtArgs []interface{}) string {
	if len(fmtArgs) == 0 {
		return template
	}
	if template != "" {
		return fmt.Sprintf(template, fmtArgs...)
	}
	if len(fmtArgs) == 1 {
		if str, ok := fmtArgs[0].(string); ok {
			return str
		}
	}
	return fmt.Sprint(fmtArgs...)
}

// toConsole runs write with the console line cleared, then lets the console restore its prompt.
func toConsole(write func()) {
	lock.Lock()
	cb := cbStdout
	lock.Unlock()

	if isLogToTerminal {
		_, _ = fmt.Fprint(os.Stdout, "\033[2K\r")
	}
	write()
	if isLogToTerminal && cb != nil {
		cb.OnStdout()
	}
}

func write(l *zap.Logger, level Level, msg string) {
	toConsole(func() {
		l.Log(zapLevels[level-MinLevel], msg)
	})
}

// Logf outputs a formatted message at the given level. PanicLevel and FatalLevel messages are
// always output and do not return.
func Logf(level Level, format string, args []interface{}) {
	if level > currentLevel && level > PanicLevel {
		return
	}
	write(zaplogger, level, getMessage(format, args))
}

// Println prints a message for the user at the console, to stdout, without log decoration.
func Println(msg string) {
	toConsole(func() {
		_, _ = fmt.Fprintln(os.Stdout, msg)
	})
}

func Tracef(format string, args ...interface{}) {
	Logf(TraceLevel, format, args)
}

func Debugf(format string, args ...interface{}) {
	Logf(DebugLevel, format, args)
}

func Infof(format string, args ...interface{}) {
	Logf(InfoLevel, format, args)
}

func Warnf(format string, args ...interface{}) {
	Logf(WarnLevel, format, args)
}

func Errorf(format string, args ...interface{}) {
	Logf(ErrorLevel, format, args)
}

func Panicf(format string, args ...interface{}) {
	Logf(PanicLevel, format, args)
}

// PanicIfError panics with err, or with args if given, unless err is nil.
func PanicIfError(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) == 0 {
		args = []interface{}{err}
	}
	Logf(PanicLevel, "", args)
}

type assertLogger struct{}

func (t assertLogger) Errorf(format string, args ...interface{}) {
	Panicf(format, args...)
}

// AssertTrue panics, through the log, if value is false.
func AssertTrue(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(assertLogger{}, value, msgAndArgs...)
}

// AssertFalse panics, through the log, if value is true.
func AssertFalse(value bool, msgAndArgs ...interface{}) bool {
	return assert.False(assertLogger{}, value, msgAndArgs...)
}
