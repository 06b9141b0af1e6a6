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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/openthread/ot-radiocore/types"
)

const nodeLogQueueSize = 1000

// NodeLogger is the log of one node's radio core, with its own file and display levels.
// Entries are queued and only written out by DisplayPendingLogEntries, so that the radio core can
// log from within its critical section without paying for output there.
type NodeLogger struct {
	Id           NodeId
	fileLevel    Level
	displayLevel Level

	logFile     *os.File
	logFileName string
	entries     chan logEntry
	timestampNs uint64
}

var (
	nodeLogs     = make(map[NodeId]*NodeLogger)
	nodeLogsLock sync.Mutex
)

// GetNodeLogger returns the NodeLogger of a node, creating it on first use. A non-empty
// outputDir opens the node's log file in that directory, if not already open.
func GetNodeLogger(outputDir string, nodeid NodeId) *NodeLogger {
	nodeLogsLock.Lock()
	defer nodeLogsLock.Unlock()

	nl, ok := nodeLogs[nodeid]
	if !ok {
		nl = &NodeLogger{
			Id:           nodeid,
			fileLevel:    DebugLevel,
			displayLevel: WarnLevel,
			entries:      make(chan logEntry, nodeLogQueueSize),
		}
		nodeLogs[nodeid] = nl
	}
	if outputDir != "" && nl.logFile == nil {
		nl.openLogFile(filepath.Join(outputDir, fmt.Sprintf("radio_%d.log", nodeid)))
	}
	return nl
}

// DeleteNodeLogger flushes, closes and forgets the logger of a deleted node.
func DeleteNodeLogger(nodeid NodeId) {
	nodeLogsLock.Lock()
	nl, ok := nodeLogs[nodeid]
	delete(nodeLogs, nodeid)
	nodeLogsLock.Unlock()

	if ok {
		nl.Close()
	}
}

func (nl *NodeLogger) openLogFile(name string) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0664)
	if err != nil {
		Errorf("creating node log file %s failed: %+v", name, err)
		return
	}
	nl.logFile = f
	nl.logFileName = name
	_ = nl.writeToLogFile(fmt.Sprintf("#\n# Radio core log for %s created %s\n# SimTimeNs   Message",
		GetNodeName(nl.Id), time.Now().Format(time.RFC3339)))
}

func (nl *NodeLogger) writeToLogFile(line string) error {
	_, err := nl.logFile.WriteString(line + "\n")
	if err != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
		Errorf("couldn't write to node log file %s, closing it: %v", nl.logFileName, err)
	}
	return err
}

func (nl *NodeLogger) logf(level Level, format string, args []interface{}) {
	if level > nl.fileLevel && level > nl.displayLevel {
		return
	}
	entry := logEntry{Level: level, Msg: getMessage(format, args)}
	select {
	case nl.entries <- entry:
	default:
		// queue full: flush at the last known time rather than drop
		nl.DisplayPendingLogEntries(nl.timestampNs)
		nl.entries <- entry
	}
}

func (nl *NodeLogger) SetFileLevel(level Level) {
	nl.fileLevel = level
}

func (nl *NodeLogger) SetDisplayLevel(level Level) {
	nl.displayLevel = level
}

func (nl *NodeLogger) Tracef(format string, args ...interface{}) {
	nl.logf(TraceLevel, format, args)
}

func (nl *NodeLogger) Debugf(format string, args ...interface{}) {
	nl.logf(DebugLevel, format, args)
}

func (nl *NodeLogger) Infof(format string, args ...interface{}) {
	nl.logf(InfoLevel, format, args)
}

func (nl *NodeLogger) Warnf(format string, args ...interface{}) {
	nl.logf(WarnLevel, format, args)
}

func (nl *NodeLogger) Errorf(format string, args ...interface{}) {
	nl.logf(ErrorLevel, format, args)
}

// Panicf flushes the pending entries and panics; used for broken caller contracts inside the radio core.
func (nl *NodeLogger) Panicf(format string, args ...interface{}) {
	nl.DisplayPendingLogEntries(nl.timestampNs)
	msg := GetNodeName(nl.Id) + " " + getMessage(format, args)
	Panicf("%s", msg)
	panic(msg)
}

// DisplayPendingLogEntries writes out the queued entries, stamped with simulation time ts (ns):
// to the node log file and, above the display level, to the global log.
func (nl *NodeLogger) DisplayPendingLogEntries(ts uint64) {
	nl.timestampNs = ts
	display := zaplogger.Named(GetNodeName(nl.Id))
	for {
		select {
		case entry := <-nl.entries:
			if nl.logFile != nil && entry.Level <= nl.fileLevel {
				_ = nl.writeToLogFile(fmt.Sprintf("%12d %s", ts, entry.Msg))
			}
			if entry.Level <= nl.displayLevel {
				write(display, entry.Level, entry.Msg)
			}
		default:
			return
		}
	}
}

// IsFileEnabled returns true if the node log file is open.
func (nl *NodeLogger) IsFileEnabled() bool {
	return nl.logFile != nil
}

// Close writes out the pending entries and closes the node log file.
func (nl *NodeLogger) Close() {
	nl.DisplayPendingLogEntries(nl.timestampNs)
	if nl.logFile != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
	}
}
