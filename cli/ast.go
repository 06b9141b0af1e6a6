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
	"strconv"

	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Add      *AddCmd      `  @@` //nolint
	Del      *DelCmd      `| @@` //nolint
	Energy   *EnergyCmd   `| @@` //nolint
	Exit     *ExitCmd     `| @@` //nolint
	Export   *ExportCmd   `| @@` //nolint
	Force    *ForceCmd    `| @@` //nolint
	Go       *GoCmd       `| @@` //nolint
	Help     *HelpCmd     `| @@` //nolint
	Irq      *IrqCmd      `| @@` //nolint
	Lbt      *LbtCmd      `| @@` //nolint
	LogLevel *LogLevelCmd `| @@` //nolint
	Metrics  *MetricsCmd  `| @@` //nolint
	Move     *MoveCmd     `| @@` //nolint
	Node     *NodeCmd     `| @@` //nolint
	Nodes    *NodesCmd    `| @@` //nolint
	Protimer *ProtimerCmd `| @@` //nolint
	Radio    *RadioCmd    `| @@` //nolint
	Rx       *RxCmd       `| @@` //nolint
	Send     *SendCmd     `| @@` //nolint
	Signal   *SignalCmd   `| @@` //nolint
	Speed    *SpeedCmd    `| @@` //nolint
	State    *StateCmd    `| @@` //nolint
	Time     *TimeCmd     `| @@` //nolint
}

// noinspection GoStructTag
type NodeSelector struct {
	Id int `@Int` //nolint
}

func (ns *NodeSelector) String() string {
	return strconv.Itoa(ns.Id)
}

// noinspection GoStructTag
type AddCmd struct {
	Cmd     struct{}     `"add"`                //nolint
	X       *float64     `( "x" (@Int|@Float) ` //nolint
	Y       *float64     `| "y" (@Int|@Float) ` //nolint
	Z       *float64     `| "z" (@Int|@Float) ` //nolint
	Id      *AddNodeId   `| @@`                 //nolint
	Channel *ChannelFlag `| @@`                 //nolint
	Power   *PowerFlag   `| @@ )*`              //nolint
}

// noinspection GoStructTag
type AddNodeId struct {
	Val int `"id" @Int` //nolint
}

// noinspection GoStructTag
type ChannelFlag struct {
	Val int `("ch"|"channel") @Int` //nolint
}

// noinspection GoStructTag
type PowerFlag struct {
	Val string `"power" @( [ "-" ] (Int|Float) )` //nolint
}

func (pf *PowerFlag) Dbm() (float64, error) {
	return strconv.ParseFloat(pf.Val, 64)
}

// noinspection GoStructTag
type DelCmd struct {
	Cmd   struct{}       `"del"`   //nolint
	Nodes []NodeSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type EnergyCmd struct {
	Cmd  struct{}  `"energy"` //nolint
	Save *SaveFlag `[ @@ ]`   //nolint
}

// noinspection GoStructTag
type SaveFlag struct {
	Dummy struct{} `"save"`      //nolint
	Name  *string  `[ @String ]` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type ExportCmd struct {
	Cmd      struct{} `"export"`    //nolint
	Filename *string  `[ @String ]` //nolint
}

// noinspection GoStructTag
type ForceCmd struct {
	Cmd   struct{}      `"force"` //nolint
	Node  *NodeSelector `[ @@ ]`  //nolint
	State string        `@Ident`  //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd   struct{}  `"go"`                                     //nolint
	Time  string    `( @((Int|Float)["h"|"us"|"m"|"ms"|"s"]) ` //nolint
	Ever  *EverFlag `| @@ )`                                   //nolint
	Speed *float64  `[ "speed" (@Int|@Float) ]`                //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type IrqCmd struct {
	Cmd   struct{}      `"irq"`  //nolint
	Node  *NodeSelector `[ @@ ]` //nolint
	Clear *ClearFlag    `[ @@ ]` //nolint
}

// noinspection GoStructTag
type ClearFlag struct {
	Dummy struct{} `"clear"` //nolint
}

// noinspection GoStructTag
type LbtCmd struct {
	Cmd  struct{}      `"lbt"`  //nolint
	Node *NodeSelector `[ @@ ]` //nolint
	Stop *StopFlag     `[ @@ ]` //nolint
}

// noinspection GoStructTag
type StopFlag struct {
	Dummy struct{} `"stop"` //nolint
}

type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                     //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"off"|"T"|"D"|"I"|"N"|"W"|"E" )]` //nolint
}

// noinspection GoStructTag
type MetricsCmd struct {
	Cmd struct{} `"metrics"` //nolint
}

// noinspection GoStructTag
type MoveCmd struct {
	Cmd    struct{}     `"move"`            //nolint
	Target NodeSelector `@@`                //nolint
	X      float64      `(@Int|@Float)`     //nolint
	Y      float64      `(@Int|@Float)`     //nolint
	Z      *float64     `[ (@Int|@Float) ]` //nolint
}

// noinspection GoStructTag
type NodeCmd struct {
	Cmd  struct{}     `"node"` //nolint
	Node NodeSelector `@@`     //nolint
}

// noinspection GoStructTag
type NodesCmd struct {
	Cmd struct{} `"nodes"` //nolint
}

// noinspection GoStructTag
type ProtimerCmd struct {
	Cmd    struct{}      `"protimer"`                          //nolint
	Node   *NodeSelector `[ @@ ]`                              //nolint
	Action string        `[ @( "start" | "stop" | "reset" ) ]` //nolint
}

// noinspection GoStructTag
type RadioCmd struct {
	Cmd     struct{}      `"radio"` //nolint
	Node    *NodeSelector `[ @@ ]`  //nolint
	Channel *ChannelFlag  `( @@`    //nolint
	Power   *PowerFlag    `| @@ )*` //nolint
}

// noinspection GoStructTag
type RxCmd struct {
	Cmd     struct{}      `"rx"`   //nolint
	Node    *NodeSelector `[ @@ ]` //nolint
	OnOrOff *OnOrOffFlag  `[ @@ ]` //nolint
}

// noinspection GoStructTag
type OnFlag struct {
	Dummy struct{} `"on"` //nolint
}

// noinspection GoStructTag
type OffFlag struct {
	Dummy struct{} `"off"` //nolint
}

// noinspection GoStructTag
type OnOrOffFlag struct {
	On  *OnFlag  `( @@`   //nolint
	Off *OffFlag `| @@ )` //nolint
}

// noinspection GoStructTag
type SendCmd struct {
	Cmd  struct{}      `"send"`         //nolint
	Node *NodeSelector `[ @@ ]`         //nolint
	Data *string       `( @String`      //nolint
	Len  *int          `| "len" @Int )` //nolint
	Csma *CsmaFlag     `[ @@ ]`         //nolint
}

// noinspection GoStructTag
type CsmaFlag struct {
	Dummy struct{} `"csma"` //nolint
}

// noinspection GoStructTag
type SignalCmd struct {
	Cmd    struct{}      `"signal"` //nolint
	Node   *NodeSelector `[ @@ ]`   //nolint
	Signal string        `@Ident`   //nolint
}

// noinspection GoStructTag
type SpeedCmd struct {
	Cmd   struct{}      `"speed"`               //nolint
	Max   *MaxSpeedFlag `( @@`                  //nolint
	Speed *float64      `| [ (@Int|@Float) ] )` //nolint
}

// noinspection MaxSpeedFlag
type MaxSpeedFlag struct {
	Dummy struct{} `( "max" | "inf")` //nolint
}

// noinspection GoStructTag
type StateCmd struct {
	Cmd  struct{}      `"state"` //nolint
	Node *NodeSelector `[ @@ ]`  //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}
