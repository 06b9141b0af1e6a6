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

package simulation

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-radiocore/logger"
)

// ExportNodes exports config/position info of all nodes to a YAML-friendly object. Channel and
// power are only included where they differ from the simulation default.
func (s *Simulation) ExportNodes() []NodeConfig {
	res := make([]NodeConfig, 0, len(s.nodes))
	def := s.cfg.Radio

	s.VisitNodesInOrder(func(node *Node) {
		st := node.radio.Status()
		pos := node.Position()
		cfg := NodeConfig{
			ID:         node.Id,
			Position:   &[3]float64{pos.X, pos.Y, pos.Z},
			RandomSeed: node.cfg.RandomSeed,
		}
		if node.cfg.Phy != nil && *node.cfg.Phy != def.Phy {
			phy := *node.cfg.Phy
			cfg.Phy = &phy
		}
		if st.Channel != def.Channel {
			ch := st.Channel
			cfg.Channel = &ch
		}
		if st.TxPowerDbm != def.TxPowerDbm {
			p := st.TxPowerDbm
			cfg.TxPowerDbm = &p
		}
		res = append(res, cfg)
	})
	return res
}

// ImportNodes adds all given nodes. It continues after a failed node and reports an error at the end.
func (s *Simulation) ImportNodes(nodes []NodeConfig) error {
	allOk := true
	for i := range nodes {
		cfg := nodes[i]
		if _, err := s.AddNode(&cfg); err != nil {
			logger.Warnf("Warn: %s", err)
			allOk = false
		}
	}
	if !allOk {
		return errors.Errorf("not all nodes could be imported - see error log above")
	}
	return nil
}

// ExportConfig returns the simulation config, with the current nodes, as YAML.
func (s *Simulation) ExportConfig() ([]byte, error) {
	cfg := *s.cfg
	cfg.Speed = s.speed
	cfg.Nodes = s.ExportNodes()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "simulation: export config")
	}
	return data, nil
}
