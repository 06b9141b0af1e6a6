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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/ot-radiocore/interference"
	"github.com/openthread/ot-radiocore/logger"
	"github.com/openthread/ot-radiocore/radio"
)

const (
	DefaultChannel  = 11
	DefaultSpeed    = 1.0
	MaxSpeed        = 1000000.0
	DefaultLogLevel = "warn"
	// DefaultWatchLevel is the level from which a node's radio core log is shown on the console.
	DefaultWatchLevel = "warn"
)

// Config is the simulation-wide configuration. It can be loaded from a YAML file.
type Config struct {
	Speed      float64                  `yaml:"speed"`
	RandomSeed int64                    `yaml:"seed"`
	LogLevel   string                   `yaml:"log_level"`
	LogDir     string                   `yaml:"log_dir"`
	WatchLevel string                   `yaml:"watch_level"`
	Medium     interference.ModelParams `yaml:"medium"`
	Radio      radio.Config             `yaml:"radio"` // defaults for every new node
	Nodes      []NodeConfig             `yaml:"nodes"`
}

func DefaultConfig() *Config {
	return &Config{
		Speed:      DefaultSpeed,
		LogLevel:   DefaultLogLevel,
		WatchLevel: DefaultWatchLevel,
		Medium:     interference.DefaultModelParams(),
		Radio:      radio.DefaultConfig(),
	}
}

// Validate checks the simulation-wide settings and the default radio configuration.
func (cfg *Config) Validate() error {
	if cfg.Speed <= 0 {
		return errors.Errorf("simulation: speed must be positive, got %v", cfg.Speed)
	}
	if _, err := logger.ParseLevelString(cfg.LogLevel); err != nil {
		return errors.Wrapf(err, "simulation: log_level")
	}
	if _, err := logger.ParseLevelString(cfg.WatchLevel); err != nil {
		return errors.Wrapf(err, "simulation: watch_level")
	}
	if cfg.Medium.MeterPerUnit <= 0 {
		return errors.Errorf("simulation: medium meter_per_unit must be positive")
	}
	if err := cfg.Radio.Validate(); err != nil {
		return errors.Wrapf(err, "simulation: default radio config")
	}
	for i := range cfg.Nodes {
		if cfg.Nodes[i].ID < 0 {
			return errors.Errorf("simulation: node %d has negative id %d", i, cfg.Nodes[i].ID)
		}
	}
	return nil
}

// ParseConfig parses YAML on top of the defaults, so that a file only needs to name what it changes.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "simulation: parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads and parses a YAML simulation config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "simulation: read config file %s", path)
	}
	return ParseConfig(data)
}
