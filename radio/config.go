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

package radio

import (
	"github.com/pkg/errors"

	. "github.com/openthread/ot-radiocore/types"

	"github.com/openthread/ot-radiocore/agc"
	"github.com/openthread/ot-radiocore/modem"
	"github.com/openthread/ot-radiocore/prng"
	"github.com/openthread/ot-radiocore/protimer"
	"github.com/openthread/ot-radiocore/rac"
)

// Config is the static configuration of one transceiver.
type Config struct {
	Phy        PhyType         `yaml:"phy"`
	Channel    ChannelId       `yaml:"channel"`
	TxPowerDbm DbValue         `yaml:"tx_power_dbm"`
	RxCapacity int             `yaml:"rx_capacity"`
	RandomSeed prng.RandomSeed `yaml:"random_seed"`
	Rac        rac.Timing      `yaml:"rac"`
	Modem      modem.Config    `yaml:"modem"`
	Protimer   protimer.Config `yaml:"protimer"`
	Agc        agc.Config      `yaml:"agc"`
}

func DefaultConfig() Config {
	return Config{
		Phy:        PhyIeee802154,
		Channel:    11,
		TxPowerDbm: 0,
		RxCapacity: 4,
		Rac:        rac.DefaultTiming(),
		Modem:      modem.DefaultConfig(),
		Protimer:   protimer.DefaultConfig(),
		Agc:        agc.DefaultConfig(),
	}
}

func (cfg *Config) Validate() error {
	if cfg.Channel < MinChannelNumber || cfg.Channel > MaxChannelNumber {
		return errors.Errorf("radio: channel %d out of range [%d, %d]", cfg.Channel, MinChannelNumber, MaxChannelNumber)
	}
	if cfg.Phy > PhyProprietary {
		return errors.Errorf("radio: unknown phy %d", cfg.Phy)
	}
	if cfg.RxCapacity <= 0 {
		return errors.Errorf("radio: rx capacity must be positive")
	}
	if cfg.Protimer.ClockHz == 0 || cfg.Protimer.ClockHz > 1000000000 {
		return errors.Errorf("radio: protimer clock %d Hz out of range", cfg.Protimer.ClockHz)
	}
	if cfg.Agc.MeasurementPeriodUs == 0 {
		return errors.Errorf("radio: agc measurement period must be non-zero")
	}
	if err := cfg.Modem.Validate(); err != nil {
		return errors.Wrapf(err, "radio")
	}
	return nil
}
