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

package interference

import (
	"math"

	. "github.com/openthread/ot-radiocore/types"
)

const (
	defaultMeterPerUnit float64 = 0.10 // Default distance equivalent in meters of one position unit.
)

// ModelParams stores the path loss parameters of the medium.
type ModelParams struct {
	MeterPerUnit       float64 `yaml:"meter_per_unit"`       // the distance in meters, equivalent to a single position unit
	ExponentDb         DbValue `yaml:"exponent_db"`          // the distance exponent (dB)
	FixedLossDb        DbValue `yaml:"fixed_loss_db"`        // the fixed loss (dB) term
	PropagationDelayNs uint64  `yaml:"propagation_delay_ns"` // fixed delay before a frame reaches other nodes
}

// DefaultModelParams returns the ITU indoor model at 2.4 GHz.
func DefaultModelParams() ModelParams {
	return ModelParams{
		MeterPerUnit:       defaultMeterPerUnit,
		ExponentDb:         30.0,
		FixedLossDb:        paround(20.0*math.Log10(2400) - 28.0),
		PropagationDelayNs: 0,
	}
}

// paround is a custom parameter rounding function (2 digits)
func paround(param float64) float64 {
	return math.Round(param*100.0) / 100.0
}

// computeIndoorRssi computes the RSSI for a receiver at distance dist, using a simple indoor exponent loss model.
// See https://en.wikipedia.org/wiki/ITU_model_for_indoor_attenuation
func computeIndoorRssi(dist float64, txPower DbValue, params *ModelParams) DbValue {
	pathloss := 0.0
	distMeters := dist * params.MeterPerUnit
	if distMeters >= 0.01 {
		pathloss = params.ExponentDb*math.Log10(distMeters) + params.FixedLossDb
		if pathloss < 0.0 {
			pathloss = 0.0
		}
	}
	return txPower - pathloss
}

// addSignalPowersDbm calculates signal power in dBm of two added, uncorrelated, signals with powers p1 and p2 (dBm).
func addSignalPowersDbm(p1 DbValue, p2 DbValue) DbValue {
	if p1 > p2+15.0 { // avoid costly calculation where possible
		return p1
	}
	if p2 > p1+15.0 {
		return p2
	}
	return 10.0 * math.Log10(math.Pow(10, p1/10.0)+math.Pow(10, p2/10.0))
}

// clipRssi clips the RSSI value to the range reported by the gain control.
func clipRssi(rssi DbValue) DbValue {
	if rssi > RssiMax {
		return RssiMax
	} else if rssi < RssiMin {
		return RssiMinusInfinity
	}
	return rssi
}
