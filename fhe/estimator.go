// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fhe provides the confidential-computation backends for the carbon
// footprint model: a plaintext fixed-point estimator and an additively
// homomorphic (Paillier) one evaluating the same linear form over
// ciphertexts. Both sit behind the ledger's Estimator seam so backends can
// be swapped without touching the lifecycle logic.
package fhe

import (
	"github.com/shopspring/decimal"

	"github.com/greenadx/carbonledger/ledger"
)

// Linear model coefficients: kg CO2e per server, per GB transferred, per
// impression served, per campaign day.
var (
	coefServers     = decimal.NewFromFloat(0.5)
	coefBandwidthGB = decimal.NewFromFloat(0.02)
	coefImpressions = decimal.NewFromFloat(0.001)
	coefDuration    = decimal.NewFromFloat(0.1)
)

// LinearEstimator evaluates the footprint model directly on plaintext
// metrics. Deterministic, no randomness.
type LinearEstimator struct{}

// NewLinearEstimator returns the plaintext footprint estimator.
func NewLinearEstimator() *LinearEstimator {
	return &LinearEstimator{}
}

// Estimate computes servers*0.5 + bandwidthGB*0.02 + impressions*0.001 +
// durationDays*0.1 in fixed point.
func (e *LinearEstimator) Estimate(m ledger.Metrics) (decimal.Decimal, error) {
	total := coefServers.Mul(decimal.NewFromInt(int64(m.Servers)))
	total = total.Add(coefBandwidthGB.Mul(decimal.NewFromFloat(m.BandwidthGB)))
	total = total.Add(coefImpressions.Mul(decimal.NewFromInt(int64(m.Impressions))))
	total = total.Add(coefDuration.Mul(decimal.NewFromInt(int64(m.DurationDays))))
	return total, nil
}
