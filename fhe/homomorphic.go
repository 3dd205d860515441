// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

import (
	"github.com/shopspring/decimal"

	"github.com/greenadx/carbonledger/ledger"
)

// footprintScale fixes the plaintext domain at micro-units so every model
// coefficient becomes an integer scalar: 0.5 -> 500000, 0.02/GB -> 20/mGB,
// 0.001 -> 1000, 0.1 -> 100000.
const footprintScale = 1_000_000

// HomomorphicEstimator evaluates the footprint model without ever seeing the
// metrics in the clear on the compute side: each metric is encrypted, the
// linear form is evaluated over ciphertexts, and only the final sum is
// decrypted.
type HomomorphicEstimator struct {
	scheme *Paillier
}

// NewHomomorphicEstimator wraps a Paillier scheme as a footprint estimator.
func NewHomomorphicEstimator(scheme *Paillier) *HomomorphicEstimator {
	return &HomomorphicEstimator{scheme: scheme}
}

// Estimate returns the same value as LinearEstimator, computed over
// ciphertexts in micro-units.
func (e *HomomorphicEstimator) Estimate(m ledger.Metrics) (decimal.Decimal, error) {
	// Bandwidth enters in milli-GB so its coefficient stays integral.
	bandwidthMilliGB := decimal.NewFromFloat(m.BandwidthGB).
		Mul(decimal.NewFromInt(1000)).
		Round(0).IntPart()

	terms := []struct {
		value int64
		coef  int64
	}{
		{int64(m.Servers), 500_000},
		{bandwidthMilliGB, 20},
		{int64(m.Impressions), 1_000},
		{int64(m.DurationDays), 100_000},
	}

	total, err := e.scheme.EncryptInt64(0)
	if err != nil {
		return decimal.Zero, err
	}
	for _, t := range terms {
		ct, err := e.scheme.EncryptInt64(t.value)
		if err != nil {
			return decimal.Zero, err
		}
		total = e.scheme.Add(total, e.scheme.ScalarMul(ct, t.coef))
	}

	micros, err := e.scheme.Decrypt(total)
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromBigInt(micros, 0).
		Div(decimal.NewFromInt(footprintScale)), nil
}

var _ ledger.Estimator = (*HomomorphicEstimator)(nil)
var _ ledger.Estimator = (*LinearEstimator)(nil)
