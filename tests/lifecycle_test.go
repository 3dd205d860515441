// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenadx/carbonledger/fhe"
	"github.com/greenadx/carbonledger/ledger"
	"github.com/greenadx/carbonledger/pkg/log"
	"github.com/greenadx/carbonledger/storage"
	"github.com/greenadx/carbonledger/views"
)

// TestFullLifecycle drives the complete campaign lifecycle with the real
// backends: memdb store, HPKE sealer, homomorphic estimator.
func TestFullLifecycle(t *testing.T) {
	logger := log.NoOp()
	ctx := context.Background()

	// 1. Initialize components
	t.Log("=== Phase 1: Initialize Components ===")

	store := storage.NewMemStore()
	defer store.Close()
	require.True(t, store.IsAvailable())

	pub, priv, err := fhe.GenerateKeyPair()
	require.NoError(t, err)

	sealer, err := fhe.NewHPKESealer(pub)
	require.NoError(t, err)

	scheme, err := fhe.NewPaillier(512)
	require.NoError(t, err)
	estimator := fhe.NewHomomorphicEstimator(scheme)

	led := ledger.NewLedger(store, estimator, sealer, logger)

	// 2. Submit campaigns
	t.Log("=== Phase 2: Submit Campaigns ===")

	owner := "0xOwner"
	first, err := led.SubmitCampaign(ctx, "Spring Launch",
		ledger.Metrics{Servers: 2, BandwidthGB: 10, Impressions: 1000, DurationDays: 5}, owner)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusProcessing, first.Status)

	second, err := led.SubmitCampaign(ctx, "Summer Push",
		ledger.Metrics{Servers: 8, BandwidthGB: 100, Impressions: 50000, DurationDays: 30}, owner)
	require.NoError(t, err)

	third, err := led.SubmitCampaign(ctx, "Rival Campaign",
		ledger.Metrics{Servers: 1, BandwidthGB: 1, Impressions: 100, DurationDays: 7}, "0xRival")
	require.NoError(t, err)

	// The sealed payload round-trips with the recipient key.
	unsealed, err := fhe.Unseal(first.EncryptedPayload, priv)
	require.NoError(t, err)
	require.Equal(t, *first.Metrics, unsealed)

	// 3. Compute transitions
	t.Log("=== Phase 3: Compute Footprints ===")

	done, err := led.ComputeFootprint(ctx, first.ID, owner)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusCompleted, done.Status)
	require.Equal(t, 3.0, done.CarbonFootprint)

	// 8*0.5 + 100*0.02 + 50000*0.001 + 30*0.1 = 59
	done, err = led.ComputeFootprint(ctx, second.ID, owner)
	require.NoError(t, err)
	require.Equal(t, 59.0, done.CarbonFootprint)

	// Ownership gates the transition.
	_, err = led.ComputeFootprint(ctx, third.ID, owner)
	require.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = led.ComputeFootprint(ctx, first.ID, owner)
	require.ErrorIs(t, err, ledger.ErrAlreadyCompleted)

	// 4. Derived views
	t.Log("=== Phase 4: Derive Views ===")

	records, err := led.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	stats := views.Statistics(records)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.Completed)
	require.Equal(t, 1, stats.Processing)
	require.Equal(t, 62.0, stats.TotalCarbon)

	chart := views.ChartView(records)
	require.False(t, chart.Empty)
	require.Len(t, chart.Bars, 2)

	filtered := views.Filter(records, "rival")
	require.Len(t, filtered, 1)
	require.Equal(t, third.ID, filtered[0].ID)

	// 5. No orphans after clean submits
	t.Log("=== Phase 5: Audit ===")

	orphans, err := led.AuditOrphans(ctx)
	require.NoError(t, err)
	require.Empty(t, orphans)
}
