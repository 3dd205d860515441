// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	metrics "github.com/luxfi/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all metrics for the carbon ledger using luxfi/metric
type Metrics struct {
	metricsInstance metrics.Metrics

	// Ledger metrics
	LedgerLoads        metrics.Counter
	RecordsLoaded      metrics.Counter
	RecordsSkipped     metrics.Counter
	CampaignsSubmitted metrics.Counter
	IndexAppendFailed  metrics.Counter

	// Compute metrics
	FootprintsComputed metrics.Counter
	ComputesRejected   metrics.CounterVec

	// API metrics
	RequestsProcessed metrics.CounterVec

	// Performance metrics
	LoadDuration    metrics.Histogram
	ComputeDuration metrics.Histogram
}

// NewMetrics creates a new metrics instance using luxfi/metric
func NewMetrics() (*Metrics, error) {
	factory := metrics.NewPrometheusFactory()
	metricsInstance := factory.New("carbonledger")

	m := &Metrics{
		metricsInstance: metricsInstance,
	}

	// Ledger metrics
	m.LedgerLoads = metricsInstance.NewCounter("ledger_loads_total", "Total number of full ledger loads")
	m.RecordsLoaded = metricsInstance.NewCounter("ledger_records_loaded_total", "Total number of records decoded during loads")
	m.RecordsSkipped = metricsInstance.NewCounter("ledger_records_skipped_total", "Total number of records skipped as missing or malformed")
	m.CampaignsSubmitted = metricsInstance.NewCounter("ledger_campaigns_submitted_total", "Total number of campaigns submitted")
	m.IndexAppendFailed = metricsInstance.NewCounter("ledger_index_append_failed_total", "Total number of index appends that failed after the record write")

	// Compute metrics
	m.FootprintsComputed = metricsInstance.NewCounter("compute_footprints_total", "Total number of footprint compute transitions")
	m.ComputesRejected = metricsInstance.NewCounterVec(
		"compute_rejected_total",
		"Total number of rejected compute transitions by reason",
		[]string{"reason"},
	)

	// API metrics
	m.RequestsProcessed = metricsInstance.NewCounterVec(
		"api_requests_processed_total",
		"Total number of API requests processed",
		[]string{"method", "status"},
	)

	// Performance metrics
	m.LoadDuration = metricsInstance.NewHistogram(
		"ledger_load_duration_seconds",
		"Time to load the full campaign list",
		prometheus.DefBuckets,
	)

	m.ComputeDuration = metricsInstance.NewHistogram(
		"compute_duration_seconds",
		"Time to run a footprint compute transition",
		prometheus.DefBuckets,
	)

	return m, nil
}

// GetGatherer returns the prometheus gatherer for metrics export
func (m *Metrics) GetGatherer() prometheus.Gatherer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultGatherer
}

// GetRegisterer returns the prometheus registerer
func (m *Metrics) GetRegisterer() prometheus.Registerer {
	if registry := m.metricsInstance.Registry(); registry != nil {
		return registry
	}
	return prometheus.DefaultRegisterer
}
