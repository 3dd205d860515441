// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package views derives read-only projections from a loaded campaign list:
// aggregate statistics, search filtering, pagination and the footprint
// chart. Everything here is stateless and pure.
package views

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/greenadx/carbonledger/ledger"
)

// DefaultPageSize is the fixed page size of the campaign list view.
const DefaultPageSize = 5

// ChartLimit caps the chart to the most recent completed campaigns.
const ChartLimit = 5

// Stats are the ledger-wide aggregates.
type Stats struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Processing  int     `json:"processing"`
	TotalCarbon float64 `json:"totalCarbon"`
	AvgCarbon   float64 `json:"avgCarbon"`
}

// Statistics aggregates the record list. AvgCarbon is 0 for an empty list.
func Statistics(records []*ledger.CampaignRecord) Stats {
	s := Stats{Total: len(records)}

	total := decimal.Zero
	for _, rec := range records {
		switch rec.Status {
		case ledger.StatusCompleted:
			s.Completed++
		case ledger.StatusProcessing:
			s.Processing++
		}
		total = total.Add(decimal.NewFromFloat(rec.CarbonFootprint))
	}

	s.TotalCarbon, _ = total.Float64()
	if s.Total > 0 {
		avg := total.Div(decimal.NewFromInt(int64(s.Total)))
		s.AvgCarbon, _ = avg.Float64()
	}
	return s
}

// Filter keeps records whose name or owner contains the query,
// case-insensitively. An empty query matches everything.
func Filter(records []*ledger.CampaignRecord, query string) []*ledger.CampaignRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	out := make([]*ledger.CampaignRecord, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Name), query) ||
			strings.Contains(strings.ToLower(rec.Owner), query) {
			out = append(out, rec)
		}
	}
	return out
}

// Page is one page of the filtered list.
type Page struct {
	Records      []*ledger.CampaignRecord `json:"records"`
	Page         int                      `json:"page"`
	PageSize     int                      `json:"pageSize"`
	TotalPages   int                      `json:"totalPages"`
	TotalRecords int                      `json:"totalRecords"`
}

// Paginate slices the list into 1-based pages. Out-of-range page numbers
// clamp to the nearest valid page instead of erroring.
func Paginate(records []*ledger.CampaignRecord, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalPages := (len(records) + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}

	return Page{
		Records:      records[start:end],
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalRecords: len(records),
	}
}

// ChartBar is one normalized bar of the footprint chart.
type ChartBar struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	CarbonFootprint float64 `json:"carbonFootprint"`
	// Width is the bar width as a percentage of the widest displayed bar.
	Width float64 `json:"width"`
}

// Chart is the footprint chart projection.
type Chart struct {
	Bars  []ChartBar `json:"bars"`
	Empty bool       `json:"empty"`
}

// ChartView restricts the list to completed records, caps it to the
// ChartLimit most recent (the input is already sorted newest first), and
// normalizes bar widths against the maximum displayed footprint. With no
// completed records it returns the explicit empty state.
func ChartView(records []*ledger.CampaignRecord) Chart {
	completed := make([]*ledger.CampaignRecord, 0, ChartLimit)
	for _, rec := range records {
		if rec.Status != ledger.StatusCompleted {
			continue
		}
		completed = append(completed, rec)
		if len(completed) == ChartLimit {
			break
		}
	}

	if len(completed) == 0 {
		return Chart{Empty: true}
	}

	max := 0.0
	for _, rec := range completed {
		if rec.CarbonFootprint > max {
			max = rec.CarbonFootprint
		}
	}

	bars := make([]ChartBar, 0, len(completed))
	for _, rec := range completed {
		width := 0.0
		if max > 0 {
			width = rec.CarbonFootprint / max * 100
		}
		bars = append(bars, ChartBar{
			ID:              rec.ID,
			Name:            rec.Name,
			CarbonFootprint: rec.CarbonFootprint,
			Width:           width,
		})
	}
	return Chart{Bars: bars}
}
