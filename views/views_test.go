// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package views

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenadx/carbonledger/ledger"
)

func record(id, name, owner string, status ledger.Status, carbon float64) *ledger.CampaignRecord {
	return &ledger.CampaignRecord{
		ID:              id,
		Name:            name,
		Owner:           owner,
		Status:          status,
		CarbonFootprint: carbon,
	}
}

func TestStatisticsEmpty(t *testing.T) {
	s := Statistics(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.TotalCarbon)
	// No division by zero: the average of nothing is 0.
	assert.Zero(t, s.AvgCarbon)
}

func TestStatistics(t *testing.T) {
	records := []*ledger.CampaignRecord{
		record("a", "A", "0x1", ledger.StatusCompleted, 3),
		record("b", "B", "0x1", ledger.StatusCompleted, 5),
		record("c", "C", "0x2", ledger.StatusProcessing, 0),
		record("d", "D", "0x2", ledger.StatusError, 0),
	}

	s := Statistics(records)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.Processing)
	assert.Equal(t, 8.0, s.TotalCarbon)
	assert.Equal(t, 2.0, s.AvgCarbon)
}

func TestFilter(t *testing.T) {
	records := []*ledger.CampaignRecord{
		record("a", "Summer Sale", "0xAlice", ledger.StatusProcessing, 0),
		record("b", "Winter Push", "0xBob", ledger.StatusProcessing, 0),
	}

	assert.Len(t, Filter(records, ""), 2)
	assert.Len(t, Filter(records, "   "), 2)

	// Case-insensitive on name.
	got := Filter(records, "sUmMeR")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	// Case-insensitive on owner.
	got = Filter(records, "0XBOB")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	assert.Empty(t, Filter(records, "no match"))
}

func TestPaginateClamping(t *testing.T) {
	var records []*ledger.CampaignRecord
	for i := 0; i < 12; i++ {
		records = append(records, record(fmt.Sprintf("id%d", i), "n", "o", ledger.StatusProcessing, 0))
	}

	page := Paginate(records, 1, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 12, page.TotalRecords)
	assert.Len(t, page.Records, 5)

	// Last page is short.
	page = Paginate(records, 3, 5)
	assert.Len(t, page.Records, 2)
	assert.Equal(t, "id10", page.Records[0].ID)

	// Out-of-range pages clamp instead of erroring.
	page = Paginate(records, 99, 5)
	assert.Equal(t, 3, page.Page)
	assert.Len(t, page.Records, 2)

	page = Paginate(records, 0, 5)
	assert.Equal(t, 1, page.Page)

	page = Paginate(records, -4, 5)
	assert.Equal(t, 1, page.Page)
}

func TestPaginateEmpty(t *testing.T) {
	page := Paginate(nil, 3, 5)
	assert.Equal(t, 1, page.Page)
	assert.Zero(t, page.TotalPages)
	assert.Empty(t, page.Records)
}

func TestPaginateDefaultsPageSize(t *testing.T) {
	var records []*ledger.CampaignRecord
	for i := 0; i < 7; i++ {
		records = append(records, record(fmt.Sprintf("id%d", i), "n", "o", ledger.StatusProcessing, 0))
	}

	page := Paginate(records, 1, 0)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Records, DefaultPageSize)
}

func TestChartViewEmptyState(t *testing.T) {
	chart := ChartView([]*ledger.CampaignRecord{
		record("a", "A", "0x1", ledger.StatusProcessing, 0),
	})
	assert.True(t, chart.Empty)
	assert.Empty(t, chart.Bars)
}

func TestChartViewCapsAndNormalizes(t *testing.T) {
	// Input comes pre-sorted newest first; the chart keeps the 5 most
	// recent completed records.
	var records []*ledger.CampaignRecord
	for i := 0; i < 7; i++ {
		records = append(records,
			record(fmt.Sprintf("c%d", i), "n", "o", ledger.StatusCompleted, float64(i+1)))
	}
	records = append(records, record("p", "n", "o", ledger.StatusProcessing, 0))

	chart := ChartView(records)
	require.False(t, chart.Empty)
	require.Len(t, chart.Bars, 5)

	// Bars keep input order; the widest bar is 100%.
	assert.Equal(t, "c0", chart.Bars[0].ID)
	assert.Equal(t, "c4", chart.Bars[4].ID)
	assert.Equal(t, 100.0, chart.Bars[4].Width)
	assert.Equal(t, 20.0, chart.Bars[0].Width)
}

func TestChartViewAllZeroFootprints(t *testing.T) {
	chart := ChartView([]*ledger.CampaignRecord{
		record("a", "A", "0x1", ledger.StatusCompleted, 0),
		record("b", "B", "0x1", ledger.StatusCompleted, 0),
	})
	require.False(t, chart.Empty)
	require.Len(t, chart.Bars, 2)
	// Max footprint 0 must not produce NaN widths.
	assert.Zero(t, chart.Bars[0].Width)
	assert.Zero(t, chart.Bars[1].Width)
}
