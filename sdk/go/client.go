// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package carbonsdk is the Go client for the carbon ledger API.
package carbonsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/greenadx/carbonledger/api"
	"github.com/greenadx/carbonledger/ledger"
	"github.com/greenadx/carbonledger/views"
)

// Client talks to a carbonledgerd instance. Wallet is the principal address
// sent with mutating requests.
type Client struct {
	baseURL    string
	wallet     string
	httpClient *http.Client
}

// NewClient creates a new ledger client.
func NewClient(baseURL, wallet string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		wallet:  wallet,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListCampaigns fetches one page of the filtered campaign list.
func (c *Client) ListCampaigns(ctx context.Context, query string, page, pageSize int) (*views.Page, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(pageSize))
	}

	var out views.Page
	if err := c.get(ctx, "/api/v1/campaigns?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitCampaign creates a campaign in the processing state.
func (c *Client) SubmitCampaign(ctx context.Context, name string, metrics ledger.Metrics) (*ledger.CampaignRecord, error) {
	body, err := json.Marshal(map[string]any{
		"name":    name,
		"metrics": metrics,
	})
	if err != nil {
		return nil, err
	}

	var out ledger.CampaignRecord
	if err := c.post(ctx, "/api/v1/campaigns", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeFootprint runs the compute transition on a campaign the client's
// wallet owns.
func (c *Client) ComputeFootprint(ctx context.Context, id string) (*ledger.CampaignRecord, error) {
	var out ledger.CampaignRecord
	path := fmt.Sprintf("/api/v1/campaigns/%s/compute", url.PathEscape(id))
	if err := c.post(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches ledger-wide aggregates.
func (c *Client) Stats(ctx context.Context) (*views.Stats, error) {
	var out views.Stats
	if err := c.get(ctx, "/api/v1/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chart fetches the footprint chart projection.
func (c *Client) Chart(ctx context.Context) (*views.Chart, error) {
	var out views.Chart
	if err := c.get(ctx, "/api/v1/chart", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsAvailable probes the store's liveness through the API.
func (c *Client) IsAvailable(ctx context.Context) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	if err := c.get(ctx, "/api/v1/status", &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

// Watch subscribes to ledger events over websocket. The returned channel is
// closed when the connection drops or ctx is cancelled.
func (c *Client) Watch(ctx context.Context) (<-chan api.Event, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/events"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	events := make(chan api.Event)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev api.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set(api.WalletHeader, c.wallet)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
