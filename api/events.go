// Copyright (C) 2025, GreenADX Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/ids"

	"github.com/greenadx/carbonledger/pkg/log"
)

// EventType labels a ledger lifecycle event.
type EventType string

const (
	EventCampaignCreated   EventType = "campaign_created"
	EventCampaignCompleted EventType = "campaign_completed"
	EventCampaignFailed    EventType = "campaign_failed"
)

// Event is pushed to websocket subscribers so a UI can refresh its campaign
// list without polling.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	CampaignID string    `json:"campaignId"`
	Timestamp  int64     `json:"timestamp"`
}

// Hub fans ledger events out to connected websocket clients. Slow clients
// are dropped rather than allowed to block the broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     log.Logger
}

// NewHub creates an event hub.
func NewHub(logger log.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		log:     logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser UI is served from another origin; auth happens per
	// request at the wallet layer, not per connection here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Subscribe upgrades the request and registers the connection.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("event subscriber connected",
		log.String("remote", conn.RemoteAddr().String()))

	// Drain (and discard) client frames so pings and close frames are
	// processed; unregister on any read error.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(eventType EventType, campaignID string) {
	event := Event{
		ID:         ids.GenerateTestID().String(),
		Type:       eventType,
		CampaignID: campaignID,
		Timestamp:  time.Now().Unix(),
	}

	// Writes hold the hub lock: gorilla connections allow only one
	// concurrent writer.
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug("dropping slow event subscriber",
				log.Error(err))
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
