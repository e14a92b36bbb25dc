// Package ws fans presence snapshots out to viewing clients over websocket.
// Clients subscribe per station; a station with no viewers simply drops its
// broadcasts.
package ws

import (
	"encoding/json"

	"wardsync/internal/model"
	"wardsync/pkg/logger"
)

type registration struct {
	client    *Client
	stationID string
}

type broadcast struct {
	stationID string
	payload   []byte
}

// Hub manages all viewer connections, grouped by station.
type Hub struct {
	stations   map[string]map[*Client]bool
	register   chan registration
	unregister chan *Client
	broadcasts chan broadcast
	done       chan struct{}
}

// NewHub creates a hub; call Run in a goroutine.
func NewHub() *Hub {
	return &Hub{
		stations:   make(map[string]map[*Client]bool),
		register:   make(chan registration),
		unregister: make(chan *Client),
		broadcasts: make(chan broadcast, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for _, clients := range h.stations {
				for client := range clients {
					close(client.send)
				}
			}
			return
		case reg := <-h.register:
			clients, ok := h.stations[reg.stationID]
			if !ok {
				clients = make(map[*Client]bool)
				h.stations[reg.stationID] = clients
			}
			clients[reg.client] = true
			logger.Debugf("ws: viewer joined station %s (%d viewers)", reg.stationID, len(clients))
		case client := <-h.unregister:
			clients, ok := h.stations[client.stationID]
			if !ok {
				continue
			}
			if _, ok := clients[client]; ok {
				delete(clients, client)
				close(client.send)
			}
			if len(clients) == 0 {
				delete(h.stations, client.stationID)
			}
		case msg := <-h.broadcasts:
			for client := range h.stations[msg.stationID] {
				select {
				case client.send <- msg.payload:
				default:
					// Slow consumer; drop it rather than block the hub.
					close(client.send)
					delete(h.stations[msg.stationID], client)
				}
			}
		}
	}
}

// Close shuts the hub down and disconnects all viewers.
func (h *Hub) Close() {
	close(h.done)
}

// PublishSnapshot satisfies the engine's observer contract: every sync
// cycle's full snapshot is sent to the station's viewers.
func (h *Hub) PublishSnapshot(snapshot model.PresenceSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		logger.Warnf("ws: snapshot marshal failed: %v", err)
		return
	}
	select {
	case h.broadcasts <- broadcast{stationID: snapshot.StationID, payload: payload}:
	case <-h.done:
	}
}
