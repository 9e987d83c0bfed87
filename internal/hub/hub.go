// Package hub fans server events out to browser projectors over SSE.
//
// Two kinds of traffic share the stream: named bus events (selection,
// scene replacement, persistence) and high-rate "frame" messages with
// the drawable scene. A client that just attached is sent the current
// frame immediately, so it can draw without waiting for the next tick.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

const keepAliveInterval = 30 * time.Second

// FrameSource yields the current full drawable state for a client that
// just attached
type FrameSource interface {
	FrameJSON() ([]byte, error)
}

// Client represents a connected SSE client
type Client struct {
	id     string
	events chan []byte
}

// message is one SSE event ready to serialize
type message struct {
	name string
	data []byte
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	frames     FrameSource
}

// New creates a new Hub. frames may be nil; clients then start from the
// first broadcast instead of a snapshot.
func New(frames FrameSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		frames:     frames,
	}
}

// Run starts the hub's event loop and blocks until ctx is cancelled
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client connected: %s (total: %d)", client.id, total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.events)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("SSE client disconnected: %s (total: %d)", client.id, total)

		case m := <-h.broadcast:
			msg := fmt.Sprintf("event: %s\ndata: %s\n\n", m.name, m.data)

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.events <- []byte(msg):
				default:
					// Client is slow, skip this message
					log.Printf("SSE client %s is slow, skipping message", client.id)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Broadcast sends a named event to all connected clients
func (h *Hub) Broadcast(name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", name, err)
		return
	}
	h.send(message{name: name, data: data})
}

// BroadcastRaw sends pre-marshaled JSON under the given event name.
// Tick frames use this; they are marshaled once, under the stage lock.
func (h *Hub) BroadcastRaw(name string, data []byte) {
	h.send(message{name: name, data: data})
}

func (h *Hub) send(m message) {
	select {
	case h.broadcast <- m:
	default:
		log.Println("Broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check if client supports SSE
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// Create client
	client := &Client{
		id:     fmt.Sprintf("%d", time.Now().UnixNano()),
		events: make(chan []byte, 64),
	}

	// Register client
	h.register <- client

	// Ensure cleanup on disconnect
	defer func() {
		h.unregister <- client
	}()

	// Send initial connection message
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	// Late joiners get the current scene up front
	if h.frames != nil {
		if snap, err := h.frames.FrameJSON(); err == nil {
			fmt.Fprintf(w, "event: frame\ndata: %s\n\n", snap)
			flusher.Flush()
		}
	}

	// Keep-alive ticker
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	// Event loop
	for {
		select {
		case msg, ok := <-client.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// Send keep-alive comment
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
