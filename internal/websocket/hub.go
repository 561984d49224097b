package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is the envelope pushed to every connected client
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub maintains the set of active clients and fans broadcast messages out to
// them. One hub is created at process start and shared by all services.
type Hub struct {
	clients    map[*Client]bool
	Broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
}

// NewHub initializes a new Hub instance
func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the dispatch loop. Delivery is best-effort: clients that cannot
// keep up are dropped, and clients not connected at emission time never see
// the event.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Println("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish marshals an event envelope and queues it for broadcast. It never
// blocks the caller: if the broadcast queue is full the event is dropped.
func (h *Hub) Publish(event string, data interface{}) {
	msg, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		log.Printf("failed to marshal %s event: %v", event, err)
		return
	}

	select {
	case h.Broadcast <- msg:
	default:
		log.Printf("broadcast queue full, dropping %s event", event)
	}
}
