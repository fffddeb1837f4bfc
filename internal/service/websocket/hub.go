package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"beecam/internal/dto"
	"beecam/internal/logger"
)

const (
	// broadcastBuffer is how many events may queue before Publish drops.
	broadcastBuffer = 64
	writeTimeout    = 5 * time.Second

	// DefaultPongWait is how long a viewer may stay silent, pongs included,
	// before its connection is dropped.
	DefaultPongWait = 60 * time.Second
)

// HubService fans live events out to every connected viewer.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	pongWait   time.Duration
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// NewHubService creates a hub; Run must be started before viewers connect.
func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		pongWait:   DefaultPongWait,
		logger:     logger,
	}
}

// SetPongWait changes the viewer silence limit. Call it before Run.
func (h *HubService) SetPongWait(d time.Duration) {
	h.pongWait = d
}

// PongWait is the read deadline viewers must be kept within. The hub pings
// every viewer well before it expires.
func (h *HubService) PongWait() time.Duration {
	return h.pongWait
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every viewer connection.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	ping := time.NewTicker(h.pongWait * 3 / 4)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", total)

		case client := <-h.unregister:
			h.remove(client)

		case <-ping.C:
			// WriteControl may run alongside other writers.
			for _, client := range h.snapshot() {
				if err := client.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					h.logger.Warning("Ping failed, dropping viewer: %v", err)
					h.remove(client)
				}
			}

		case message := <-h.broadcast:
			for _, client := range h.snapshot() {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					h.remove(client)
				}
			}
		}
	}
}

func (h *HubService) remove(client *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
	}
	total := len(h.clients)
	h.mutex.Unlock()

	if ok {
		client.Close()
		h.logger.Info("Viewer disconnected. Total: %d", total)
	}
}

func (h *HubService) snapshot() []*websocket.Conn {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	out := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		out = append(out, client)
	}
	return out
}

// Register adds a viewer. It returns false once the hub stopped.
func (h *HubService) Register(client *websocket.Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes and closes a viewer.
func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for every viewer. When the queue is full the
// event is dropped so capture never waits on slow viewers.
func (h *HubService) Publish(event dto.LiveEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error encoding live event: %v", err)
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Live event %s dropped, queue full", event.Type)
	}
}

// GetClientCount returns the number of connected viewers.
func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
