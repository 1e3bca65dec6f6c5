package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event names pushed to connected dashboard clients.
const (
	EventNewOrder          = "newOrder"
	EventTableStatusUpdate = "tableStatusUpdate"
	EventMenuUpdated       = "menuUpdated"
	EventSessionUpdate     = "sessionUpdate"
)

// Publisher fans a named event out to all connected dashboard clients.
// Delivery is fire-and-forget: publishing happens after the database commit
// and never blocks or retries.
type Publisher interface {
	Publish(event string, data interface{})
}

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung semua dashboard client yang terkoneksi lewat websocket.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]string),
		log:     log,
	}
}

// Register menambahkan connection ke set dengan role
func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

// Unregister melepaskan connection
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish mengirim pesan ke semua client yang terkoneksi.
func (h *Hub) Publish(event string, data interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.log.Printf("Error marshaling %s event: %v", event, err)
		return
	}

	for conn, role := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Printf("Error sending %s event to %s client: %v", event, role, err)
			continue
		}
	}
}

// NopPublisher discards every event. Used in tests and as a default until the
// websocket layer is wired up.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) {}
