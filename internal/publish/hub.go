package publish

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"daily-sma/internal/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	clientBuffer   = 16
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Chart clients connect from arbitrary origins in this deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub broadcasts published average values to WebSocket chart clients.
// A client receives the latest value immediately on connect, then every
// value as it is published. Implements model.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	latest  []byte

	// onClients is called with the client count after every register or
	// unregister (metrics hook). May be nil.
	onClients func(n int)
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(onClients func(n int)) *Hub {
	return &Hub{
		clients:   make(map[*wsClient]bool),
		onClients: onClients,
	}
}

// SetValue broadcasts the value to all connected clients. Slow clients are
// dropped rather than allowed to stall the broadcast.
func (h *Hub) SetValue(_ context.Context, v model.AverageValue) {
	data := v.JSON()

	h.mu.Lock()
	h.latest = data
	var stale []*wsClient
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if len(stale) > 0 {
		log.Printf("[wshub] dropped %d slow clients (%d remain)", len(stale), n)
		h.notify(n)
	}
}

// ServeWS upgrades an HTTP request to a value-stream WebSocket.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[wshub] upgrade failed: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = true
	if h.latest != nil {
		c.send <- h.latest
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.notify(n)
	log.Printf("[wshub] client connected (%d total)", n)

	go c.writeLoop()
	go h.readLoop(c)
}

// Run serves the /ws endpoint and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[wshub] serving /ws on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[wshub] server error: %v", err)
	}
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.notify(0)
	return nil
}

// readLoop discards inbound messages and unregisters on disconnect.
func (h *Hub) readLoop(c *wsClient) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.notify(n)
	log.Printf("[wshub] client disconnected (%d total)", n)
}

func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *Hub) notify(n int) {
	if h.onClients != nil {
		h.onClients(n)
	}
}
