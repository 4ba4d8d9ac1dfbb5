package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
)

const streamSendBuffer = 16

// streamClient is one connected notification stream.
type streamClient struct {
	conn      *websocket.Conn
	recipient string
	send      chan []byte
}

// Hub fans persisted notifications out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	wg      sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*streamClient]struct{})}
}

var (
	streams     *Hub
	streamsOnce sync.Once
)

// Streams returns the process wide stream hub.
func Streams() *Hub {
	streamsOnce.Do(func() {
		streams = NewHub()
	})
	return streams
}

// HandleStream upgrades the request to a websocket and pushes notification
// events to the caller until the client disconnects. Inbound messages are
// ignored.
func (h *Hub) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // cross-origin access is policed by the proxy in front of us
		},
		HandshakeTimeout: 5 * time.Second,
		Subprotocols:     []string{"steward.notify.v1"},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil || conn == nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to upgrade connection to WebSocket")
		return
	}

	c := &streamClient{
		conn:      conn,
		recipient: RecipientFor(ctx),
		send:      make(chan []byte, streamSendBuffer),
	}
	h.add(c)
	log.Ctx(ctx).Info().Str("recipient", c.recipient).Msg("notification stream connected")

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	gracefulClose(ctx, conn, websocket.CloseNormalClosure, "notification stream closed")
	log.Ctx(ctx).Info().Str("recipient", c.recipient).Msg("notification stream disconnected")
}

func (h *Hub) add(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Broadcast pushes a notification event to every connected client entitled
// to see it. Slow clients lose events rather than blocking the caller.
func (h *Hub) Broadcast(ctx context.Context, n *models.Notification) {
	payload, err := json.Marshal(notificationDocument(n))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to marshal notification event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if n.Recipient != "" && n.Recipient != c.recipient {
			continue
		}
		select {
		case c.send <- payload:
		default:
			log.Ctx(ctx).Warn().Str("recipient", c.recipient).Msg("dropping notification event for slow stream client")
		}
	}
}

// ClientCount reports the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and waits for their writers to finish.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
		_ = c.conn.Close()
	}
	h.wg.Wait()
}

func gracefulClose(ctx context.Context, conn *websocket.Conn, code int, reason string) {
	if conn == nil {
		return
	}
	closeMessage := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(1*time.Second))
	_ = conn.Close()
	log.Ctx(ctx).Debug().Msgf("notification stream closed with code %d: %s", code, reason)
}
