// Package hub pushes session-revocation events to connected clients so
// devices drop their tokens as soon as a logout-all or cap eviction
// lands, instead of discovering it on the next refresh.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

type clientConn struct {
	conn   *websocket.Conn
	userID int
	mu     sync.Mutex
}

func (cc *clientConn) send(data []byte) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if err := cc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[HUB] send error user=%d: %v", cc.userID, err)
	}
}

type Hub struct {
	mu     sync.RWMutex
	byUser map[int][]*clientConn
	total  int
}

func New() *Hub {
	return &Hub{byUser: make(map[int][]*clientConn)}
}

// HandleClientConn registers the socket and blocks until it closes.
// Inbound frames are drained and ignored; this hub is push-only.
func (h *Hub) HandleClientConn(c *websocket.Conn, userID int) {
	cc := &clientConn{conn: c, userID: userID}

	h.mu.Lock()
	h.byUser[userID] = append(h.byUser[userID], cc)
	h.total++
	h.mu.Unlock()

	log.Printf("[HUB] client connected: user_id=%d total=%d", userID, h.ClientCount())

	defer func() {
		h.mu.Lock()
		conns := h.byUser[userID]
		for i, conn := range conns {
			if conn == cc {
				h.byUser[userID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.byUser[userID]) == 0 {
			delete(h.byUser, userID)
		}
		h.total--
		h.mu.Unlock()
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

type revokedEvent struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
	TS     int64  `json:"ts"`
}

// SessionsRevoked notifies every connection the user has open.
func (h *Hub) SessionsRevoked(userID int, reason string) {
	data, err := json.Marshal(revokedEvent{
		Event:  "session_revoked",
		Reason: reason,
		TS:     time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*clientConn, len(h.byUser[userID]))
	copy(conns, h.byUser[userID])
	h.mu.RUnlock()

	for _, cc := range conns {
		cc.send(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}
