package server

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nullkiller/aicore/log"
)

// Broadcaster fans a TurnSnapshot out to every attached debug websocket,
// the same shape as the teacher's Broadcaster.Broadcast notifying every
// lobby/user websocket, generalized from two named fan-out targets
// (lobby, user handler) down to one set of observers since there is no
// per-identity routing here.
type Broadcaster struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{conns: make(map[*websocket.Conn]bool)}
}

// Register attaches conn so future Broadcast calls reach it.
func (bc *Broadcaster) Register(conn *websocket.Conn) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.conns[conn] = true
}

// Remove detaches conn, e.g. once its read loop observes it closed.
func (bc *Broadcaster) Remove(conn *websocket.Conn) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	delete(bc.conns, conn)
}

// Broadcast sends snapshot as JSON to every attached websocket, dropping
// (and removing) any connection that errors on write.
func (bc *Broadcaster) Broadcast(snapshot TurnSnapshot) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	for conn := range bc.conns {
		if err := conn.WriteJSON(snapshot); err != nil {
			log.Debug("server: dropping debug websocket after write error: %v", err)
			conn.Close()
			delete(bc.conns, conn)
		}
	}
}
