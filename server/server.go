// Package server is a debug/observability HTTP+WS endpoint: every completed
// Nullkiller pass publishes its chosen Task and the full per-behavior
// priority ranking, reachable both as a point-in-time GET and as a live
// websocket stream.
//
// Grounded on the teacher's server/server.go (gorilla/mux router +
// websocket.Upgrader) and server/broadcaster.go (fan-out Broadcast to every
// attached websocket), repurposed from a multiplayer game server's
// lobby/game routing to a single-process turn-observability feed.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nullkiller/aicore/goal"
	"github.com/nullkiller/aicore/log"
)

// TaskSummary is one behavior's best candidate task, as reported for
// debugging (spec B's "per-behavior priority ranking").
type TaskSummary struct {
	Behavior string  `json:"behavior"`
	GoalKind string  `json:"goalKind"`
	Priority float64 `json:"priority"`
	HeroID   int     `json:"heroId,omitempty"`
	HasHero  bool    `json:"hasHero"`
}

// SummarizeTask converts a behavior's chosen Task into the JSON-friendly
// shape the debug server reports.
func SummarizeTask(behaviorName string, task goal.Task) TaskSummary {
	return TaskSummary{
		Behavior: behaviorName,
		GoalKind: task.Goal.Kind.String(),
		Priority: task.Priority,
		HeroID:   task.Goal.HeroID,
		HasHero:  task.Goal.HasHero,
	}
}

// TurnSnapshot is everything one Nullkiller pass decided, published for
// observability.
type TurnSnapshot struct {
	Pass    int           `json:"pass"`
	Chosen  TaskSummary   `json:"chosen"`
	Ranking []TaskSummary `json:"ranking"`
}

// Server hosts the debug HTTP+WS endpoint.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	broadcaster *Broadcaster

	mu   sync.Mutex
	last *TurnSnapshot
}

// New builds a debug server listening on 0.0.0.0:port.
func New(port int) *Server {
	return &Server{
		addr:        fmt.Sprintf("0.0.0.0:%d", port),
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		broadcaster: NewBroadcaster(),
	}
}

// Publish records snapshot as the latest turn state and fans it out to
// every attached websocket. Nullkiller's caller invokes this once per pass.
func (s *Server) Publish(snapshot TurnSnapshot) {
	s.mu.Lock()
	s.last = &snapshot
	s.mu.Unlock()

	s.broadcaster.Broadcast(snapshot)
}

// Run starts the HTTP server and blocks. Mirrors server.Server.Run's
// mux.NewRouter()+http.ListenAndServe shape, without the teacher's
// authN/IP-allowlist middleware: this endpoint has no player identity or
// tournament-seating concept to protect, it only reports AI turn state.
func (s *Server) Run() error {
	r := mux.NewRouter()
	r.HandleFunc("/turn/last", s.handleLast).Methods(http.MethodGet)
	r.HandleFunc("/turn/stream", s.handleStream)

	log.Info("server: listening on %s", s.addr)
	return http.ListenAndServe(s.addr, r)
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if last == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := json.NewEncoder(w).Encode(last); err != nil {
		log.Error("server: encoding /turn/last response: %v", err)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("server: websocket upgrade failed: %v", err)
		return
	}
	s.broadcaster.Register(conn)

	// Drain reads until the client disconnects; the debug stream is
	// write-only from the server's side, same as the teacher's websocket
	// clients pairing an outbound Send with an inbound Read loop.
	go func() {
		defer func() {
			s.broadcaster.Remove(conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
