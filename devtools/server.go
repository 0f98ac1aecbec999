package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vireolabs/reactor/internal/reactive"
	"github.com/vireolabs/reactor/internal/scheduler"
)

var _ scheduler.DrainObserver = (*Server)(nil)

// maxHistorySize bounds the in-memory ring of events served on /api/history
// to clients that connect after activity has already started.
const maxHistorySize = 2000

// Server broadcasts reactivity events to connected websocket clients and
// keeps a bounded in-memory history, the way chosenoffset-descry's
// dashboard server fans metric/event updates out to browser clients.
type Server struct {
	addr string

	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool

	events  chan Event
	stop    chan struct{}
	history []Event

	httpServer *http.Server
	log        *SessionLog
}

// NewServer creates a dashboard bound to addr (e.g. ":8787"). If log is
// non-nil, every broadcast event is also appended to it.
func NewServer(addr string, log *SessionLog) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan Event, 256),
		stop:    make(chan struct{}),
		log:     log,
	}
}

// Hooks returns an effect Hooks value that records Track/Trigger activity.
// The name argument is not recorded in the emitted events; each event
// identifies its effect by EffectID only.
func (s *Server) Hooks(name string) reactive.Hooks {
	return reactive.Hooks{
		OnTrack: func(e *reactive.Effect, target any, op reactive.TrackOp, key any) {
			s.emit(Event{
				Timestamp: time.Now(),
				Kind:      EventTrack,
				EffectID:  e.ID(),
				Target:    fmt.Sprintf("%T", target),
				Key:       fmt.Sprintf("%v", key),
				Op:        trackOpName(op),
			})
		},
		OnTrigger: func(e *reactive.Effect, target any, op reactive.TriggerOp, key any) {
			s.emit(Event{
				Timestamp: time.Now(),
				Kind:      EventTrigger,
				EffectID:  e.ID(),
				Target:    fmt.Sprintf("%T", target),
				Key:       fmt.Sprintf("%v", key),
				Op:        triggerOpName(op),
			})
		},
	}
}

// OnDrainStart implements scheduler.DrainObserver, logging that a drain has
// been armed on whichever runtime this Server was attached to via
// reactor.SetDrainObserver.
func (s *Server) OnDrainStart() {
	s.emit(Event{Timestamp: time.Now(), Kind: EventDrainStart})
}

// OnDrainEnd implements scheduler.DrainObserver, logging the completion of
// one scheduler drain and how many jobs/callbacks it ran across every
// internal recursion to a fixed point.
func (s *Server) OnDrainEnd(jobs, callbacks int) {
	s.emit(Event{Timestamp: time.Now(), Kind: EventDrain, DrainJobs: jobs, DrainCallbacks: callbacks})
}

// OnRecursionLimitExceeded implements scheduler.DrainObserver, logging a
// job or callback (kind is "job" or "callback") the scheduler gave up on
// for exceeding scheduler.RecursionLimit reruns within one drain.
func (s *Server) OnRecursionLimitExceeded(kind, owner string) {
	s.emit(Event{Timestamp: time.Now(), Kind: EventRecursionLimit, Op: kind, Owner: owner})
}

func (s *Server) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		slog.Warn("devtools: event channel full, dropping", "kind", ev.Kind)
	}
}

// Start runs the dashboard's HTTP server and broadcast loop until Stop is
// called. Blocks like http.Server.ListenAndServe.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/history", s.handleHistory)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	go s.broadcast()

	slog.Info("devtools: dashboard listening", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the dashboard down, closing every connected client.
func (s *Server) Stop() error {
	close(s.stop)
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) broadcast() {
	for {
		select {
		case <-s.stop:
			return
		case ev := <-s.events:
			s.mu.Lock()
			s.history = append(s.history, ev)
			if len(s.history) > maxHistorySize {
				s.history = s.history[len(s.history)-maxHistorySize:]
			}
			s.mu.Unlock()

			if s.log != nil {
				if err := s.log.Append(ev); err != nil {
					slog.Warn("devtools: session log append failed", "error", err)
				}
			}

			s.broadcastOne(ev)
		}
	}
}

func (s *Server) broadcastOne(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("devtools: dropping unresponsive client", "error", err)
			go s.removeClient(conn)
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("devtools: websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer s.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snapshot := append([]Event(nil), s.history...)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>reactor devtools</title>
  <style>
    body { font-family: system-ui, sans-serif; margin: 0; padding: 20px; background: #0f1115; color: #e6e6e6; }
    h1 { font-size: 1.2em; }
    #log { font-family: monospace; font-size: 0.85em; white-space: pre; overflow-y: auto; height: 80vh; border: 1px solid #333; padding: 10px; }
    .track { color: #6fc3ff; }
    .trigger { color: #ffb86c; }
    .drain { color: #9ef29e; }
  </style>
</head>
<body>
  <h1>reactor devtools</h1>
  <div id="log"></div>
  <script>
    const log = document.getElementById("log");
    const ws = new WebSocket("ws://" + location.host + "/ws");
    ws.onmessage = (msg) => {
      const ev = JSON.parse(msg.data);
      const line = document.createElement("div");
      line.className = ev.kind;
      line.textContent = JSON.stringify(ev);
      log.appendChild(line);
      log.scrollTop = log.scrollHeight;
    };
  </script>
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	indexTemplate.Execute(w, nil)
}

func trackOpName(op reactive.TrackOp) string {
	switch op {
	case reactive.TrackGet:
		return "get"
	case reactive.TrackHas:
		return "has"
	case reactive.TrackIterate:
		return "iterate"
	default:
		return "unknown"
	}
}

func triggerOpName(op reactive.TriggerOp) string {
	switch op {
	case reactive.TriggerSet:
		return "set"
	case reactive.TriggerAdd:
		return "add"
	case reactive.TriggerDelete:
		return "delete"
	case reactive.TriggerClear:
		return "clear"
	default:
		return "unknown"
	}
}
