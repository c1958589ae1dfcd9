// Package livewatch fans a debug session's BR events and PRINT_STACK
// snapshots out to read-only browser viewers over a websocket, keyed
// by session ID. It never receives commands back — a viewer cannot
// steer the session, only watch it. Broadcast is a non-blocking send
// that skips a slow viewer's copy of a snapshot rather than stalling
// the debug session; the viewer stays connected.
package livewatch

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is one event fanned out to viewers of a session.
type Snapshot struct {
	Kind  string      `json:"kind"` // "break" or "stack"
	Path  string      `json:"path,omitempty"`
	Line  int         `json:"line,omitempty"`
	Stack interface{} `json:"stack,omitempty"`
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Room holds the viewers currently watching one session.
type Room struct {
	mu      sync.RWMutex
	viewers map[*viewer]bool
}

func newRoom() *Room { return &Room{viewers: make(map[*viewer]bool)} }

// Broadcast fans a snapshot out to every viewer in the room,
// dropping it for any viewer whose send buffer is full rather than
// blocking the caller (the controller's prompt loop must never stall
// on a slow browser tab).
func (r *Room) Broadcast(snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for v := range r.viewers {
		select {
		case v.send <- payload:
		default:
		}
	}
	return nil
}

func (r *Room) add(v *viewer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewers[v] = true
}

func (r *Room) remove(v *viewer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers, v)
}

func (r *Room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.viewers)
}

// Dashboard serves one websocket endpoint per session ID and routes
// Broadcast calls to the right Room.
type Dashboard struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewDashboard() *Dashboard {
	return &Dashboard{rooms: make(map[string]*Room)}
}

func (d *Dashboard) room(sessionID string) *Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.rooms[sessionID]
	if !ok {
		r = newRoom()
		d.rooms[sessionID] = r
	}
	return r
}

// Broadcast fans a snapshot out to every viewer watching sessionID.
// It is a no-op (not an error) when nobody is watching.
func (d *Dashboard) Broadcast(sessionID string, snap Snapshot) error {
	return d.room(sessionID).Broadcast(snap)
}

// ViewerCount reports how many browsers are currently watching
// sessionID.
func (d *Dashboard) ViewerCount(sessionID string) int {
	return d.room(sessionID).size()
}

// ServeHTTP upgrades the request to a websocket and registers the
// caller as a read-only viewer of the session named by the "session"
// query parameter.
func (d *Dashboard) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, 32)}
	room := d.room(sessionID)
	room.add(v)

	go v.writePump()
	go v.readPump(room)
}

// writePump relays queued snapshots to the browser.
func (v *viewer) writePump() {
	defer v.conn.Close()
	for msg := range v.send {
		if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump exists only to notice the viewer going away — a read-only
// dashboard never expects inbound frames, but it must still drain the
// control frames (ping/close) gorilla/websocket requires a reader for.
func (v *viewer) readPump(room *Room) {
	defer func() {
		room.remove(v)
		close(v.send)
	}()
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}
