package server

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
)

// ProtocolV7 is the LiveReload protocol the websocket endpoint speaks.
const ProtocolV7 = "http://livereload.com/protocols/official-7"

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
	sseBeat     = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Reload is one broadcast. Seq increases with every broadcast. SSE clients
// get the latest Reload on connect and treat it as their baseline.
type Reload struct {
	Seq  string `json:"hash"`
	Path string `json:"path"`
}

type wsMessage struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols,omitempty"`
	ServerName string   `json:"serverName,omitempty"`
	Path       string   `json:"path,omitempty"`
	LiveCSS    bool     `json:"liveCSS,omitempty"`
}

type client struct {
	id   int
	ch   chan Reload
	done chan struct{}
}

// Hub fans reload broadcasts out to SSE and websocket clients.
type Hub struct {
	mu      sync.RWMutex
	nextID  int
	seq     int64
	clients map[int]*client
	last    Reload
	closed  bool
	rec     metrics.Recorder
}

// NewHub returns an empty hub. rec may be nil.
func NewHub(rec metrics.Recorder) *Hub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Hub{clients: map[int]*client{}, rec: rec}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register() (*client, Reload, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, Reload{}, false
	}
	c := &client{id: h.nextID, ch: make(chan Reload, 8), done: make(chan struct{})}
	h.nextID++
	h.clients[c.id] = c
	h.rec.SetReloadClients(len(h.clients))
	return c, h.last, true
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.rec.SetReloadClients(len(h.clients))
	}
}

// Broadcast tells every client to reload. path is the changed output path
// or "/" for a full page reload. Clients whose queue is full are dropped.
func (h *Hub) Broadcast(path string) {
	if path == "" {
		path = "/"
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	msg := Reload{Seq: strconv.FormatInt(h.seq, 10), Path: path}
	h.last = msg
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- msg:
		default:
			dropped++
			h.remove(c.id)
		}
	}
	slog.Debug("livereload broadcast", logfields.Path(path), logfields.Clients(len(snapshot)), slog.Int("dropped", dropped))
}

// Shutdown disconnects every client and ignores later broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.rec.SetReloadClients(0)
}

// ServeSSE streams reload events as server-sent events.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	c, current, ok := h.register()
	if !ok {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.remove(c.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	write := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !write(": connected\n\n") {
		return
	}
	if current.Seq == "" {
		current = Reload{Seq: "0", Path: "/"}
	}
	if !write(sseData(current)) {
		return
	}

	hb := time.NewTicker(sseBeat)
	defer hb.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-hb.C:
			if !write(": ping\n\n") {
				return
			}
		case msg := <-c.ch:
			if !write(sseData(msg)) {
				return
			}
		}
	}
}

func sseData(msg Reload) string {
	b, _ := json.Marshal(msg)
	return "data: " + string(b) + "\n\n"
}

// ServeWebSocket speaks the LiveReload protocol: the client says hello, the
// server answers hello and later sends reload commands.
func (h *Hub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	c, _, ok := h.register()
	if !ok {
		return
	}
	defer h.remove(c.id)

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	hello := make(chan struct{}, 1)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var in wsMessage
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			if in.Command == "hello" {
				select {
				case hello <- struct{}{}:
				default:
				}
			}
		}
	}()

	send := func(m wsMessage) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(m) == nil
	}

	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			return
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
			return
		case <-hello:
			if !send(wsMessage{Command: "hello", Protocols: []string{ProtocolV7}, ServerName: "sitepipe"}) {
				return
			}
		case msg := <-c.ch:
			if !send(wsMessage{Command: "reload", Path: msg.Path, LiveCSS: true}) {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
