// Package remote serves a presenter remote: a websocket that accepts
// navigation signals and pushes the walkthrough state back, plus a plain
// JSON state endpoint.
//
// Frames are text JSON. A client sends either a signal
//
//	{"nextStep":"traffic-light"}   or   "traffic-light"
//
// or a stepping op for clicker buttons
//
//	{"op":"next-step"}
//
// and receives envelopes of type "state", "ack" or "error".
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

// Defaults for NewHub.
const (
	DefaultRPS        = 5
	DefaultBurst      = 10
	DefaultMaxClients = 8

	writeTimeout = 5 * time.Second
	sendBuffer   = 16
)

// Envelope is every frame the hub sends.
type Envelope struct {
	Type     string         `json:"type"`
	Snapshot *flow.Snapshot `json:"snapshot,omitempty"`
	Accepted string         `json:"accepted,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Envelope types.
const (
	TypeState = "state"
	TypeAck   = "ack"
	TypeError = "error"
)

// Option configures a Hub.
type Option func(*Hub)

// WithRateLimit sets the per-connection frame rate. A non-positive rps
// disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Hub) {
		h.rps = rps
		h.burst = max(burst, 1)
	}
}

// WithMaxClients caps concurrent websocket clients. Zero means no cap.
func WithMaxClients(n int) Option {
	return func(h *Hub) { h.maxClients = n }
}

// WithInitialState sets the snapshot sent to clients before the first
// Publish.
func WithInitialState(s flow.Snapshot) Option {
	return func(h *Hub) { h.latest = s }
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans state out to remote clients and funnels their validated
// commands into one channel.
type Hub struct {
	rps        float64
	burst      int
	maxClients int

	upgrader websocket.Upgrader
	cmds     chan flow.Command
	done     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	clients map[*client]struct{}
	pending int // upgrades holding a client slot
	latest  flow.Snapshot
	closed  bool
}

// NewHub creates a hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		rps:        DefaultRPS,
		burst:      DefaultBurst,
		maxClients: DefaultMaxClients,
		upgrader: websocket.Upgrader{
			// The remote is meant for a phone or clicker on the local
			// network; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cmds:    make(chan flow.Command, sendBuffer),
		done:    make(chan struct{}),
		clients: make(map[*client]struct{}),
		latest:  flow.SnapshotOf(flow.StepWelcome),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Commands delivers accepted client commands. It is closed by Close.
func (h *Hub) Commands() <-chan flow.Command { return h.cmds }

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Latest returns the last published snapshot.
func (h *Hub) Latest() flow.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Publish records s as the current state and broadcasts it.
func (h *Hub) Publish(s flow.Snapshot) {
	h.mu.Lock()
	h.latest = s
	h.mu.Unlock()
	h.Broadcast(s)
}

// Broadcast sends s to every client. Clients too slow to keep up are
// disconnected rather than allowed to stall the others.
func (h *Hub) Broadcast(s flow.Snapshot) {
	data, err := json.Marshal(Envelope{Type: TypeState, Snapshot: &s})
	if err != nil {
		debug.Warn("remote: encoding state: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			debug.Warn("remote: dropping slow client %s", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.close()
		}
	}
}

// ServeHTTP routes /ws and /state.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ws":
		h.serveWS(w, r)
	case "/state":
		h.serveState(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Hub) serveState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := json.Marshal(h.Latest())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.maxClients > 0 && len(h.clients)+h.pending >= h.maxClients {
		h.mu.Unlock()
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}
	// Reserve the slot so concurrent upgrades cannot exceed maxClients.
	h.pending++
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.mu.Lock()
		h.pending--
		h.mu.Unlock()
		// Upgrade has already written the HTTP error.
		debug.Log("remote: upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if h.rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(h.rps), h.burst)
	}

	h.mu.Lock()
	h.pending--
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	latest := h.latest
	h.wg.Add(2)
	h.mu.Unlock()

	debug.Log("remote: client %s connected", conn.RemoteAddr())
	go h.writeLoop(c)
	h.queue(c, Envelope{Type: TypeState, Snapshot: &latest})
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer h.drop(c)

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.Log("remote: read from %s: %v", c.conn.RemoteAddr(), err)
			}
			return
		}
		if kind != websocket.TextMessage {
			h.queue(c, Envelope{Type: TypeError, Error: "expected a text frame"})
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			h.queue(c, Envelope{Type: TypeError, Error: "rate limit exceeded"})
			continue
		}
		cmd, err := DecodeFrame(data)
		if err != nil {
			h.queue(c, Envelope{Type: TypeError, Error: err.Error()})
			continue
		}
		select {
		case h.cmds <- cmd:
			h.queue(c, Envelope{Type: TypeAck, Accepted: cmd.String()})
		case <-h.done:
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()
	defer c.conn.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			debug.Log("remote: write to %s: %v", c.conn.RemoteAddr(), err)
			// Unblock the reader; drop closes send and ends this loop.
			c.conn.Close()
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func (h *Hub) queue(c *client, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		debug.Warn("remote: encoding %s envelope: %v", env.Type, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		debug.Warn("remote: send buffer full for %s", c.conn.RemoteAddr())
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
	debug.Log("remote: client %s disconnected", c.conn.RemoteAddr())
}

// Close disconnects every client, waits for their goroutines and closes
// Commands.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.done)
	for c := range h.clients {
		// Closing the socket ends readLoop, which drops the client.
		c.conn.Close()
	}
	h.mu.Unlock()

	h.wg.Wait()
	close(h.cmds)
}

var stepOps = map[string]func() flow.Command{
	flow.OpNextTab.String():  flow.NextTabCmd,
	flow.OpPrevTab.String():  flow.PrevTabCmd,
	flow.OpNextStep.String(): flow.NextStepCmd,
	flow.OpPrevStep.String(): flow.PrevStepCmd,
	flow.OpReset.String():    flow.ResetCmd,
}

type opFrame struct {
	Op *string `json:"op"`
}

// DecodeFrame turns one client frame into a command. Signals go through
// flow.DecodeSignal so unknown tabs are rejected here.
func DecodeFrame(data []byte) (flow.Command, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var f opFrame
		if err := json.Unmarshal(data, &f); err == nil && f.Op != nil {
			mk, ok := stepOps[*f.Op]
			if !ok {
				return flow.Command{}, fmt.Errorf("unknown op %q", *f.Op)
			}
			return mk(), nil
		}
	}
	sig, err := flow.DecodeSignal(data)
	if err != nil {
		return flow.Command{}, fmt.Errorf("invalid signal: %w", err)
	}
	return sig.Command(), nil
}

// Serve runs an HTTP server for handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		debug.Log("remote: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("remote server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("remote server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("remote server: %w", err)
	}
	return nil
}
