package remote

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Keep-alive connections of http.DefaultClient outlive the tests.
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// wsTestClient is a remote control connected to a test server.
type wsTestClient struct {
	conn *websocket.Conn
	t    *testing.T
}

func newTestServer(t *testing.T, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(opts...)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *wsTestClient {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsTestClient{conn: conn, t: t}
}

func (c *wsTestClient) send(msg string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func (c *wsTestClient) receive() Envelope {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var env Envelope
	require.NoError(c.t, json.Unmarshal(data, &env))
	return env
}

func nextCommand(t *testing.T, hub *Hub) flow.Command {
	t.Helper()
	select {
	case c := <-hub.Commands():
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
	}
	return flow.Command{}
}

func TestClientReceivesStateOnConnect(t *testing.T) {
	_, srv := newTestServer(t, WithInitialState(flow.SnapshotOf(flow.StepTrafficLight)))
	c := dial(t, srv)

	env := c.receive()
	assert.Equal(t, TypeState, env.Type)
	require.NotNil(t, env.Snapshot)
	assert.Equal(t, "traffic-light", env.Snapshot.ActiveTabID)
	assert.Equal(t, 3, env.Snapshot.StepIndex)
}

func TestSignalFrameBecomesCommand(t *testing.T) {
	hub, srv := newTestServer(t)
	c := dial(t, srv)
	c.receive()

	c.send(`{"nextStep":"complete"}`)
	cmd := nextCommand(t, hub)
	tab, ok := cmd.Tab()
	assert.True(t, ok)
	assert.Equal(t, flow.TabComplete, tab)

	ack := c.receive()
	assert.Equal(t, TypeAck, ack.Type)
	assert.Equal(t, "signal:complete", ack.Accepted)
}

func TestOpFrames(t *testing.T) {
	hub, srv := newTestServer(t)
	c := dial(t, srv)
	c.receive()

	c.send(`{"op":"next-step"}`)
	assert.Equal(t, flow.OpNextStep, nextCommand(t, hub).Op())
	c.receive()

	c.send(`"summary"`)
	assert.Equal(t, flow.OpSignal, nextCommand(t, hub).Op())
	c.receive()

	c.send(`{"op":"teleport"}`)
	env := c.receive()
	assert.Equal(t, TypeError, env.Type)
	assert.Contains(t, env.Error, "unknown op")
}

func TestInvalidSignalNeverReachesCommands(t *testing.T) {
	hub, srv := newTestServer(t)
	c := dial(t, srv)
	c.receive()

	c.send(`{"nextStep":"nowhere"}`)
	env := c.receive()
	assert.Equal(t, TypeError, env.Type)
	assert.Contains(t, env.Error, "unknown tab")

	c.send(`not json`)
	assert.Equal(t, TypeError, c.receive().Type)

	select {
	case cmd := <-hub.Commands():
		t.Fatalf("invalid frame produced command %s", cmd)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRateLimit(t *testing.T) {
	hub, srv := newTestServer(t, WithRateLimit(0.001, 1))
	c := dial(t, srv)
	c.receive()

	c.send(`"pipeline"`)
	nextCommand(t, hub)
	assert.Equal(t, TypeAck, c.receive().Type)

	c.send(`"portfolio"`)
	env := c.receive()
	assert.Equal(t, TypeError, env.Type)
	assert.Equal(t, "rate limit exceeded", env.Error)
}

func TestPublishBroadcastsToAllClients(t *testing.T) {
	hub, srv := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	a.receive()
	b.receive()
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(flow.SnapshotOf(flow.StepExecutiveSummary))
	for _, c := range []*wsTestClient{a, b} {
		env := c.receive()
		assert.Equal(t, TypeState, env.Type)
		assert.Equal(t, "summary", env.Snapshot.ActiveTabID)
	}
	assert.Equal(t, "executive-summary", hub.Latest().CurrentStep)
}

func TestMaxClients(t *testing.T) {
	hub, srv := newTestServer(t, WithMaxClients(1))
	c := dial(t, srv)
	c.receive()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestMaxClientsUnderConcurrentDials(t *testing.T) {
	hub, srv := newTestServer(t, WithMaxClients(1))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	const dials = 30
	conns := make(chan *websocket.Conn, dials)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for range dials {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			if err == nil {
				conns <- conn
			}
		}()
	}
	close(start)
	wg.Wait()
	close(conns)

	accepted := 0
	for conn := range conns {
		accepted++
		conn.Close()
	}
	assert.Equal(t, 1, accepted, "only one connection fits under the cap")
	assert.LessOrEqual(t, hub.Clients(), 1)
}

func TestStateEndpoint(t *testing.T) {
	hub, srv := newTestServer(t)
	hub.Publish(flow.SnapshotOf(flow.StepDecision))

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var snap flow.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, flow.SnapshotOf(flow.StepDecision), snap)

	post, err := http.Post(srv.URL+"/state", "application/json", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)

	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestClientDisconnectIsCleanedUp(t *testing.T) {
	hub, srv := newTestServer(t)
	c := dial(t, srv)
	c.receive()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	c.conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseClosesCommands(t *testing.T) {
	hub := NewHub()
	hub.Close()
	hub.Close()
	_, ok := <-hub.Commands()
	assert.False(t, ok)
}

func TestDecodeFrame(t *testing.T) {
	cmd, err := DecodeFrame([]byte(` {"op":"reset"} `))
	require.NoError(t, err)
	assert.Equal(t, flow.OpReset, cmd.Op())

	cmd, err = DecodeFrame([]byte(`{"nextStep":"portfolio"}`))
	require.NoError(t, err)
	tab, _ := cmd.Tab()
	assert.Equal(t, flow.TabPortfolio, tab)

	_, err = DecodeFrame([]byte(`{"op":"set-step"}`))
	assert.Error(t, err, "ops that need a payload are not accepted")

	_, err = DecodeFrame(nil)
	assert.ErrorIs(t, err, flow.ErrEmptySignal)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, addr, NewHub()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/state")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
