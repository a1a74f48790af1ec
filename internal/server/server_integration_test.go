package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/ayusman/airmouse/internal/config"
	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/ayusman/airmouse/internal/logging"
	"github.com/ayusman/airmouse/internal/metrics"
	"github.com/ayusman/airmouse/internal/store"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, engine *fakeEngine) *httptest.Server {
	t.Helper()

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	collector := metrics.New()
	collector.Frame(metrics.OutcomeNoHand)

	srv := New(Config{
		Store:          st,
		Engine:         engine,
		Metrics:        collector.Handler(),
		Base:           config.Default(),
		Logger:         logging.NewNop(),
		StreamInterval: 5 * time.Millisecond,
	})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func TestAPI_SettingsWorkflow(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})
	client := ts.Client()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(`{"router.scroll_step":"60"}`))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/api/settings/router.scroll_step")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"key":"router.scroll_step","value":"60"}`, string(body))

	// Stored settings feed the next configuration load.
	cfg, err := config.Load("", map[string]string{"router.scroll_step": "60"})
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Router.ScrollStep)
}

func TestAPI_Rules(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})

	resp, err := ts.Client().Get(ts.URL + "/api/rules")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"scroll-down"`)
}

func TestAPI_Metrics(t *testing.T) {
	ts := newTestServer(t, &fakeEngine{})

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `airmouse_frames_total{outcome="no_hand"} 1`)
}

func TestAPI_Events(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(t, engine)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return engine.subscribers() == 1 }, 2*time.Second, 5*time.Millisecond)

	engine.publish(app.Event{
		Session:   "test-session",
		Signature: "00000",
		Action:    gesture.Scroll(-40),
		FPS:       30,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev app.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "00000", ev.Signature)
	assert.Equal(t, gesture.ActionScroll, ev.Action.Kind)
	assert.Equal(t, -40, ev.Action.Delta)

	conn.Close()
	require.Eventually(t, func() bool { return engine.subscribers() == 0 }, 2*time.Second, 5*time.Millisecond,
		"closing the socket unsubscribes")
}

func TestAPI_EventsRejectsForeignOrigin(t *testing.T) {
	engine := &fakeEngine{}
	ts := newTestServer(t, engine)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, engine.subscribers())

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {ts.URL}})
	require.NoError(t, err)
	conn.Close()
}

func TestServer_DefaultAddrIsLoopback(t *testing.T) {
	host, _, err := net.SplitHostPort(config.Default().Server.Addr)
	require.NoError(t, err)
	assert.True(t, net.ParseIP(host).IsLoopback(), "default bind %q", host)
}

func TestAPI_Stream(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	ts := newTestServer(t, &fakeEngine{jpeg: jpeg})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\n", line)

	line, _ = r.ReadString('\n')
	assert.Equal(t, "Content-Type: image/jpeg\r\n", line)
	line, _ = r.ReadString('\n')
	assert.Equal(t, "Content-Length: 4\r\n", line)
}

func TestServer_Run(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	s := New(Config{Logger: logging.NewNop()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
