package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/SmitUplenchwar2687/Rewind/internal/archive"
	"github.com/SmitUplenchwar2687/Rewind/internal/clock"
	"github.com/SmitUplenchwar2687/Rewind/internal/event"
	"github.com/SmitUplenchwar2687/Rewind/internal/metrics"
	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
	"github.com/SmitUplenchwar2687/Rewind/internal/session"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func startTestServer(t *testing.T, opts Options) (string, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewVirtual(epoch)
	}
	srv := New(ln.Addr().String(), opts)
	go srv.StartOnListener(ln)
	baseURL := "http://" + ln.Addr().String()
	return baseURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestServer_Root(t *testing.T) {
	baseURL, cleanup := startTestServer(t, Options{})
	defer cleanup()

	resp, body := get(t, baseURL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var out map[string]string
	json.Unmarshal(body, &out)
	if out["service"] != "rewind" {
		t.Errorf("service = %q, want %q", out["service"], "rewind")
	}
	if out["time"] != epoch.Format(time.RFC3339) {
		t.Errorf("time = %q, want the injected clock", out["time"])
	}
}

func TestServer_Health(t *testing.T) {
	baseURL, cleanup := startTestServer(t, Options{Hub: NewHub(zerolog.Nop())})
	defer cleanup()

	resp, body := get(t, baseURL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"ws_clients":0`) {
		t.Errorf("body = %s", body)
	}
}

func TestServer_NotFound(t *testing.T) {
	baseURL, cleanup := startTestServer(t, Options{})
	defer cleanup()

	resp, _ := get(t, baseURL+"/nonexistent")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	// Optional routes stay unregistered without their collaborators.
	for _, path := range []string{"/dashboard/", "/api/sessions"} {
		if resp, _ := get(t, baseURL+path); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	baseURL, cleanup := startTestServer(t, Options{})
	defer cleanup()

	metrics.SessionFinished(metrics.RoleReplay, "complete")
	resp, body := get(t, baseURL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "rewind_sessions_total") {
		t.Error("metrics output missing rewind_sessions_total")
	}
}

func TestServer_Dashboard(t *testing.T) {
	baseURL, cleanup := startTestServer(t, Options{Hub: NewHub(zerolog.Nop())})
	defer cleanup()

	resp, body := get(t, baseURL+"/dashboard/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "Rewind Monitor") {
		t.Error("dashboard page not served")
	}
}

func dialWS(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(baseURL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e event.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return e
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	baseURL, cleanup := startTestServer(t, Options{Hub: hub})
	defer cleanup()

	conn := dialWS(t, baseURL)
	waitForClients(t, hub, 1)

	hub.Publish(event.Event{Type: event.CaptureRecord, Kind: protocol.FighterState, Records: 7, DelayMs: 16})
	got := readEvent(t, conn)
	if got.Type != event.CaptureRecord || got.Kind != protocol.FighterState || got.Records != 7 {
		t.Errorf("event = %+v", got)
	}
}

func TestHub_ReplaysHistoryToNewClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	baseURL, cleanup := startTestServer(t, Options{Hub: hub})
	defer cleanup()

	for i := 0; i < historySize+5; i++ {
		hub.Publish(event.Event{Type: event.ReplayRecord, Records: i})
	}
	conn := dialWS(t, baseURL)

	first := readEvent(t, conn)
	if first.Records != 5 {
		t.Errorf("first replayed event has records=%d, want 5", first.Records)
	}
}

func TestHub_IsEventSink(t *testing.T) {
	var sink event.Sink = NewHub(zerolog.Nop())
	sink.Publish(event.Event{Type: event.CaptureStarted}) // no clients, must not block
}

func archiveWithSession(t *testing.T) (*archive.Archive, archive.Meta, []byte) {
	t.Helper()
	a, err := archive.New(archive.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })

	var buf bytes.Buffer
	session.WriteRecord(&buf, 0, []byte{byte(protocol.TrainingStart), 0, 1, 2, 3})
	session.WriteRecord(&buf, 0, []byte{byte(protocol.TrainingEnd)})
	meta, err := a.Put(context.Background(), "drill", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return a, meta, buf.Bytes()
}

func TestServer_ListSessions(t *testing.T) {
	a, meta, _ := archiveWithSession(t)
	baseURL, cleanup := startTestServer(t, Options{Archive: a})
	defer cleanup()

	resp, body := get(t, baseURL+"/api/sessions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var metas []archive.Meta
	if err := json.Unmarshal(body, &metas); err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].ID != meta.ID || metas[0].StartKind != protocol.TrainingStart {
		t.Errorf("sessions = %+v", metas)
	}
}

func TestServer_GetSession(t *testing.T) {
	a, meta, data := archiveWithSession(t)
	baseURL, cleanup := startTestServer(t, Options{Archive: a})
	defer cleanup()

	resp, body := get(t, baseURL+"/api/sessions/drill")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !bytes.Equal(body, data) {
		t.Errorf("body = %v, want %v", body, data)
	}
	if resp.Header.Get("X-Rewind-Session-Id") != meta.ID {
		t.Errorf("session id header = %q", resp.Header.Get("X-Rewind-Session-Id"))
	}

	if resp, _ := get(t, baseURL+"/api/sessions/missing"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing session status = %d, want 404", resp.StatusCode)
	}
	if resp, _ := get(t, baseURL+"/api/sessions/"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty ref status = %d, want 400", resp.StatusCode)
	}
}
