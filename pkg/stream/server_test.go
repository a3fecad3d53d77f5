package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(Config{Preset: "womb"})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		ts.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/bed" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

// nextText reads until a text message arrives, skipping audio frames.
func nextText(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if typ != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	}
}

func nextBinary(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if typ == websocket.BinaryMessage {
			return data
		}
	}
}

func TestStreamSessionAndFrames(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts, "?seed=42&rate=16000")

	hello := nextText(t, conn)
	if hello.Type != TypeSession || hello.Session == "" || hello.Seed != 42 {
		t.Fatalf("hello = %+v", hello)
	}
	if hello.Format != "audio/L16; rate=16000; channels=1" || hello.HeartRate != 110 {
		t.Fatalf("hello = %+v", hello)
	}
	for range 3 {
		if frame := nextBinary(t, conn); len(frame) != 640 {
			t.Fatalf("frame = %d bytes, want 640", len(frame))
		}
	}
}

func TestStreamFloatStereo(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts, "?encoding=f32&channels=2&rate=8000")
	if hello := nextText(t, conn); hello.Format != "audio/F32; rate=8000; channels=2" {
		t.Fatalf("hello = %+v", hello)
	}
	if frame := nextBinary(t, conn); len(frame) != 160*2*4 {
		t.Fatalf("frame = %d bytes", len(frame))
	}
}

func TestStreamControl(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts, "?seed=1")
	nextText(t, conn)
	nextBinary(t, conn)

	if err := conn.WriteJSON(Message{Type: TypeSetHeartRate, BPM: 72}); err != nil {
		t.Fatal(err)
	}
	if msg := nextText(t, conn); msg.Type != TypeHeartRate || msg.HeartRate != 72 {
		t.Fatalf("reply = %+v", msg)
	}

	if err := conn.WriteJSON(Message{Type: TypeSetHeartRate, BPM: -5}); err != nil {
		t.Fatal(err)
	}
	if msg := nextText(t, conn); msg.Type != TypeError || !strings.Contains(msg.Message, "invalid parameter") {
		t.Fatalf("reply = %+v", msg)
	}

	if err := conn.WriteJSON(Message{Type: TypeStats}); err != nil {
		t.Fatal(err)
	}
	msg := nextText(t, conn)
	if msg.Type != TypeStats || msg.Stats == nil || msg.HeartRate != 72 {
		t.Fatalf("reply = %+v", msg)
	}
	if msg.Stats.Samples == 0 || msg.Stats.LubTriggers == 0 {
		t.Fatalf("stats = %+v", msg.Stats)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	if msg := nextText(t, conn); msg.Type != TypeError {
		t.Fatalf("reply to bad json = %+v", msg)
	}
	if err := conn.WriteJSON(Message{Type: "dance"}); err != nil {
		t.Fatal(err)
	}
	if msg := nextText(t, conn); msg.Type != TypeError || !strings.Contains(msg.Message, "dance") {
		t.Fatalf("reply to unknown type = %+v", msg)
	}
}

func TestStreamSameSeedSameAudio(t *testing.T) {
	_, ts := newTestServer(t)
	a := dial(t, ts, "?seed=5")
	b := dial(t, ts, "?seed=5")
	for i := range 5 {
		fa, fb := nextBinary(t, a), nextBinary(t, b)
		if string(fa) != string(fb) {
			t.Fatalf("frame %d differs", i)
		}
	}
}

func TestStreamBadParams(t *testing.T) {
	_, ts := newTestServer(t)
	for _, q := range []string{"?seed=x", "?rate=-1", "?channels=5", "?encoding=mp3", "?preset=nope", "?bpm=0"} {
		resp, err := http.Get(ts.URL + "/bed" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestStreamHealthAndSessions(t *testing.T) {
	srv, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	conn := dial(t, ts, "?seed=3&preset=soft")
	hello := nextText(t, conn)
	nextBinary(t, conn)

	sessions := srv.Sessions()
	if len(sessions) != 1 || sessions[0].ID != hello.Session || sessions[0].Preset != "soft" {
		t.Fatalf("sessions = %+v", sessions)
	}

	resp, err = http.Get(ts.URL + "/sessions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var listed []SessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].HeartRate != 72 {
		t.Fatalf("listed = %+v", listed)
	}
}

func TestStreamShutdownClosesSessions(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts, "")
	nextText(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Logf("read after shutdown: %v", err)
			break
		}
	}
	if n := len(srv.Sessions()); n != 0 {
		t.Fatalf("%d sessions left after shutdown", n)
	}
}

func TestNewServerRejectsUnknownPreset(t *testing.T) {
	if _, err := NewServer(Config{Preset: "nope"}); err == nil {
		t.Fatal("unknown preset should fail")
	}
}
