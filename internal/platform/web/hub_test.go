package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubSkipsEventsCoveredByFirstFrame(t *testing.T) {
	h := NewHub(nil, nil)
	go h.Run()
	t.Cleanup(h.Stop)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, "g1", func(register func(*Message)) error {
			// Queued before the snapshot; the first frame already reflects it.
			h.Broadcast(&Message{GameID: "g1", Seq: 1, Event: "stale"})
			register(&Message{GameID: "g1", Seq: 1, Event: "state"})
			h.Broadcast(&Message{GameID: "g1", Seq: 2, Event: "move"})
			return nil
		})
	}))
	t.Cleanup(ts.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	for _, want := range []struct {
		event string
		seq   uint64
	}{
		{"state", 1},
		{"move", 2},
	} {
		m := readMessage(t, conn)
		if m.Event != want.event || m.Seq != want.seq {
			t.Fatalf("frame = %s/%d, want %s/%d", m.Event, m.Seq, want.event, want.seq)
		}
	}
}

func TestHubDropsConnectionWhenSnapshotFails(t *testing.T) {
	h := NewHub(nil, nil)
	go h.Run()
	t.Cleanup(h.Stop)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r, "gone", func(func(*Message)) error {
			return ErrGameNotFound
		})
	}))
	t.Cleanup(ts.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed")
	}
}
