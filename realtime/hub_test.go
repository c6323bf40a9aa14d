package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/hockey-madness/events"
	"github.com/Dosada05/hockey-madness/models"
	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, r.URL.Query().Get("room"))
		hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, hub *Hub, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=" + room
	before := hub.ClientCount(room)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(room) == before {
		if time.Now().After(deadline) {
			t.Fatalf("client never joined room %s", room)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, hub, srv, RoomForMatch("m1"))
	b := dial(t, hub, srv, RoomForMatch("m2"))

	hub.BroadcastToRoom(RoomForMatch("m1"), Message{Type: MessageMatchUpdated, Payload: "hello"})

	msg := readMessage(t, a)
	if msg.Type != MessageMatchUpdated || msg.RoomID != "match_m1" || msg.Payload != "hello" {
		t.Errorf("message = %+v", msg)
	}

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Error("client of another room received the message")
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, srv := newTestHub(t)
	room := RoomForMatch("m1")
	conn := dial(t, hub, srv, room)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(room) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.BroadcastToRoom(room, Message{Type: MessageMatchUpdated})
}

func TestRelay(t *testing.T) {
	hub, srv := newTestHub(t)
	bus := events.NewMemoryBus(nil)
	defer bus.Close()

	relay, err := NewRelay(bus, hub)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relayDone := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(relayDone)
	}()

	match := dial(t, hub, srv, RoomForMatch("m1"))
	board := dial(t, hub, srv, ScoreboardRoom)

	bus.Publish(ctx, events.TopicMatchUpdated, events.MatchUpdated{Match: &models.Match{ID: "m1", TeamA: "A", TeamB: "B", ScoreA: 2}})
	if got := readMessage(t, match); got.Type != MessageMatchUpdated {
		t.Errorf("match room message = %+v", got)
	}
	if got := readMessage(t, board); got.Type != MessageMatchUpdated || got.RoomID != ScoreboardRoom {
		t.Errorf("scoreboard message = %+v", got)
	}

	bus.Publish(ctx, events.TopicMatchDeleted, events.MatchDeleted{MatchID: "m1"})
	got := readMessage(t, match)
	payload, _ := got.Payload.(map[string]interface{})
	if got.Type != MessageMatchDeleted || payload["match_id"] != "m1" {
		t.Errorf("deletion message = %+v", got)
	}

	cancel()
	select {
	case <-relayDone:
	case <-time.After(time.Second):
		t.Error("relay did not stop")
	}
}
