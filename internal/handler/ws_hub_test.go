package handler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/freeeve/polforge/api/internal/model"
	"github.com/freeeve/polforge/api/internal/service"
)

func newTestConn(userID string) *WSConn {
	return &WSConn{
		conn:   nil, // no real connection for hub tests
		userID: userID,
		send:   make(chan []byte, 256),
	}
}

func recv(t *testing.T, c *WSConn) WSEvent {
	t.Helper()
	select {
	case msg := <-c.send:
		var event WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return WSEvent{}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := newTestConn("user-1")

	hub.Register(c)
	if hub.ConnectionCount() != 1 {
		t.Errorf("expected 1 connection, got %d", hub.ConnectionCount())
	}

	hub.Unregister(c)
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", hub.ConnectionCount())
	}
	hub.Unregister(c) // second unregister must not close the queue twice
}

func TestHubSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	c := newTestConn("user-1")
	hub.Register(c)
	defer hub.Unregister(c)

	hub.Subscribe(c, "game-1")
	if hub.GameSubscriberCount("game-1") != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.GameSubscriberCount("game-1"))
	}

	hub.Unsubscribe(c, "game-1")
	if hub.GameSubscriberCount("game-1") != 0 {
		t.Errorf("expected 0 subscribers, got %d", hub.GameSubscriberCount("game-1"))
	}
}

func TestHubIgnoresUnregisteredConn(t *testing.T) {
	hub := NewHub()
	c := newTestConn("user-1")
	hub.Subscribe(c, "game-1")
	if hub.GameSubscriberCount("game-1") != 0 {
		t.Error("unregistered connection should not subscribe")
	}
	hub.Send(c, WSEvent{Type: EventConnected})
	if len(c.send) != 0 {
		t.Error("unregistered connection should not receive messages")
	}
}

func TestHubBroadcastToGame(t *testing.T) {
	hub := NewHub()
	c1 := newTestConn("user-1")
	c2 := newTestConn("user-1") // second tab
	c3 := newTestConn("user-2") // not subscribed

	for _, c := range []*WSConn{c1, c2, c3} {
		hub.Register(c)
		defer hub.Unregister(c)
	}
	hub.Subscribe(c1, "game-1")
	hub.Subscribe(c2, "game-1")

	hub.BroadcastToGame("game-1", WSEvent{
		Type:   service.EventTurnChanged,
		GameID: "game-1",
		Data:   map[string]any{"turn": 2, "current": "opponent"},
	})

	if ev := recv(t, c1); ev.Type != service.EventTurnChanged {
		t.Errorf("expected turn_changed, got %s", ev.Type)
	}
	recv(t, c2)

	select {
	case <-c3.send:
		t.Error("c3 should not have received broadcast")
	default:
	}
}

func TestHubUnregisterCleansUpSubscriptions(t *testing.T) {
	hub := NewHub()
	c := newTestConn("user-1")
	hub.Register(c)
	hub.Subscribe(c, "game-1")
	hub.Subscribe(c, "game-2")

	hub.Unregister(c)

	if hub.GameSubscriberCount("game-1") != 0 || hub.GameSubscriberCount("game-2") != 0 {
		t.Error("expected no subscribers after unregister")
	}
}

func TestHubConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestConn("user")
			hub.Register(c)
			hub.Subscribe(c, "game-1")
			hub.BroadcastGameEvent("game-1", service.EventNews, nil)
			hub.Unsubscribe(c, "game-1")
			hub.Unregister(c)
		}()
	}

	wg.Wait()
	if hub.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after concurrent test, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastGameEvent(t *testing.T) {
	hub := NewHub()
	c := newTestConn("user-1")
	hub.Register(c)
	defer hub.Unregister(c)
	hub.Subscribe(c, "game-1")

	hub.BroadcastGameEvent("game-1", service.EventOpponentReport, map[string]string{"summary": "held fire"})

	ev := recv(t, c)
	if ev.Type != service.EventOpponentReport {
		t.Errorf("expected opponent_report, got %s", ev.Type)
	}
	if ev.GameID != "game-1" {
		t.Errorf("expected game-1, got %s", ev.GameID)
	}
}

type stubLookup map[string]string // gameID -> owner

func (s stubLookup) GetGame(_ context.Context, gameID, userID string) (*model.Game, error) {
	owner, ok := s[gameID]
	if !ok {
		return nil, service.ErrGameNotFound
	}
	if owner != userID {
		return nil, service.ErrNotOwner
	}
	return &model.Game{ID: gameID, OwnerID: owner}, nil
}

func TestWSSubscribeChecksOwnership(t *testing.T) {
	hub := NewHub()
	h := NewWSHandler(hub, nil, stubLookup{"game-1": "user-1"})

	tests := []struct {
		name   string
		userID string
		gameID string
		want   string
		subs   int
	}{
		{"owner", "user-1", "game-1", EventSubscribed, 1},
		{"other player", "user-2", "game-1", EventSubscribeNo, 0},
		{"missing game", "user-1", "game-9", EventSubscribeNo, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestConn(tt.userID)
			hub.Register(c)
			defer hub.Unregister(c)

			h.handle(c, ClientMessage{Action: "subscribe", GameID: tt.gameID})
			if ev := recv(t, c); ev.Type != tt.want {
				t.Errorf("expected %s, got %s", tt.want, ev.Type)
			}
			if got := hub.GameSubscriberCount(tt.gameID); got != tt.subs {
				t.Errorf("expected %d subscribers, got %d", tt.subs, got)
			}
			h.handle(c, ClientMessage{Action: "unsubscribe", GameID: tt.gameID})
			if hub.GameSubscriberCount(tt.gameID) != 0 {
				t.Error("unsubscribe should remove the connection")
			}
		})
	}
}

func TestClientMessageSerialization(t *testing.T) {
	var parsed ClientMessage
	if err := json.Unmarshal([]byte(`{"action":"subscribe","game_id":"game-1"}`), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Action != "subscribe" || parsed.GameID != "game-1" {
		t.Errorf("unexpected message: %+v", parsed)
	}
}
