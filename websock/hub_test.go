package websock

import (
	"testing"
	"time"
)

func recv(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return ""
	}
}

func TestHubRoomBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := &Client{Send: make(chan []byte, 4), Room: "shopping"}
	b := &Client{Send: make(chan []byte, 4), Room: "shopping"}
	other := &Client{Send: make(chan []byte, 4), Room: "expenses"}
	hub.register <- a
	hub.register <- b
	hub.register <- other

	hub.Broadcast("shopping", []byte("snapshot"))

	if got := recv(t, a); got != "snapshot" {
		t.Fatalf("client a got %q", got)
	}
	if got := recv(t, b); got != "snapshot" {
		t.Fatalf("client b got %q", got)
	}
	select {
	case msg := <-other.Send:
		t.Fatalf("expenses client got shopping broadcast %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a := &Client{Send: make(chan []byte, 4), Room: "map"}
	b := &Client{Send: make(chan []byte, 4), Room: "map"}
	hub.register <- a
	hub.register <- b

	hub.unregister <- a
	if _, open := <-a.Send; open {
		t.Fatal("expected send channel closed on unregister")
	}

	hub.Broadcast("map", []byte("focus"))
	if got := recv(t, b); got != "focus" {
		t.Fatalf("client b got %q", got)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte), Room: "system"}
	ok := &Client{Send: make(chan []byte, 4), Room: "system"}
	hub.register <- slow
	hub.register <- ok

	// Nobody drains slow.Send, so the first broadcast evicts it.
	hub.Broadcast("system", []byte("fatal"))
	if got := recv(t, ok); got != "fatal" {
		t.Fatalf("healthy client got %q", got)
	}
	if _, open := <-slow.Send; open {
		t.Fatal("expected slow client channel closed")
	}
}

func TestDropAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	c := &Client{Send: make(chan []byte, 1), Room: "shopping"}
	done := make(chan struct{})
	go func() {
		hub.drop(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after stop")
	}
}

func TestBroadcastAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.Broadcast("shopping", []byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}
