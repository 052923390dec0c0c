package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisBus_PublishSubscribeRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	b, err := NewRedisBus(RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisBus failed: %v", err)
	}
	defer func() { _ = b.Close() }()

	received := make(chan []byte, 1)
	sub, err := b.Subscribe(t.Context(), "wasmbus.rpc.Mxxxxx", func(_ context.Context, topic string, payload []byte) {
		received <- payload
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := b.Publish(t.Context(), "wasmbus.rpc.Mxxxxx", []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case payload := <-received:
		if string(payload) != "hello" {
			t.Fatalf("received %q, want %q", payload, "hello")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNewRedisBus_RequiresURL(t *testing.T) {
	if _, err := NewRedisBus(RedisConfig{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
