package bus

import (
	"context"
	"testing"
	"time"
)

func TestLocalBusDeliversToSubscriber(t *testing.T) {
	b := NewLocalBus()
	ctx := context.Background()
	ch, cancel, err := b.Subscribe(ctx, "runner/abc")
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if err := b.Publish(ctx, "runner/abc", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case env := <-ch:
		if string(env.Value) != "hello" {
			t.Fatalf("got %q", env.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestLocalBusLateSubscriberMissesHistory(t *testing.T) {
	b := NewLocalBus()
	ctx := context.Background()

	if err := b.Publish(ctx, "runner/abc", []byte("before")); err != nil {
		t.Fatal(err)
	}

	ch, cancel, err := b.Subscribe(ctx, "runner/abc")
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	if err := b.Publish(ctx, "runner/abc", []byte("after")); err != nil {
		t.Fatal(err)
	}

	select {
	case env := <-ch:
		if string(env.Value) != "after" {
			t.Fatalf("late subscriber saw pre-subscription message: %q", env.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestLocalBusTopicsAreIndependent(t *testing.T) {
	b := NewLocalBus()
	ctx := context.Background()
	chA, cancelA, _ := b.Subscribe(ctx, "runner-ack/A")
	defer cancelA()
	chB, cancelB, _ := b.Subscribe(ctx, "runner-ack/B")
	defer cancelB()

	_ = b.Publish(ctx, "runner-ack/A", []byte("a"))

	select {
	case <-chB:
		t.Fatal("message published to A was delivered to B's subscriber")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case env := <-chA:
		if string(env.Value) != "a" {
			t.Fatalf("got %q", env.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}
