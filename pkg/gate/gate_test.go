package gate

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

func TestAllVisible(t *testing.T) {
	if !(AllVisible{}).IsVisible(context.Background(), "eyes", "e1.png") {
		t.Error("AllVisible should report every trait visible")
	}
}

func TestFunc(t *testing.T) {
	g := Func(func(_ context.Context, layer, name string) bool {
		return !(layer == "toys" && name == "secret.png")
	})
	if g.IsVisible(context.Background(), "toys", "secret.png") {
		t.Error("Func gate should hide toys/secret.png")
	}
	if !g.IsVisible(context.Background(), "toys", "ball.png") {
		t.Error("Func gate should show toys/ball.png")
	}
}

func TestRedisGateUnavailableIsVisible(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	g := NewRedisGate(client,
		WithNamespace("test:"),
		WithCredential("letmein"),
		WithTimeout(100*time.Millisecond),
		WithLogger(log.New(io.Discard)),
	)
	defer g.Close()

	if !g.IsVisible(context.Background(), "eyes", "e1.png") {
		t.Error("an unreachable gating service should default to visible")
	}
}
